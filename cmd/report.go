package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Reports what a compiled file will play",
	Long:  `Reports what a compiled file will play`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, res, err := compileFile(args[0])
		if err != nil {
			return err
		}
		rep := res.Report()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file: %v\n", p.Name)
		fmt.Fprintf(out, "notes: %v\n", p.NumNotes())
		fmt.Fprintf(out, "tones: %v\n", rep.Tones)
		fmt.Fprintf(out, "percussion: %v\n", rep.Percussion)
		fmt.Fprintf(out, "rests: %v\n", rep.Rests)
		fmt.Fprintf(out, "lines: %v\n", rep.Lines)
		fmt.Fprintf(out, "seconds: %.3f\n", rep.Seconds)
		fmt.Fprintf(out, "frequencies: %v\n", rep.Frequencies)
		return nil
	},
}
