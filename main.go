package main

import "github.com/jsphweid/m300/cmd"

func main() {
	cmd.Execute()
}
