package util

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

func IsMidiPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mid" || ext == ".midi"
}

// GatherAllMidiPaths walks path and returns every .mid/.midi file below it.
// maxNum of 0 means no limit.
func GatherAllMidiPaths(path string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsMidiPath(s) {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	if err := filepath.WalkDir(path, walk); err != nil {
		return nil, errors.Wrapf(err, "could not walk %v", path)
	}
	return res, nil
}

// BaseName strips directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func Min[A constraints.Ordered](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Ordered](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func Clamp[A constraints.Ordered](v, lo, hi A) A {
	return Min(Max(v, lo), hi)
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
