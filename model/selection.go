package model

import "sort"

// Selection is the set of track indices included in a compile.
type Selection map[int]bool

func SelectAll(numTracks int) Selection {
	s := make(Selection, numTracks)
	for i := 0; i < numTracks; i++ {
		s[i] = true
	}
	return s
}

func NewSelection(indices ...int) Selection {
	s := make(Selection, len(indices))
	for _, i := range indices {
		s[i] = true
	}
	return s
}

func (s Selection) Set(index int, included bool) {
	if included {
		s[index] = true
	} else {
		delete(s, index)
	}
}

func (s Selection) Includes(index int) bool {
	return s[index]
}

func (s Selection) Indices() []int {
	res := make([]int, 0, len(s))
	for i := range s {
		res = append(res, i)
	}
	sort.Ints(res)
	return res
}
