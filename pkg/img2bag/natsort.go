package img2bag

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// chunk is a run of digits or non-digits within a path segment. Digit runs
// are stored without leading zeros.
type chunk struct {
	num bool
	s   string
}

// naturalKey breaks a path into segments of chunks. Case is folded and
// whitespace becomes '_' so that "Img 2" and "img_2" compare equal.
func naturalKey(path string) [][]chunk {
	p := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, path)
	p = cases.Fold().String(p)

	var key [][]chunk
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		key = append(key, chunks(seg))
	}
	return key
}

func chunks(s string) []chunk {
	var cs []chunk
	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) == isDigit(s[start]) {
			continue
		}
		c := chunk{num: isDigit(s[start]), s: s[start:i]}
		if c.num {
			c.s = strings.TrimLeft(c.s, "0")
		}
		cs = append(cs, c)
		start = i
	}
	return cs
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func compareChunk(a, b chunk) int {
	switch {
	case a.num && b.num:
		if len(a.s) != len(b.s) {
			return len(a.s) - len(b.s)
		}
		return strings.Compare(a.s, b.s)
	case a.num:
		return -1
	case b.num:
		return 1
	}
	return strings.Compare(a.s, b.s)
}

func compareSegment(a, b []chunk) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareChunk(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareKey(a, b [][]chunk) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// sortNatural orders paths so that embedded numbers compare by value. Ties
// fall back to the unmodified base name and then the full path.
func sortNatural(paths []string) {
	keys := make(map[string][][]chunk, len(paths))
	for _, p := range paths {
		keys[p] = naturalKey(p)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		a, b := paths[i], paths[j]
		if c := compareKey(keys[a], keys[b]); c != 0 {
			return c < 0
		}
		if ba, bb := filepath.Base(a), filepath.Base(b); ba != bb {
			return ba < bb
		}
		return a < b
	})
}
