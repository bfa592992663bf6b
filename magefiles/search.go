//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the binary and runs one search, saving it under searches/.
func Search(query string) error {
	mg.Deps(Build, Init)
	out := filepath.Join("searches", slug(query)+".yaml")
	return sh.RunV(filepath.Join(binDir, binName), "search", "--save", out, query)
}

// slug turns a query into a file name.
func slug(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, r)
		case r >= 'A' && r <= 'Z':
			b = append(b, r+'a'-'A')
		case len(b) > 0 && b[len(b)-1] != '-':
			b = append(b, '-')
		}
	}
	for len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "search"
	}
	return string(b)
}
