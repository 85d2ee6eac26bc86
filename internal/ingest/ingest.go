// Package ingest resolves command-line paths, directories and glob
// patterns into the contract files to load.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker selects files under a directory by include and exclude globs,
// matched against slash-separated paths relative to the directory.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{includes: includes, excludes: excludes}
}

// Walk returns the matching files under root, sorted.
func (w *Walker) Walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && w.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if w.included(rel) && !w.excluded(rel) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Expand turns each argument into files: a regular file is taken as is, a
// directory is walked, and anything else is treated as a glob pattern.
// Duplicates are removed.
func (w *Walker) Expand(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			files, err := w.Walk(arg)
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", arg, err)
			}
			add(files...)
		case err == nil:
			add(arg)
		default:
			matches, gerr := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if gerr != nil {
				return nil, fmt.Errorf("glob %s: %w", arg, gerr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%s: no such file or matching files", arg)
			}
			sort.Strings(matches)
			add(matches...)
		}
	}
	return out, nil
}

func (w *Walker) included(rel string) bool {
	return matchAny(w.includes, rel)
}

func (w *Walker) excluded(rel string) bool {
	return matchAny(w.excludes, rel)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// ContractName derives a contract name from a file path: the base name
// without its extension.
func ContractName(path string) string {
	base := filepath.Base(path)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

// ReadText reads a UTF-8 text file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: not UTF-8 text", path)
	}
	return string(data), nil
}
