// Package scanner discovers the local candidate files of a run.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultIncludes are the document types synced when nothing else is given.
var DefaultIncludes = []string{"*.epub", "*.pdf"}

type Options struct {
	// Include patterns are matched case-insensitively against the base name.
	Include []string
	// Exclude patterns are matched against the slash separated path relative
	// to the root. A trailing slash excludes a directory and everything below.
	Exclude   []string
	Recursive bool
}

// Scan returns the regular files under root that pass opts, sorted.
func Scan(fs afero.Fs, root string, opts Options) ([]string, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}
	if err := validate(opts); err != nil {
		return nil, err
	}

	includes := opts.Include
	if len(includes) == 0 {
		includes = DefaultIncludes
	}

	var files []string
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath == "." {
				return nil
			}
			if !opts.Recursive || isExcluded(relPath+"/", opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !isIncluded(info.Name(), includes) || isExcluded(relPath, opts.Exclude) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func validate(opts Options) error {
	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	return nil
}

func isIncluded(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(strings.ToLower(pattern), lower); matched {
			return true
		}
	}
	return false
}

// isExcluded reports whether path matches an exclude pattern. Directory paths
// carry a trailing slash.
func isExcluded(path string, patterns []string) bool {
	isDir := strings.HasSuffix(path, "/")
	path = strings.TrimSuffix(path, "/")
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			if !isDir {
				parts = parts[:len(parts)-1]
			}
			for i := 1; i <= len(parts); i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}
