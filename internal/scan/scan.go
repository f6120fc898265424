// Package scan discovers video files on disk and filters them by name and
// probed metadata.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"vidtool/internal/model"
)

// Options control a directory scan.
type Options struct {
	Recursive  bool
	Extensions []string     // defaults to model.VideoExtensions
	Found      func(string) // called per discovered file
}

// Videos walks root and returns all files with a recognized video
// extension, sorted. Unreadable subdirectories are skipped rather than
// aborting the whole scan.
func Videos(root string, opts Options) ([]string, error) {
	exts := map[string]bool{}
	list := opts.Extensions
	if len(list) == 0 {
		list = model.VideoExtensions
	}
	for _, e := range list {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[strings.ToLower(e)] = true
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		found = append(found, path)
		if opts.Found != nil {
			opts.Found(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}
