package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoWorkflows is returned by Discover when nothing matched.
var ErrNoWorkflows = errors.New("no workflow files found")

// IsWorkflowFile reports whether path has a YAML extension.
func IsWorkflowFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// Discover expands args into a sorted, deduplicated list of workflow files.
// Directories are walked recursively; files named explicitly are kept
// whatever their extension. With no args, defaultDir is walked.
func Discover(args []string, defaultDir string) ([]string, error) {
	if len(args) == 0 {
		args = []string{defaultDir}
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsWorkflowFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// Сортируем для детерминированного порядка
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, ErrNoWorkflows
	}
	return files, nil
}
