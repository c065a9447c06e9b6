package fix

import (
	"fmt"
	"os"
	"path/filepath"

	"wflint/internal/source"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteFile replaces the file at path with content through a temporary file
// in the same directory, keeping the original mode. A BOM stripped on load
// (source.FileHadBOM) is put back.
func WriteFile(path string, content []byte, flags source.FileFlags) error {
	if flags&source.FileVirtual != 0 {
		return fmt.Errorf("write %s: target file is virtual", path)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if flags&source.FileHadBOM != 0 {
		if _, err := tmp.Write(utf8BOM); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	ok = true
	return nil
}
