package projectfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ohyeah2389/Pointgram/project"
)

// SaveFile writes the project to path atomically: the document is encoded
// into a temporary file in the destination directory, then renamed over the
// target. A failure at any point leaves the previously-stored project
// intact and removes the temporary file.
func SaveFile(path string, p *project.Project) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("projectfile: create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := Save(tmp, p); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("projectfile: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("projectfile: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		tmpName = ""
		return fmt.Errorf("projectfile: rename into place: %w", err)
	}
	tmpName = "" // renamed, nothing to clean up
	return nil
}

// LoadFile reads and decodes a project document from disk.
func LoadFile(path string) (*project.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
