package seed

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// ReadFile decodes the document at path, inferring the format from its
// extension.
func ReadFile(path string) (types.Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return types.Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f), format)
}

// WriteFile atomically writes doc to path using the temp-file, fsync,
// rename pattern.
func WriteFile(path string, doc types.Document, format Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".formulary-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := Encode(tmp, doc, format); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
