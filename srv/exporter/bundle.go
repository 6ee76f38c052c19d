package exporter

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// bundle writes a zip archive containing the given files at its
// top level. Entries keep their base names.
func bundle(zipPath string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addEntry(zw, path); err != nil {
			zw.Close()
			out.Close()
			os.Remove(zipPath)
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(zipPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(zipPath)
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	defer in.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filepath.Base(path), err)
	}
	return nil
}
