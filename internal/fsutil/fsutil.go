// Package fsutil holds the small file operations the build pipeline needs
// on both Unix and Windows hosts.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

const maxReplaceAttempts = 3

// WriteFile writes data next to path and then replaces path with it, so
// readers never see a partial file.
func WriteFile(path string, data []byte, perm os.FileMode, logger hclog.Logger) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := Replace(tmpPath, path, logger); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// CopyFile copies src to dst through WriteFile, keeping src's permissions.
func CopyFile(src, dst string, logger hclog.Logger) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return WriteFile(dst, data, info.Mode().Perm(), logger)
}

// Remove deletes a file, clearing a read-only flag first if needed.
func Remove(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if werr := MakeWritable(path); werr != nil {
		return err
	}
	return os.Remove(path)
}
