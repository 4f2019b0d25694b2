//go:build !windows
// +build !windows

package fsutil

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Replace moves sourcePath over destPath. os.Rename is atomic here.
func Replace(sourcePath, destPath string, logger hclog.Logger) error {
	logger.Trace("replacing file", "source", sourcePath, "dest", destPath)

	if err := os.Rename(sourcePath, destPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
