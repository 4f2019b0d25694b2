//go:build windows
// +build windows

package fsutil

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sys/windows"
)

// Replace moves sourcePath over destPath with MoveFileEx, retrying while
// another process (usually a virus scanner) holds the destination open.
func Replace(sourcePath, destPath string, logger hclog.Logger) error {
	logger.Trace("replacing file", "source", sourcePath, "dest", destPath)

	fromPtr, err := windows.UTF16PtrFromString(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to convert source path to UTF-16: %w", err)
	}
	toPtr, err := windows.UTF16PtrFromString(destPath)
	if err != nil {
		return fmt.Errorf("failed to convert dest path to UTF-16: %w", err)
	}

	var flags uint32 = windows.MOVEFILE_REPLACE_EXISTING | windows.MOVEFILE_WRITE_THROUGH
	delay := 50 * time.Millisecond

	for attempt := 1; ; attempt++ {
		err = windows.MoveFileEx(fromPtr, toPtr, flags)
		if err == nil {
			return nil
		}
		if attempt == maxReplaceAttempts {
			return fmt.Errorf("failed after %d attempts (Windows file lock): %w", maxReplaceAttempts, err)
		}
		logger.Debug("retrying file replacement",
			"attempt", attempt,
			"next_delay_ms", delay.Milliseconds(),
			"error", err)
		time.Sleep(delay)
		delay *= 2
	}
}
