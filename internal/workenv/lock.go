package workenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LockPath is the lock file guarding the tree at root. It sits beside the
// tree so it never ships inside a bundle.
func LockPath(root string) string {
	return strings.TrimRight(root, `/\`) + ".lock"
}

// ErrLocked is returned when another live process holds a tree lock.
type ErrLocked struct {
	Path string
	PID  int
}

func (e *ErrLocked) Error() string {
	return fmt.Sprintf("tree %s is locked by process %d", e.Path, e.PID)
}

// Lock takes the tree lock for root. Locks left by dead processes or with
// unreadable contents are removed first. The returned function releases
// the lock.
func Lock(root string, logger hclog.Logger) (func(), error) {
	lockPath := LockPath(root)

	if data, err := os.ReadFile(lockPath); err == nil {
		contents := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(contents); err == nil {
			if processRunning(pid) && pid != os.Getpid() {
				return nil, &ErrLocked{Path: root, PID: pid}
			}
			logger.Info("🧹 removing stale lock", "pid", pid)
		} else {
			logger.Info("🧹 removing invalid lock file")
		}
		os.Remove(lockPath)
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, &ErrLocked{Path: root}
		}
		return nil, err
	}
	defer file.Close()

	pid := os.Getpid()
	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(lockPath)
		return nil, err
	}

	logger.Debug("🔒 acquired tree lock", "path", lockPath, "pid", pid)
	return func() {
		if err := os.Remove(lockPath); err != nil {
			logger.Debug("⚠️ failed to remove lock file", "error", err)
			return
		}
		logger.Debug("🔓 released tree lock", "path", lockPath)
	}, nil
}
