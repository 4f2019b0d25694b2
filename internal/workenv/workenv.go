// Package workenv manages bundle trees and scratch directories.
package workenv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// TreeLayout is the skeleton pacman needs before it can install into a
// bundle tree.
var TreeLayout = []DirectorySpec{
	{Path: "var/lib/pacman"},
	{Path: "var/log"},
	{Path: "tmp"},
}

// DirectorySpec specifies a directory to create
type DirectorySpec struct {
	Path string
	Mode uint32
}

// CreateTree creates path and the given subdirectories.
func CreateTree(path string, dirs []DirectorySpec) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create tree: %w", err)
	}

	for _, dir := range dirs {
		dirPath := filepath.Join(path, filepath.FromSlash(dir.Path))
		mode := dir.Mode
		if mode == 0 {
			mode = 0755
		}

		if err := os.MkdirAll(dirPath, os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}

	return nil
}

// ScratchRoot returns the parent directory for scratch directories.
func ScratchRoot() string {
	if dir := os.Getenv("STYRENE_SCRATCH_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, "styrene", "scratch")
}

// Scratch creates a fresh scratch directory. The returned function removes
// it and is safe to call more than once.
func Scratch(pattern string) (string, func(), error) {
	root := ScratchRoot()
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch root: %w", err)
	}
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
