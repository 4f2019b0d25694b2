package ico

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/internal/fsutil"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

// Subdir is where installed .ico files live, relative to the bundle root.
const Subdir = "_icons"

// Themes are searched in order for each icon size.
var Themes = []string{"Adwaita", "hicolor"}

// ImageSet holds at most one image per size.
type ImageSet struct {
	images map[int]Image
}

// Add stores img unless an image of the same size is already present.
func (s *ImageSet) Add(img Image) bool {
	if s.images == nil {
		s.images = make(map[int]Image)
	}
	if _, ok := s.images[img.Width]; ok {
		return false
	}
	s.images[img.Width] = img
	return true
}

// Len returns the number of images.
func (s *ImageSet) Len() int { return len(s.images) }

// Images returns the images, largest first.
func (s *ImageSet) Images() []Image {
	out := make([]Image, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Width > out[j].Width })
	return out
}

// Find collects PNG renditions of icon from the icon themes under prefix,
// one per size from 16 to 256 in steps of 8.
func Find(prefix, icon string, logger hclog.Logger) (*ImageSet, error) {
	set := &ImageSet{}
	for size := MinSize; size <= MaxSize; size += SizeStep {
		path := findSize(prefix, icon, size)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, styreneerrors.Asset("reading "+path, err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			logger.Warn("⚠️ not a PNG image", "path", path, "error", err)
			continue
		}
		logger.Debug("icon image", "path", path, "width", cfg.Width, "height", cfg.Height)
		set.Add(Image{Width: cfg.Width, Height: cfg.Height, Data: data})
	}
	return set, nil
}

func findSize(prefix, icon string, size int) string {
	for _, theme := range Themes {
		pattern := filepath.Join(prefix, "share", "icons", theme,
			fmt.Sprintf("%dx%d", size, size), "*", icon+".png")
		matches, _ := filepath.Glob(pattern)
		if len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// Install converts icon into <root>/_icons/<icon>.ico and returns the
// icon name. Empty and absolute icon references are not installed and
// return "".
func Install(root, prefix, icon string, logger hclog.Logger) (string, error) {
	if icon == "" || filepath.IsAbs(icon) {
		return "", nil
	}

	set, err := Find(prefix, icon, logger)
	if err != nil {
		return "", err
	}
	if set.Len() == 0 {
		return "", styreneerrors.Assetf("no PNG images found for icon %q", icon)
	}

	data, err := Encode(set.Images(), logger)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(root, Subdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", styreneerrors.Asset("creating "+outDir, err)
	}
	path := Path(root, icon)
	if err := fsutil.WriteFile(path, data, 0o644, logger); err != nil {
		return "", styreneerrors.Asset("writing "+path, err)
	}

	logger.Info("🎨 icon installed", "icon", icon, "images", set.Len(), "path", path)
	return icon, nil
}

// Path returns where Install writes icon.
func Path(root, icon string) string {
	return filepath.Join(root, Subdir, icon+".ico")
}
