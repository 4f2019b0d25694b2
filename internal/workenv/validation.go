package workenv

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	completeMarker   = ".styrene-build.complete"
	incompleteMarker = ".styrene-build.incomplete"
)

// BuildMarker records which bundle a tree was last built for.
type BuildMarker struct {
	Timestamp time.Time `yaml:"timestamp"`
	StubName  string    `yaml:"stub_name"`
	Version   string    `yaml:"version"`
	Arch      string    `yaml:"arch"`
}

// IsComplete reports whether path holds a finished build of the given
// bundle.
func IsComplete(path, stubName, version string) bool {
	data, err := os.ReadFile(filepath.Join(path, completeMarker))
	if err != nil {
		return false
	}

	var marker BuildMarker
	if err := yaml.Unmarshal(data, &marker); err != nil {
		return false
	}
	if marker.StubName != stubName || marker.Version != version {
		return false
	}

	for _, dir := range TreeLayout {
		if info, err := os.Stat(filepath.Join(path, filepath.FromSlash(dir.Path))); err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// MarkComplete records a finished build in path.
func MarkComplete(path, stubName, version, arch string) error {
	data, err := yaml.Marshal(BuildMarker{
		Timestamp: time.Now().UTC(),
		StubName:  stubName,
		Version:   version,
		Arch:      arch,
	})
	if err != nil {
		return err
	}
	os.Remove(filepath.Join(path, incompleteMarker))
	return os.WriteFile(filepath.Join(path, completeMarker), data, 0644)
}

// MarkIncomplete records a failed build in path.
func MarkIncomplete(path, reason string) error {
	data, err := yaml.Marshal(map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"reason":    reason,
	})
	if err != nil {
		return err
	}

	os.Remove(filepath.Join(path, completeMarker))
	return os.WriteFile(filepath.Join(path, incompleteMarker), data, 0644)
}

// Clean removes the build markers so they do not ship with the bundle.
func Clean(path string) {
	os.Remove(filepath.Join(path, incompleteMarker))
	os.Remove(filepath.Join(path, completeMarker))
}
