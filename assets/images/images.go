// Package images locates the photo files used by the harness scenarios.
//
// The bundled photos are embedded in the binary; when no directory is
// configured they are unpacked into a per-user cache directory, so installed
// and trimpath builds work away from the source tree.
package images

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// Seed is uploaded when a scenario needs an owned pet to exist.
	Seed = "cat1.jpg"
	// GingerCat is uploaded by the add and set-photo scenarios.
	GingerCat = "ginger_cat.jpg"
	// Missing never exists; scenarios use it to trigger local file errors.
	Missing = "non_existent_photo.jpg"
)

//go:embed cat1.jpg ginger_cat.jpg
var bundled embed.FS

// Bundled returns the embedded bytes of a bundled photo.
func Bundled(name string) ([]byte, error) {
	return fs.ReadFile(bundled, name)
}

// Dir returns the default photo directory, unpacking the bundled photos into
// it when they are missing or stale.
func Dir() (string, error) {
	root, err := os.UserCacheDir()
	if err != nil || root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "petfriends-harness", "images")
	if err := Extract(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Extract writes the bundled photos into dir. Files already holding the same
// bytes are left alone.
func Extract(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create photo directory: %w", err)
	}
	for _, name := range []string{Seed, GingerCat} {
		data, err := Bundled(name)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, data) {
			continue
		}
		if err := writeAtomic(path, data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// writeAtomic replaces path via a rename so concurrent readers never see a
// partially written photo.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".photo-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Resolve returns dir unless it is empty, in which case the bundled photos
// are used. The result must contain the Seed and GingerCat photos.
func Resolve(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return "", err
		}
	}
	for _, name := range []string{Seed, GingerCat} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		if info.Size() == 0 {
			return "", errors.New("photo " + name + " is empty")
		}
	}
	return dir, nil
}
