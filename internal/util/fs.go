package util

import (
	"fmt"
	"os"
	"path/filepath"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins a remote-supplied file name under root, stripping any path
// components so a listing cannot write outside the destination directory.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}

// ProbeWritable verifies the directory exists and accepts new files.
func ProbeWritable(dir string) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "probe-*")
	if err != nil {
		return fmt.Errorf("output dir %s not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}
