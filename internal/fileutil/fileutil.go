package fileutil

import (
	"os"
	"path/filepath"
)

// DefaultFileMode keeps exported secret files private to the runner user
const DefaultFileMode os.FileMode = 0600

// OS is the real file system
type OS struct {
	Mode os.FileMode
}

// WriteFile replaces path with data in a single atomic rename
func (o OS) WriteFile(path string, data []byte) error {
	mode := o.Mode
	if mode == 0 {
		mode = DefaultFileMode
	}
	return AtomicWriteFile(path, data, mode)
}

// Access returns an error if path cannot be stat'ed
func (o OS) Access(path string) error {
	_, err := os.Stat(path)
	return err
}

// Remove deletes path
func (o OS) Remove(path string) error {
	return os.Remove(path)
}

// AtomicWriteFile replaces filename with data. The content goes to a
// private temp file in the same directory which is synced and then renamed
// over filename, so readers never see a partial file.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, filename)
}
