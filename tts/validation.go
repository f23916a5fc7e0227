package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knoxify/knoxify/utils"
)

// MaxFileSize is the largest file, in bytes, the server accepts.
const MaxFileSize = 50 * 1024

// File is a file picked for conversion.
type File struct {
	Name string // base name sent to the server
	Path string // where the content is read from
	Size int64
}

// StatFile describes the file at path.
func StatFile(path string) (*File, error) {
	path = utils.ExpandPath(path)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{
		Name: filepath.Base(path),
		Path: path,
		Size: fi.Size(),
	}, nil
}

// ValidateFile checks a selection before anything is sent to the server.
func ValidateFile(f *File) error {
	switch {
	case f == nil:
		return ErrNoFile
	case !utils.IsTextFile(f.Name):
		return ErrNotTextFile
	case f.Size > MaxFileSize:
		return ErrFileTooLarge
	}
	return nil
}
