package petfriends

import (
	"fmt"
	"io/fs"
	"os"
)

// PhotoError reports a photo file that could not be opened for upload. It is
// returned before any request is sent.
type PhotoError struct {
	Path string
	Err  error
}

func (e *PhotoError) Error() string {
	return fmt.Sprintf("photo %q: %v", e.Path, e.Err)
}

func (e *PhotoError) Unwrap() error { return e.Err }

func openPhoto(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PhotoError{Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &PhotoError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, &PhotoError{Path: path, Err: fmt.Errorf("not a regular file: %w", fs.ErrInvalid)}
	}
	return f, nil
}
