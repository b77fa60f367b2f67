package upload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotImage  = errors.New("file is not an image")
	ErrTooLarge  = errors.New("file is too large")
)

// File is an in-memory image ready to upload.
type File struct {
	Name string
	Data []byte
}

// Validate checks the size limit and sniffs the content type; maxSize <= 0
// disables the size check. It returns the detected MIME type.
func Validate(f File, maxSize int64) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("%s: %w", f.Name, ErrEmptyFile)
	}
	if maxSize > 0 && int64(len(f.Data)) > maxSize {
		return "", fmt.Errorf("%s: %w (%d > %d bytes)", f.Name, ErrTooLarge, len(f.Data), maxSize)
	}
	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%s (%s): %w", f.Name, mt.String(), ErrNotImage)
	}
	return mt.String(), nil
}
