package reportcompiler

import (
	"errors"
	"fmt"
)

// Error kinds. Image errors concern a single photograph and are recovered
// in place with a visible placeholder; a document write error aborts the
// whole export.
var (
	ErrImageLoad     = errors.New("image load failed")
	ErrImageEncode   = errors.New("image encode failed")
	ErrDocumentWrite = errors.New("document write failed")
)

// ImageError wraps a per-image failure with the source path it concerns.
type ImageError struct {
	Kind error
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Kind }

func loadError(path string, cause error) error {
	return &ImageError{Kind: ErrImageLoad, Path: path, Err: cause}
}

func encodeError(path string, cause error) error {
	return &ImageError{Kind: ErrImageEncode, Path: path, Err: cause}
}

// WriteError wraps a failure to produce the destination document.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrDocumentWrite, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return ErrDocumentWrite }
