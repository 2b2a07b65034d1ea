package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrImageDecode matches every *ImageDecodeError via errors.Is.
	ErrImageDecode = errors.New("image decode failed")
	// ErrRecognitionEngine matches every *RecognitionEngineError via errors.Is.
	ErrRecognitionEngine = errors.New("recognition engine failed")
	// ErrEmptyImage is the cause reported when the caller passes no bytes.
	ErrEmptyImage = errors.New("empty image buffer")
)

// ImageDecodeError is returned when the input buffer cannot be interpreted as an image.
type ImageDecodeError struct {
	Format string // sniffed container, e.g. "pdf", "heic", "image"
	Err    error
}

func (e *ImageDecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

func (e *ImageDecodeError) Is(target error) bool { return target == ErrImageDecode }

// RecognitionEngineError wraps any failure of the external text recognition engine.
// It is never retried inside this package.
type RecognitionEngineError struct {
	Op  string
	Err error
}

func (e *RecognitionEngineError) Error() string {
	return fmt.Sprintf("recognition engine %s: %v", e.Op, e.Err)
}

func (e *RecognitionEngineError) Unwrap() error { return e.Err }

func (e *RecognitionEngineError) Is(target error) bool { return target == ErrRecognitionEngine }
