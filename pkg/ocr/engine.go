package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
)

// Mode is the page layout hint handed to the recognition engine.
type Mode int

const (
	// ModeSingleBlock treats the image as one uniform block of text.
	ModeSingleBlock Mode = iota
	ModeSingleLine
	ModeSparseText
)

func (m Mode) String() string {
	switch m {
	case ModeSingleBlock:
		return "single-block"
	case ModeSingleLine:
		return "single-line"
	case ModeSparseText:
		return "sparse-text"
	}
	return "unknown"
}

// Engine turns an encoded image into UTF-8 text.
type Engine interface {
	Recognize(ctx context.Context, img []byte, mode Mode) (string, error)
}

// TextExtractor hands normalized images to an Engine. It does not touch the engine's output.
type TextExtractor struct {
	engine Engine
	mode   Mode
}

// NewTextExtractor returns an extractor running engine in single-block mode.
func NewTextExtractor(engine Engine) *TextExtractor {
	return &TextExtractor{engine: engine, mode: ModeSingleBlock}
}

// Extract encodes img as PNG and returns the engine's transcription.
// Every failure is reported as *RecognitionEngineError.
func (t *TextExtractor) Extract(ctx context.Context, img *image.Gray) (string, error) {
	if t.engine == nil {
		return "", &RecognitionEngineError{Op: "configure", Err: errors.New("no engine")}
	}
	if img == nil || img.Bounds().Empty() {
		return "", &RecognitionEngineError{Op: "input", Err: errors.New("empty normalized image")}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", &RecognitionEngineError{Op: "encode", Err: err}
	}
	text, err := t.engine.Recognize(ctx, buf.Bytes(), t.mode)
	if err != nil {
		var re *RecognitionEngineError
		if errors.As(err, &re) {
			return "", err
		}
		return "", &RecognitionEngineError{Op: "recognize", Err: err}
	}
	return text, nil
}
