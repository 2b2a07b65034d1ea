package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig carries everything the engine needs from its environment.
type TesseractConfig struct {
	// TessdataPrefix is the directory holding the traineddata files; empty uses the
	// library default (TESSDATA_PREFIX or the compiled-in path).
	TessdataPrefix string
	// Languages defaults to "eng".
	Languages []string
	// Whitelist restricts recognized characters when non-empty.
	Whitelist string
}

// Tesseract is an Engine backed by libtesseract through gosseract.
// A fresh client is created per call, so a Tesseract is safe for concurrent use.
// Cancelling the context makes Recognize return at once, but the native call cannot be
// interrupted: it runs to completion in the background and keeps its CPU until then.
type Tesseract struct {
	cfg TesseractConfig
}

func NewTesseract(cfg TesseractConfig) *Tesseract {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Tesseract{cfg: cfg}
}

func (t *Tesseract) Recognize(ctx context.Context, img []byte, mode Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RecognitionEngineError{Op: "recognize", Err: err}
	}
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := t.run(img, mode)
		done <- result{text, err}
	}()
	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		// the client finishes in the background and closes itself
		return "", &RecognitionEngineError{Op: "recognize", Err: ctx.Err()}
	}
}

func (t *Tesseract) run(img []byte, mode Mode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", &RecognitionEngineError{Op: "tessdata", Err: err}
		}
	}
	if err := client.SetLanguage(t.cfg.Languages...); err != nil {
		return "", &RecognitionEngineError{Op: "language", Err: err}
	}
	if t.cfg.Whitelist != "" {
		if err := client.SetWhitelist(t.cfg.Whitelist); err != nil {
			return "", &RecognitionEngineError{Op: "whitelist", Err: err}
		}
	}
	if err := client.SetPageSegMode(pageSegMode(mode)); err != nil {
		return "", &RecognitionEngineError{Op: "psm", Err: err}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", &RecognitionEngineError{Op: "image", Err: err}
	}
	text, err := client.Text()
	if err != nil {
		return "", &RecognitionEngineError{
			Op:  "text",
			Err: fmt.Errorf("langs=%s: %w", strings.Join(t.cfg.Languages, "+"), err),
		}
	}
	return text, nil
}

func pageSegMode(m Mode) gosseract.PageSegMode {
	switch m {
	case ModeSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case ModeSparseText:
		return gosseract.PSM_SPARSE_TEXT
	}
	return gosseract.PSM_SINGLE_BLOCK
}
