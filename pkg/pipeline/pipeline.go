// Package pipeline runs one receipt image through normalization, text recognition, field
// extraction and duplicate detection. It keeps no state between calls.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/ocr"
	"receiptscan/pkg/receipt"
)

// Refiner is an optional cleanup step that proposes field values from the raw text.
type Refiner interface {
	Refine(ctx context.Context, rawText string) (receipt.Suggestion, error)
}

// Config wires the pipeline's collaborators. Engine is required.
type Config struct {
	Engine    ocr.Engine
	Extractor *receipt.Extractor // defaults to receipt.NewExtractor()
	Refiner   Refiner            // optional
	Logger    *slog.Logger       // defaults to slog.Default()
	Metrics   *Metrics           // optional
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	text    *ocr.TextExtractor
	fields  *receipt.Extractor
	refiner Refiner
	log     *slog.Logger
	metrics *Metrics
}

func New(cfg Config) *Pipeline {
	p := &Pipeline{
		text:    ocr.NewTextExtractor(cfg.Engine),
		fields:  cfg.Extractor,
		refiner: cfg.Refiner,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
	if p.fields == nil {
		p.fields = receipt.NewExtractor()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Ingest processes one encoded receipt image. history must already be scoped to the
// receipt's owner; it is only read. The returned error is either *ocr.ImageDecodeError
// or *ocr.RecognitionEngineError; every other uncertainty ends up as a default value.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, history []fingerprint.HistoryEntry) (Record, error) {
	start := time.Now()
	img, err := ocr.Decode(data)
	p.metrics.observeStage("decode", start)
	if err != nil {
		p.metrics.finish("decode_error", false)
		return Record{}, err
	}

	start = time.Now()
	fp, err := fingerprint.Compute(img)
	p.metrics.observeStage("fingerprint", start)
	if err != nil {
		p.metrics.finish("decode_error", false)
		return Record{}, &ocr.ImageDecodeError{Format: "fingerprint", Err: err}
	}

	start = time.Now()
	norm := ocr.Normalize(img)
	p.metrics.observeStage("normalize", start)

	start = time.Now()
	text, err := p.text.Extract(ctx, norm)
	p.metrics.observeStage("recognize", start)
	if err != nil {
		p.metrics.finish("engine_error", false)
		return Record{}, err
	}

	start = time.Now()
	fields := p.fields.Extract(text)
	p.metrics.observeStage("extract", start)
	fields = p.refine(ctx, text, fields)

	start = time.Now()
	verdict := fingerprint.Detect(fp, history)
	p.metrics.observeStage("detect", start)

	p.log.Debug("receipt ingested",
		"merchant", fields.Merchant,
		"amount", fields.Amount.StringFixed(2),
		"category", fields.Category,
		"image_hash", fp.String(),
		"duplicate", verdict.IsDuplicate,
		"text", ocr.Snippet(text, 120),
	)
	p.metrics.finish("ok", verdict.IsDuplicate)
	return Record{Fields: fields, Verdict: verdict, Fingerprint: fp, RawText: text}, nil
}

// refine overlays refiner suggestions. A failing refiner leaves the heuristic fields.
func (p *Pipeline) refine(ctx context.Context, text string, fields receipt.Fields) receipt.Fields {
	if p.refiner == nil {
		return fields
	}
	start := time.Now()
	s, err := p.refiner.Refine(ctx, text)
	p.metrics.observeStage("refine", start)
	if err != nil {
		p.log.Warn("refine failed, keeping heuristic fields", "error", err)
		p.metrics.refined("error")
		return fields
	}
	p.metrics.refined("ok")
	return receipt.Merge(fields, s)
}
