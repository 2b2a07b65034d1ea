package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func receiptLike() *image.NRGBA {
	paper := imaging.New(120, 60, color.NRGBA{230, 225, 220, 255})
	ink := imaging.New(40, 10, color.NRGBA{40, 40, 50, 255})
	return imaging.Paste(paper, ink, image.Pt(20, 25))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeSeparatesInkFromPaper(t *testing.T) {
	out := Normalize(receiptLike())
	if got := out.GrayAt(30, 30).Y; got != 0 {
		t.Fatalf("ink pixel expected 0 got %d", got)
	}
	if got := out.GrayAt(5, 5).Y; got != 255 {
		t.Fatalf("paper pixel expected 255 got %d", got)
	}
	for i, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d not binary: %d", i, v)
		}
	}
}

func TestNormalizeUniformImageUsesFixedCutoff(t *testing.T) {
	light := Normalize(imaging.New(10, 10, color.NRGBA{200, 200, 200, 255}))
	if light.GrayAt(3, 3).Y != 255 {
		t.Fatalf("level above fixed cutoff should become white")
	}
	dark := Normalize(imaging.New(10, 10, color.NRGBA{100, 100, 100, 255}))
	if dark.GrayAt(3, 3).Y != 0 {
		t.Fatalf("level below fixed cutoff should become black")
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	data := encodePNG(t, receiptLike())
	a, err := NormalizeBytes(data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b, err := NormalizeBytes(data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("same bytes produced different normalized images")
	}
}

func TestOtsuThresholdTwoLevels(t *testing.T) {
	var h [256]int
	h[40] = 100
	h[230] = 300
	th, ok := otsuThreshold(h)
	if !ok {
		t.Fatalf("expected threshold")
	}
	if th < 40 || th >= 230 {
		t.Fatalf("threshold %d does not separate 40 from 230", th)
	}
	var single [256]int
	single[128] = 10
	if _, ok := otsuThreshold(single); ok {
		t.Fatalf("single level histogram should not yield a threshold")
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	if !errors.Is(err, ErrImageDecode) || !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected empty image decode error got %v", err)
	}
	_, err = NormalizeBytes([]byte("definitely not pixels"))
	var de *ImageDecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *ImageDecodeError got %T %v", err, err)
	}
	if de.Format != "image" {
		t.Fatalf("format = %q", de.Format)
	}
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(encodePNG(t, receiptLike()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 60 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestSniffFormat(t *testing.T) {
	heicHeader := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	cases := map[string][]byte{
		"pdf":   []byte("%PDF-1.7\n"),
		"heic":  heicHeader,
		"image": []byte{0x89, 'P', 'N', 'G'},
	}
	for want, data := range cases {
		if got := sniffFormat(data); got != want {
			t.Fatalf("sniffFormat = %q want %q", got, want)
		}
	}
}
