package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp"
)

// Decode interprets a receipt buffer as an image. Phone photos are rotated according to
// their EXIF orientation, HEIC/HEIF photos and scanned PDFs (first page) are supported in
// addition to the formats registered with the image package.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &ImageDecodeError{Err: ErrEmptyImage}
	}
	switch sniffFormat(data) {
	case "pdf":
		img, err := decodePDF(data)
		if err != nil {
			return nil, &ImageDecodeError{Format: "pdf", Err: err}
		}
		return img, nil
	case "heic":
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &ImageDecodeError{Format: "heic", Err: err}
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageDecodeError{Format: "image", Err: err}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &ImageDecodeError{Format: "image", Err: fmt.Errorf("zero-sized image %dx%d", b.Dx(), b.Dy())}
	}
	return img, nil
}

// decodePDF renders the first page; receipts are single page.
func decodePDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return img, nil
}

func sniffFormat(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "pdf"
	}
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		switch string(data[8:12]) {
		case "heic", "heix", "heif", "mif1", "msf1":
			return "heic"
		}
	}
	return "image"
}
