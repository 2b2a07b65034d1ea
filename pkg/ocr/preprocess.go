package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// FixedThreshold is the cutoff used when automatic selection has nothing to separate,
// i.e. the image holds a single gray level.
const FixedThreshold uint8 = 150

// Normalize converts img to a single-channel image whose pixels are either 0 (ink) or
// 255 (paper). The threshold is chosen with Otsu's method so that strokes separate from
// the background regardless of lighting.
func Normalize(img image.Image) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	th := FixedThreshold
	if t, ok := otsuThreshold(histogram(gray)); ok {
		th = t
	}
	return binarize(gray, th)
}

// NormalizeBytes decodes data and normalizes it.
func NormalizeBytes(data []byte) (*image.Gray, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(img), nil
}

func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			// channels are equal after imaging.Grayscale
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}

func histogram(img *image.Gray) [256]int {
	var h [256]int
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+b.Dx()] {
			h[v]++
		}
	}
	return h
}

// otsuThreshold returns the level maximizing between-class variance. ok is false when
// fewer than two levels are populated.
func otsuThreshold(hist [256]int) (uint8, bool) {
	total, levels := 0, 0
	var sum float64
	for i, c := range hist {
		if c > 0 {
			levels++
		}
		total += c
		sum += float64(i * c)
	}
	if levels < 2 {
		return 0, false
	}
	var (
		sumB float64
		wB   int
		best = -1.0
		th   uint8
	)
	for i := 0; i < 256; i++ {
		wB += hist[i]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * hist[i])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			th = uint8(i)
		}
	}
	return th, true
}

// binarize maps every pixel strictly above threshold to white and the rest to black.
func binarize(img *image.Gray, threshold uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for i, v := range img.Pix {
		if v > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}
