// Package fingerprint computes perceptual hashes of receipt images and finds
// near-duplicates among previously ingested ones.
package fingerprint

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"

	"receiptscan/pkg/ocr"
)

// Bits is the width of a Fingerprint.
const Bits = 64

// Fingerprint is a 64-bit DCT perceptual hash. Visually near-identical images produce
// fingerprints a few bits apart; it cannot be inverted to the image.
type Fingerprint uint64

// Compute hashes img. It must be the image as photographed, before binarization.
func Compute(img image.Image) (Fingerprint, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return Fingerprint(h.GetHash()), nil
}

// ComputeBytes decodes data and hashes it. Decode failures are *ocr.ImageDecodeError.
func ComputeBytes(data []byte) (Fingerprint, error) {
	img, err := ocr.Decode(data)
	if err != nil {
		return 0, err
	}
	return Compute(img)
}

// String renders the fingerprint as 16 lower-case hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse reads the hex form produced by String. The "p:" prefix written by
// goimagehash's ToString is accepted too.
func Parse(s string) (Fingerprint, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "p:")
	if s == "" || len(s) > Bits/4 {
		return 0, fmt.Errorf("fingerprint %q: want 1-%d hex digits", s, Bits/4)
	}
	v, err := strconv.ParseUint(s, 16, Bits)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Distance is the number of differing bits between a and b.
func Distance(a, b Fingerprint) int {
	ha := goimagehash.NewImageHash(uint64(a), goimagehash.PHash)
	hb := goimagehash.NewImageHash(uint64(b), goimagehash.PHash)
	d, _ := ha.Distance(hb) // same kind, cannot fail
	return d
}
