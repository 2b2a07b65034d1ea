package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/ocr"
)

// Writes the binarized image the recognizer would see next to the input as <name>.ocr.png.
func main() {
	in := flag.String("file", "", "receipt image to normalize")
	out := flag.String("out", "", "output path (default <file>.ocr.png)")
	flag.Parse()
	if *in == "" {
		log.Fatalf("-file required")
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	img, err := ocr.Decode(data)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	fp, err := fingerprint.Compute(img)
	if err != nil {
		log.Fatalf("fingerprint: %v", err)
	}
	norm := ocr.Normalize(img)

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(*in, filepath.Ext(*in)) + ".ocr.png"
	}
	if err := imaging.Save(norm, dst); err != nil {
		log.Fatalf("save: %v", err)
	}
	b := norm.Bounds()
	fmt.Printf("wrote %s size=%dx%d image_hash=%s\n", dst, b.Dx(), b.Dy(), fp)
}
