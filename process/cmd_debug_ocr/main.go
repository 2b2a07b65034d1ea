package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"receiptscan/pkg/ocr"
	"receiptscan/pkg/receipt"
)

func main() {
	f := flag.String("file", "", "image file to OCR")
	tessdata := flag.String("tessdata", "", "tessdata directory")
	lang := flag.String("lang", "eng", "tesseract languages")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	gray, err := ocr.NormalizeBytes(mustRead(*f))
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	te := ocr.NewTextExtractor(ocr.NewTesseract(ocr.TesseractConfig{TessdataPrefix: *tessdata, Languages: strings.Split(*lang, "+")}))
	text, err := te.Extract(context.Background(), gray)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Printf("--- raw text ---\n%s\n--- fields ---\n", text)
	if tok, ok := receipt.FindDateToken(text); ok {
		fmt.Printf("date token=%q\n", tok)
	}
	fmt.Printf("amount candidates=%v\n", receipt.FindAmounts(text))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(receipt.NewExtractor().Extract(text)); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func mustRead(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	return data
}
