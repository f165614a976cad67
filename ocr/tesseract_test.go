//go:build ocr

package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// testImage draws a simple black rectangle on white; OCR may or may not
// find text in it, which is fine for exercising the call path.
func testImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	for y := 20; y < 40; y++ {
		for x := 20; x < 120; x++ {
			img.SetGray(x, y, color.Gray{})
		}
	}
	return img
}

func TestNewTesseract(t *testing.T) {
	engine, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer engine.Close()

	if engine.Name() != "tesseract" {
		t.Errorf("Name() = %q", engine.Name())
	}
}

func TestTesseract_Recognize(t *testing.T) {
	engine, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer engine.Close()

	result, err := engine.Recognize(context.Background(), Input{Image: testImage()})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	// A featureless rectangle should produce little or no text; the point
	// is that the call completes and confidences stay in range.
	for _, w := range result.Words {
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("word %q confidence %v out of [0,1]", w.Text, w.Confidence)
		}
	}
}

func TestTesseract_RecognizeNilImage(t *testing.T) {
	engine, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Recognize(context.Background(), Input{}); err == nil {
		t.Error("Recognize() with nil image should error")
	}
}

func TestTesseract_CancelledContext(t *testing.T) {
	engine, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Recognize(ctx, Input{Image: testImage()}); err == nil {
		t.Error("Recognize() with cancelled context should error")
	}
}
