package extract

import (
	"errors"
	"image"
	"testing"

	"github.com/tsawler/lectern/model"
)

type failingText struct{}

func (failingText) TextLayer() (string, error)   { return "", errors.New("read error") }
func (failingText) Raster() (image.Image, error) { return nil, model.ErrNoRaster }
func (failingText) Bounds() (float64, float64)   { return model.LetterWidth, model.LetterHeight }

func TestNative(t *testing.T) {
	page := &model.Page{Index: 2, Content: &model.TextContent{Text: "Some body text.\n"}}

	result, err := Native(page)
	if err != nil {
		t.Fatalf("Native() error = %v", err)
	}
	if result.PageIndex != 2 {
		t.Errorf("PageIndex = %d, want 2", result.PageIndex)
	}
	if result.Method != model.MethodNative {
		t.Errorf("Method = %v, want native", result.Method)
	}
	if result.Text != "Some body text." {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Confidence != 0 {
		t.Errorf("native results carry no confidence, got %v", result.Confidence)
	}
}

func TestNative_Empty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &model.Page{Content: &model.TextContent{Text: tt.text}}
			_, err := Native(page)
			if !errors.Is(err, ErrExtractionEmpty) {
				t.Errorf("Native() error = %v, want ErrExtractionEmpty", err)
			}
		})
	}
}

func TestNative_NoTextLayer(t *testing.T) {
	page := &model.Page{Content: &model.ImageContent{Image: image.NewGray(image.Rect(0, 0, 10, 10))}}
	_, err := Native(page)
	if !errors.Is(err, ErrExtractionEmpty) {
		t.Errorf("Native() error = %v, want ErrExtractionEmpty", err)
	}
}

func TestNative_ReadError(t *testing.T) {
	page := &model.Page{Index: 0, Content: failingText{}}
	_, err := Native(page)
	if err == nil || errors.Is(err, ErrExtractionEmpty) {
		t.Errorf("Native() error = %v, want wrapped read error", err)
	}
}
