package label

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const digitFontSize = 14

// FaceFunc returns a face for one render. truetype faces keep a glyph cache
// and must not be shared between goroutines.
type FaceFunc func() font.Face

// LoadFace parses the TTF at path, or falls back to the built-in 7x13 face
// when path is empty.
func LoadFace(path string) (FaceFunc, error) {
	if strings.TrimSpace(path) == "" {
		return func() font.Face { return basicfont.Face7x13 }, nil
	}

	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	opts := &truetype.Options{
		Size:    digitFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}
	return func() font.Face { return truetype.NewFace(parsed, opts) }, nil
}
