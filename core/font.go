package core

import (
	"log/slog"
	"os"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// loadTagFace returns a face for the tag glyph, falling back to the built-in
// bitmap font when the named font cannot be found or parsed.
func loadTagFace(name string, size float64) font.Face {
	if name == "" {
		return basicfont.Face7x13
	}
	if size <= 0 {
		size = 12
	}

	path, ok := findFont(name)
	if !ok {
		slog.Debug("Tag font not found, using built-in glyphs", "font", name)
		return basicfont.Face7x13
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("Tag font unreadable, using built-in glyphs", "font", path, "error", err)
		return basicfont.Face7x13
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		slog.Debug("Tag font invalid, using built-in glyphs", "font", path, "error", err)
		return basicfont.Face7x13
	}
	// 72 DPI makes Size a pixel size
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		slog.Debug("Tag font face failed, using built-in glyphs", "font", path, "error", err)
		return basicfont.Face7x13
	}
	return face
}

// findFont resolves a font by path, then by file name in the user and system font directories.
func findFont(name string) (string, bool) {
	path, err := findfont.Find(name)
	if err != nil {
		return "", false
	}
	return path, true
}
