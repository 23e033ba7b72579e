package core

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/hctony/barcode/config"

	"github.com/boombuler/barcode/datamatrix"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Encoder turns a payload into a module bitmap, one pixel per module.
type Encoder interface {
	Encode(content string) (image.Image, error)
}

// DataMatrixEncoder encodes ECC200 Data Matrix symbols.
type DataMatrixEncoder struct{}

func (DataMatrixEncoder) Encode(content string) (image.Image, error) {
	code, err := datamatrix.Encode(content)
	if err != nil {
		return nil, err
	}
	return code, nil
}

// QRCodeEncoder encodes QR symbols at a fixed medium recovery level.
type QRCodeEncoder struct{}

func (QRCodeEncoder) Encode(content string) (image.Image, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	// quiet zone is added by the renderer
	q.DisableBorder = true

	bitmap := q.Bitmap()
	img := image.NewGray(image.Rect(0, 0, len(bitmap), len(bitmap)))
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				img.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return img, nil
}

// NewEncoder returns the encoder for a symbology.
func NewEncoder(s config.Symbology) (Encoder, error) {
	switch s {
	case config.SymbologyDataMatrix, "":
		return DataMatrixEncoder{}, nil
	case config.SymbologyQRCode:
		return QRCodeEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported symbology: %s", s)
	}
}

// LabelRenderer produces the image file for one code.
// Implementations must be safe for concurrent use.
type LabelRenderer interface {
	Generate(code int64, tagged bool) (string, error)
}

// SymbolGenerator renders framed barcode PNGs into a directory.
type SymbolGenerator struct {
	Stock     *config.StockConfig
	OutputDir string
	Encoder   Encoder

	faceOnce sync.Once
	faceMu   sync.Mutex
	face     font.Face
}

// NewSymbolGenerator creates a generator for the stock's symbology.
func NewSymbolGenerator(stock *config.StockConfig, outputDir string) (*SymbolGenerator, error) {
	enc, err := NewEncoder(stock.Symbology)
	if err != nil {
		return nil, err
	}
	return &SymbolGenerator{
		Stock:     stock,
		OutputDir: outputDir,
		Encoder:   enc,
	}, nil
}

// FileName returns the deterministic image name for a code.
func (g *SymbolGenerator) FileName(code int64, tagged bool) string {
	symbology := g.Stock.Symbology
	if symbology == "" {
		symbology = config.SymbologyDataMatrix
	}
	suffix := ""
	if tagged {
		suffix = "_t"
	}
	return fmt.Sprintf("%s_%d%s.png", symbology, code, suffix)
}

// Generate renders code and writes it to OutputDir, overwriting any previous file.
func (g *SymbolGenerator) Generate(code int64, tagged bool) (string, error) {
	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	img, err := g.Render(code, tagged)
	if err != nil {
		return "", err
	}

	path := filepath.Join(g.OutputDir, g.FileName(code, tagged))
	if err := writePNG(path, img, g.Stock.DPI); err != nil {
		return "", fmt.Errorf("failed to write image for code %d: %w", code, err)
	}
	slog.Debug("Label image written", "code", code, "tagged", tagged, "path", path)
	return path, nil
}

// Render builds the bordered label image in memory.
func (g *SymbolGenerator) Render(code int64, tagged bool) (*image.RGBA, error) {
	sym, err := g.Encoder.Encode(strconv.FormatInt(code, 10))
	if err != nil {
		return nil, fmt.Errorf("encode code %d: %w", code, err)
	}

	// Quiet zone
	q := g.Stock.QuietModules
	sb := sym.Bounds()
	padded := image.NewGray(image.Rect(0, 0, sb.Dx()+2*q, sb.Dy()+2*q))
	draw.Draw(padded, padded.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(padded, image.Rect(q, q, q+sb.Dx(), q+sb.Dy()), sym, sb.Min, draw.Src)

	// Nearest-neighbour keeps modules strictly black and white
	size := g.Stock.ImagePx
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), padded, padded.Bounds(), draw.Src, nil)

	border := g.Stock.BorderPx
	side := g.Stock.CanvasPx()
	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(border, border, border+size, border+size), scaled, image.Point{}, draw.Src)

	strokeRect(canvas, image.Rect(1, 1, side-1, side-1), color.Black)

	if tagged {
		g.drawTag(canvas)
	}
	return canvas, nil
}

// strokeRect draws a 1px outline along the inner edge of r.
func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTag writes "T" with its top-left corner 10px from the right edge.
func (g *SymbolGenerator) drawTag(img *image.RGBA) {
	g.faceOnce.Do(func() {
		g.face = loadTagFace(g.Stock.Font, g.Stock.FontSize)
	})

	// opentype faces are not safe for concurrent use
	g.faceMu.Lock()
	defer g.faceMu.Unlock()

	side := img.Bounds().Dx()
	ascent := g.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: g.face,
		Dot:  fixed.P(side-10, 2+ascent),
	}
	d.DrawString("T")
}
