package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math"
	"os"
)

// signature(8) + IHDR length(4) + type(4) + data(13) + crc(4)
const pngHeaderEnd = 33

// writePNG encodes img as PNG with a pHYs chunk so the pixel size maps to
// a physical size when the image is printed.
func writePNG(path string, img image.Image, dpi int) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	data, err := withPhysChunk(buf.Bytes(), dpi)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// withPhysChunk inserts a pHYs chunk directly after IHDR.
func withPhysChunk(data []byte, dpi int) ([]byte, error) {
	if len(data) < pngHeaderEnd || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("png stream has no leading IHDR chunk")
	}

	ppm := pixelsPerMeter(dpi)
	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = 1 // unit: meter
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:pngHeaderEnd]...)
	out = append(out, chunk...)
	out = append(out, data[pngHeaderEnd:]...)
	return out, nil
}

func pixelsPerMeter(dpi int) uint32 {
	return uint32(math.Round(float64(dpi) / 0.0254))
}
