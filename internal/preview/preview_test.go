package preview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, err := Decode(encodePNG(t, 20, 10))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 20 || img.Height != 10 {
		t.Errorf("unexpected size %dx%d", img.Width, img.Height)
	}
	if img.Format != "png" {
		t.Errorf("expected png, got %s", img.Format)
	}
	if img.Describe() != "png 20×10" {
		t.Errorf("unexpected description %q", img.Describe())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// pngHeader returns a grayscale PNG that declares w×h but carries no pixels
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth, color type 0
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxPixels int64
	}{
		{"forged 20000x20000", pngHeader(20000, 20000), DefaultMaxPixels},
		{"forged 60000x60000", pngHeader(60000, 60000), DefaultMaxPixels},
		{"real image over a small limit", encodePNG(t, 20, 10), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLimited(tt.data, tt.maxPixels)
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("expected ErrTooLarge, got %v", err)
			}
		})
	}
}

func TestDecodeLimitedAllowsExactLimit(t *testing.T) {
	img, err := DecodeLimited(encodePNG(t, 20, 10), 200)
	if err != nil {
		t.Fatalf("DecodeLimited failed: %v", err)
	}
	if img.Width != 20 {
		t.Errorf("unexpected width %d", img.Width)
	}
}

func TestRenderRows(t *testing.T) {
	img, err := Decode(encodePNG(t, 20, 20))
	if err != nil {
		t.Fatal(err)
	}

	out := img.Render(8)
	// 8x8 pixels folded into half-block rows
	if rows := strings.Count(out, "\n") + 1; rows != 4 {
		t.Errorf("expected 4 rows, got %d", rows)
	}
	if strings.Count(out, "▀") != 32 {
		t.Errorf("expected 32 cells, got %d", strings.Count(out, "▀"))
	}
	if img.Render(8) != out {
		t.Error("cached render should be stable")
	}
	if img.Render(0) != "" {
		t.Error("zero width should render nothing")
	}
}
