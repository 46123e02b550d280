// Package preview turns raw image bytes into something a terminal can show.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// thumbMaxWidth bounds the retained thumbnail; the original pixels are dropped
const thumbMaxWidth = 96

// DefaultMaxPixels bounds the width*height an image header may declare
const DefaultMaxPixels int64 = 40_000_000

var (
	// ErrEmpty is returned for zero-length input
	ErrEmpty = errors.New("image is empty")
	// ErrTooLarge is returned when the header declares more pixels than allowed
	ErrTooLarge = errors.New("too many pixels")
)

// Image is a decoded, previewable picture
type Image struct {
	Width  int
	Height int
	Format string

	thumb *image.RGBA

	mu    sync.Mutex
	cache map[int]string
}

// Decode reads data into a previewable Image, allowing up to DefaultMaxPixels
func Decode(data []byte) (*Image, error) {
	return DecodeLimited(data, DefaultMaxPixels)
}

// DecodeLimited reads data into a previewable Image. The header is checked
// against maxPixels before any pixel data is allocated.
func DecodeLimited(data []byte, maxPixels int64) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmpty
	}
	if int64(cfg.Width) > maxPixels/int64(cfg.Height) {
		return nil, fmt.Errorf("%w: %d×%d exceeds %d", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrEmpty
	}

	return &Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		thumb:  scale(src, thumbMaxWidth),
		cache:  make(map[int]string),
	}, nil
}

// Describe returns a short human description, e.g. "png 640×480"
func (img *Image) Describe() string {
	if img == nil {
		return ""
	}
	return fmt.Sprintf("%s %d×%d", img.Format, img.Width, img.Height)
}

// Render draws the image with half-block cells, width cells wide
func (img *Image) Render(width int) string {
	if img == nil || width <= 0 {
		return ""
	}

	img.mu.Lock()
	defer img.mu.Unlock()
	if out, ok := img.cache[width]; ok {
		return out
	}

	px := scale(img.thumb, width)
	b := px.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := px.RGBAAt(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = px.RGBAAt(x, y+1)
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(hex(top)).
				Background(hex(bottom)).
				Render("▀"))
		}
	}

	out := sb.String()
	img.cache[width] = out
	return out
}

// scale resizes src to width pixels keeping aspect ratio
func scale(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	if width > b.Dx() {
		width = b.Dx()
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
