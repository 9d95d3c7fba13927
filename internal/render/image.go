package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned for payloads that are not JPEG, PNG, WebP or GIF.
var ErrUnsupportedImage = errors.New("unsupported image type")

// magicBytes maps allowed avatar types to their file signatures.
var magicBytes = map[string][]byte{
	"image/jpeg": {0xFF, 0xD8, 0xFF},
	"image/png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"image/webp": {0x52, 0x49, 0x46, 0x46}, // RIFF....WEBP
	"image/gif":  {0x47, 0x49, 0x46, 0x38}, // GIF8
}

// maxAvatarPixels rejects decompression bombs before decoding.
const maxAvatarPixels = 4096 * 4096

// DetectType sniffs the image type from magic bytes; the upstream
// Content-Type is not trusted.
func DetectType(data []byte) (string, error) {
	if len(data) < 12 {
		return "", fmt.Errorf("%w: data too short", ErrUnsupportedImage)
	}

	switch {
	case bytes.HasPrefix(data, magicBytes["image/jpeg"]):
		return "image/jpeg", nil
	case bytes.HasPrefix(data, magicBytes["image/png"]):
		return "image/png", nil
	case bytes.HasPrefix(data, magicBytes["image/webp"]) && string(data[8:12]) == "WEBP":
		return "image/webp", nil
	case bytes.HasPrefix(data, magicBytes["image/gif"]):
		return "image/gif", nil
	}
	return "", ErrUnsupportedImage
}

// DecodeImage detects and decodes an avatar. Animated GIFs yield their first frame.
func DecodeImage(data []byte) (image.Image, error) {
	mimeType, err := DetectType(data)
	if err != nil {
		return nil, err
	}

	var cfg image.Config
	switch mimeType {
	case "image/jpeg":
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	case "image/png":
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	case "image/webp":
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	case "image/gif":
		cfg, err = gif.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", mimeType, err)
	}
	if cfg.Width*cfg.Height > maxAvatarPixels {
		return nil, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	reader := bytes.NewReader(data)
	var img image.Image
	switch mimeType {
	case "image/jpeg":
		img, err = jpeg.Decode(reader)
	case "image/png":
		img, err = png.Decode(reader)
	case "image/webp":
		img, err = webp.Decode(reader)
	case "image/gif":
		img, err = gif.Decode(reader)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mimeType, err)
	}
	return img, nil
}

// SquareThumbnail center-crops img to a square and scales it to size x size.
func SquareThumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// circle is an anti-aliased disc mask.
type circle struct {
	cx, cy, r float64
}

func (c circle) ColorModel() color.Model { return color.AlphaModel }

func (c circle) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(c.cx-c.r)), int(math.Floor(c.cy-c.r)),
		int(math.Ceil(c.cx+c.r)), int(math.Ceil(c.cy+c.r)),
	)
}

func (c circle) At(x, y int) color.Color {
	d := math.Hypot(float64(x)+0.5-c.cx, float64(y)+0.5-c.cy)
	return color.Alpha{A: coverage(c.r - d)}
}

// roundedRect is an anti-aliased rounded rectangle mask.
type roundedRect struct {
	r      image.Rectangle
	radius float64
}

func (m roundedRect) ColorModel() color.Model { return color.AlphaModel }

func (m roundedRect) Bounds() image.Rectangle { return m.r }

func (m roundedRect) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.r)) {
		return color.Alpha{}
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	minX, minY := float64(m.r.Min.X)+m.radius, float64(m.r.Min.Y)+m.radius
	maxX, maxY := float64(m.r.Max.X)-m.radius, float64(m.r.Max.Y)-m.radius

	cx := math.Max(minX, math.Min(px, maxX))
	cy := math.Max(minY, math.Min(py, maxY))
	if cx == px || cy == py {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{A: coverage(m.radius - math.Hypot(px-cx, py-cy))}
}

func coverage(d float64) uint8 {
	switch {
	case d >= 0.5:
		return 0xff
	case d <= -0.5:
		return 0
	default:
		return uint8((d + 0.5) * 0xff)
	}
}

type stop struct {
	at float64
	c  color.NRGBA
}

// radialGradient fills outward from (cx, cy); stops are positions in [0,1]
// of radius.
type radialGradient struct {
	cx, cy, radius float64
	stops          []stop
}

func (g radialGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g radialGradient) Bounds() image.Rectangle { return infinite }

func (g radialGradient) At(x, y int) color.Color {
	t := math.Hypot(float64(x)-g.cx, float64(y)-g.cy) / g.radius
	return interpolate(g.stops, t)
}

// linearGradient runs from (x0, y0) to (x1, y1).
type linearGradient struct {
	x0, y0, x1, y1 float64
	stops          []stop
}

func (g linearGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g linearGradient) Bounds() image.Rectangle { return infinite }

func (g linearGradient) At(x, y int) color.Color {
	dx, dy := g.x1-g.x0, g.y1-g.y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return g.stops[0].c
	}
	t := ((float64(x)-g.x0)*dx + (float64(y)-g.y0)*dy) / l2
	return interpolate(g.stops, t)
}

var infinite = image.Rect(-1e9, -1e9, 1e9, 1e9)

func interpolate(stops []stop, t float64) color.NRGBA {
	if t <= stops[0].at {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			a, b := stops[i-1], stops[i]
			f := (t - a.at) / (b.at - a.at)
			return color.NRGBA{
				R: lerp(a.c.R, b.c.R, f),
				G: lerp(a.c.G, b.c.G, f),
				B: lerp(a.c.B, b.c.B, f),
				A: lerp(a.c.A, b.c.A, f),
			}
		}
	}
	return stops[len(stops)-1].c
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func hex(s string) color.NRGBA {
	var r, g, b uint8
	fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(a * 0xff))
	return c
}
