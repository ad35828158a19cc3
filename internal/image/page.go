// Package image loads the rasterized plan page that points are digitized from.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"plan-digitizer/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// ErrOutOfBounds is returned when a page coordinate lies outside the image.
var ErrOutOfBounds = errors.New("coordinate outside page")

// Page is a decoded plan page.
type Page struct {
	Path   string
	Image  image.Image
	Format string  // decoder name: "png", "jpeg" or "tiff"
	DPI    float64 // from TIFF resolution tags, 0 when unknown
}

// Load decodes the page image at path.
func Load(path string) (*Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}

	page := &Page{Path: path, Image: img, Format: format}
	if format == "tiff" {
		if dpi, err := tiffDPI(file); err == nil {
			page.DPI = dpi
		}
	}
	return page, nil
}

// Width returns the image width in pixels.
func (p *Page) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *Page) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Contains reports whether pt falls on the page.
func (p *Page) Contains(pt geometry.Point2D) bool {
	if p.Image == nil {
		return false
	}
	b := p.Image.Bounds()
	return pt.X >= float64(b.Min.X) && pt.X < float64(b.Max.X) &&
		pt.Y >= float64(b.Min.Y) && pt.Y < float64(b.Max.Y)
}

// CheckClicks returns an error wrapping ErrOutOfBounds for the first point not on the page.
func (p *Page) CheckClicks(pts ...geometry.Point2D) error {
	for _, pt := range pts {
		if !p.Contains(pt) {
			return fmt.Errorf("%w: (%.1f, %.1f) on %dx%d page", ErrOutOfBounds, pt.X, pt.Y, p.Width(), p.Height())
		}
	}
	return nil
}

// Inches converts a pixel distance to inches when the resolution is known.
func (p *Page) Inches(pixels float64) float64 {
	if p.DPI == 0 {
		return 0
	}
	return pixels / p.DPI
}

// tiffDPI reads the XResolution/YResolution/ResolutionUnit tags of the first IFD.
func tiffDPI(r io.ReaderAt) (float64, error) {
	header := make([]byte, 8)
	if _, err := r.ReadAt(header, 0); err != nil {
		return 0, err
	}
	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifd := int64(order.Uint32(header[4:8]))
	countBuf := make([]byte, 2)
	if _, err := r.ReadAt(countBuf, ifd); err != nil {
		return 0, err
	}
	entries := int(order.Uint16(countBuf))

	rational := func(off int64) float64 {
		buf := make([]byte, 8)
		if _, err := r.ReadAt(buf, off); err != nil {
			return 0
		}
		num, den := order.Uint32(buf[:4]), order.Uint32(buf[4:])
		if den == 0 {
			return 0
		}
		return float64(num) / float64(den)
	}

	var xRes, yRes float64
	unit := uint16(2) // inches
	entry := make([]byte, 12)
	for i := 0; i < entries; i++ {
		if _, err := r.ReadAt(entry, ifd+2+int64(i)*12); err != nil {
			return 0, err
		}
		tag, typ := order.Uint16(entry[0:2]), order.Uint16(entry[2:4])
		switch {
		case tag == 282 && typ == 5:
			xRes = rational(int64(order.Uint32(entry[8:12])))
		case tag == 283 && typ == 5:
			yRes = rational(int64(order.Uint32(entry[8:12])))
		case tag == 296 && typ == 3:
			unit = order.Uint16(entry[8:10])
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if unit == 3 { // centimetres
		dpi *= 2.54
	}
	return dpi, nil
}

// SupportedFormats returns the page image extensions Load understands.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks the extension of path.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
