package image

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"plan-digitizer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func blank(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetGray(1, 1, color.Gray{Y: 0})
	return img
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, blank(40, 20)))
	require.NoError(t, f.Close())

	page, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", page.Format)
	assert.Equal(t, 40, page.Width())
	assert.Equal(t, 20, page.Height())
	assert.Zero(t, page.DPI)
	assert.Zero(t, page.Inches(100))

	assert.True(t, page.Contains(geometry.Point2D{X: 0, Y: 0}))
	assert.True(t, page.Contains(geometry.Point2D{X: 39.5, Y: 19.5}))
	assert.False(t, page.Contains(geometry.Point2D{X: 40, Y: 0}))
	assert.NoError(t, page.CheckClicks(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 30, Y: 10}))
	assert.ErrorIs(t, page.CheckClicks(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: -1, Y: 10}), ErrOutOfBounds)
}

func TestLoadTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, blank(16, 8), nil))
	require.NoError(t, f.Close())

	page, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiff", page.Format)
	assert.Equal(t, 16, page.Width())
	// The encoder writes 72 dpi resolution tags.
	assert.InDelta(t, 72, page.DPI, 1e-9)
	assert.InDelta(t, 1, page.Inches(72), 1e-9)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "decode")
}

// resolutionTIFF builds a little-endian header with one IFD holding XResolution and
// ResolutionUnit.
func resolutionTIFF(num, den uint32, unit uint16) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("II")
	_ = binary.Write(&b, le, uint16(42))
	_ = binary.Write(&b, le, uint32(8))
	_ = binary.Write(&b, le, uint16(2))
	rationalAt := uint32(8 + 2 + 2*12 + 4)
	_ = binary.Write(&b, le, []uint16{282, 5})
	_ = binary.Write(&b, le, []uint32{1, rationalAt})
	_ = binary.Write(&b, le, []uint16{296, 3})
	_ = binary.Write(&b, le, uint32(1))
	_ = binary.Write(&b, le, []uint16{unit, 0})
	_ = binary.Write(&b, le, uint32(0))
	_ = binary.Write(&b, le, []uint32{num, den})
	return b.Bytes()
}

func TestTIFFDPI(t *testing.T) {
	dpi, err := tiffDPI(bytes.NewReader(resolutionTIFF(600, 2, 2)))
	require.NoError(t, err)
	assert.Equal(t, 300.0, dpi)

	dpi, err = tiffDPI(bytes.NewReader(resolutionTIFF(100, 1, 3)))
	require.NoError(t, err)
	assert.InDelta(t, 254.0, dpi, 1e-9)

	_, err = tiffDPI(bytes.NewReader([]byte("XX\x00\x00\x00\x00\x00\x00")))
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("sheet.TIF"))
	assert.True(t, IsSupportedFormat("sheet.jpeg"))
	assert.False(t, IsSupportedFormat("sheet.pdf"))
}
