package certgen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTemplate(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestCompositor(t *testing.T, format Format) *Compositor {
	t.Helper()

	fonts, err := NewFontLoader("")
	require.NoError(t, err)

	cfg := NewDefaultConfig()
	cfg.Format = format
	return NewCompositor(cfg, fonts)
}

func TestCompositorRenderPNG(t *testing.T) {
	c := newTestCompositor(t, FormatPNG)
	tmpl := newTestTemplate(t, 400, 200)

	doc, err := c.Render(tmpl, TextPlacement{PositionX: 50, PositionY: 50}, "Alice Smith")
	require.NoError(t, err)

	assert.Equal(t, "image/png", doc.ContentType)
	assert.Equal(t, ".png", doc.Ext)
	assert.Equal(t, 400, doc.Width)
	assert.Equal(t, 200, doc.Height)

	out, err := png.Decode(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	assert.InDelta(t, 400, out.Bounds().Dx(), 1)
	assert.InDelta(t, 200, out.Bounds().Dy(), 1)

	// Glyphs sit above the baseline at the vertical center.
	assert.True(t, hasDarkPixel(out, image.Rect(120, 60, 280, 100)), "expected the name to be drawn around the center")
	// The corners stay untouched.
	assert.False(t, hasDarkPixel(out, image.Rect(0, 0, 40, 40)))
}

func TestCompositorRenderPDFSinglePage(t *testing.T) {
	c := newTestCompositor(t, FormatPDF)
	tmpl := newTestTemplate(t, 300, 200)

	doc, err := c.Render(tmpl, TextPlacement{PositionX: 50, PositionY: 60, FontColor: "#1a2b3c"}, "Bob")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))

	pages, err := PageCount(doc.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestCompositorRenderWithQRCode(t *testing.T) {
	c := newTestCompositor(t, FormatPNG)
	tmpl := newTestTemplate(t, 800, 600)

	doc, err := c.Render(tmpl, TextPlacement{PositionX: 50, PositionY: 30}, "Carol", WithQRCode("https://certs.example.com/?email=carol%40x.com"))
	require.NoError(t, err)

	out, err := png.Decode(bytes.NewReader(doc.Data))
	require.NoError(t, err)

	size := qrSize(800, 600)
	corner := image.Rect(800-size-qrMarginPx, 600-size-qrMarginPx, 800-qrMarginPx, 600-qrMarginPx)
	assert.True(t, hasDarkPixel(out, corner), "expected a QR code in the bottom-right corner")
}

func TestCompositorDecodeError(t *testing.T) {
	c := newTestCompositor(t, FormatPDF)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Render(tt.data, TextPlacement{}, "Alice")
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestCompositorUnknownFontFallsBack(t *testing.T) {
	c := newTestCompositor(t, FormatPNG)

	_, err := c.Render(newTestTemplate(t, 200, 100), TextPlacement{FontFamily: "No Such Font", FontColor: "not-a-color"}, "Dave")
	assert.NoError(t, err)
}

func TestIsValidColor(t *testing.T) {
	for _, c := range []string{"#000", "#f00a", "#000000", "#A1b2C3", "#00000080"} {
		assert.True(t, IsValidColor(c), c)
	}
	for _, c := range []string{"", "000000", "#12", "#12345", "#GGGGGG", "red"} {
		assert.False(t, IsValidColor(c), c)
	}
}

func TestExpandHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#f00", "#ff0000"},
		{"#f00a", "#ff0000aa"},
		{"#1a2b3c", "#1a2b3c"},
		{" #1a2b3c80 ", "#1a2b3c80"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandHexColor(tt.in))
		})
	}
}

func TestCompositorRenderShortAlphaColor(t *testing.T) {
	c := newTestCompositor(t, FormatPNG)
	assert.Equal(t, FormatPNG, c.Format())

	doc, err := c.Render(newTestTemplate(t, 300, 200), TextPlacement{PositionX: 50, PositionY: 50, FontColor: "#000f"}, "Erin")
	require.NoError(t, err)

	out, err := png.Decode(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	assert.True(t, hasDarkPixel(out, out.Bounds()))
}

func TestRemoveLineBreaks(t *testing.T) {
	assert.Equal(t, "Alice Smith", removeLineBreaks("Alice\r\nSmith\n"))
}

func TestFitFontSize(t *testing.T) {
	fonts, err := NewFontLoader("")
	require.NoError(t, err)
	family, err := fonts.LoadFont("serif")
	require.NoError(t, err)

	long := "Maximilian Alexander Bartholomew Fitzgerald-Worthington"
	size := fitFontSize(family, DefaultFontColor, long, 48, pxToMM(200))
	assert.Less(t, size, 48.0)
	assert.GreaterOrEqual(t, size, float64(minFontSize))

	assert.Equal(t, 48.0, fitFontSize(family, DefaultFontColor, "Al", 48, pxToMM(2000)))
}

func hasDarkPixel(img image.Image, r image.Rectangle) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			if cr < 0x8000 && cg < 0x8000 && cb < 0x8000 {
				return true
			}
		}
	}
	return false
}
