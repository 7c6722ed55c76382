package certgen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/png"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// Horizontal room kept free on both sides when shrinking a name to fit.
	shrinkMarginPx = 16
	minFontSize    = 8
)

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	hexColor   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// IsValidColor reports whether s is a #rgb, #rrggbb or #rrggbbaa color.
func IsValidColor(s string) bool {
	return hexColor.MatchString(strings.TrimSpace(s))
}

// expandHexColor turns the short #rgb and #rgba forms into #rrggbb and
// #rrggbbaa. s must be a valid color.
func expandHexColor(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 4 && len(s) != 5 {
		return s
	}

	var b strings.Builder
	b.WriteByte('#')
	for _, c := range s[1:] {
		b.WriteRune(c)
		b.WriteRune(c)
	}
	return b.String()
}

// Document is an encoded certificate ready to be stored.
type Document struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

type renderOptions struct {
	qrContent string
}

type RenderOption func(*renderOptions)

// WithQRCode stamps a QR code encoding content in the bottom-right corner.
func WithQRCode(content string) RenderOption {
	return func(o *renderOptions) {
		o.qrContent = content
	}
}

// Compositor draws a participant name onto a template image. It holds no
// per render state and is safe for concurrent use.
type Compositor struct {
	cfg   Config
	fonts *FontLoader
}

func NewCompositor(cfg Config, fonts *FontLoader) *Compositor {
	if cfg.Format == "" {
		cfg.Format = FormatPDF
	}
	return &Compositor{cfg: cfg, fonts: fonts}
}

func (c *Compositor) Format() Format {
	return c.cfg.Format
}

// DecodeTemplate decodes template bytes honouring EXIF orientation.
func DecodeTemplate(templateBytes []byte) (image.Image, error) {
	if len(templateBytes) == 0 {
		return nil, fmt.Errorf("%w: empty template image", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(templateBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: template image has no pixels", ErrDecode)
	}

	return img, nil
}

func (c *Compositor) Render(templateBytes []byte, placement TextPlacement, name string, opts ...RenderOption) (*Document, error) {
	var ro renderOptions
	for _, opt := range opts {
		opt(&ro)
	}

	tmpl, err := DecodeTemplate(templateBytes)
	if err != nil {
		return nil, err
	}

	width, height := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	widthMM, heightMM := pxToMM(float64(width)), pxToMM(float64(height))

	cv := canvas.New(widthMM, heightMM)
	ctx := canvas.NewContext(cv)

	// Canvas origin is bottom-left, the template fills the page.
	ctx.DrawImage(0, 0, tmpl, canvas.DPI(DPI))

	if err := c.drawName(ctx, placement.WithDefaults(), removeLineBreaks(name), width, height); err != nil {
		return nil, err
	}

	if ro.qrContent != "" {
		if err := drawQRCode(ctx, ro.qrContent, width, height); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}

	data, err := c.encode(cv, widthMM, heightMM)
	if err != nil {
		return nil, err
	}

	return &Document{
		Data:        data,
		ContentType: c.cfg.Format.ContentType(),
		Ext:         c.cfg.Format.Ext(),
		Width:       width,
		Height:      height,
	}, nil
}

func (c *Compositor) drawName(ctx *canvas.Context, placement TextPlacement, name string, width, height int) error {
	family, err := c.fonts.LoadFont(placement.FontFamily)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	color := placement.FontColor
	if !IsValidColor(color) {
		color = DefaultFontColor
	}
	color = expandHexColor(color)

	// At 72 DPI a pt is a px, so the configured px size is used as is.
	fontSize := placement.FontSize
	if c.cfg.ShrinkToFit {
		fontSize = fitFontSize(family, color, name, fontSize, pxToMM(float64(width-2*shrinkMarginPx)))
	}

	face := family.Face(fontSize, canvas.Hex(color), canvas.FontRegular, canvas.FontNormal)
	line := canvas.NewTextLine(face, name, canvas.Center)

	x, y := NamePosition(placement, width, height)
	ctx.DrawText(pxToMM(x), pxToMM(float64(height)-y), line)

	return nil
}

// fitFontSize lowers fontSize until name fits in maxWidthMM or minFontSize is reached.
func fitFontSize(family *canvas.FontFamily, color, name string, fontSize, maxWidthMM float64) float64 {
	for fontSize > minFontSize {
		face := family.Face(fontSize, canvas.Hex(color), canvas.FontRegular, canvas.FontNormal)
		if canvas.NewTextLine(face, name, canvas.Left).Bounds().W() <= maxWidthMM {
			break
		}
		fontSize--
	}
	return fontSize
}

func (c *Compositor) encode(cv *canvas.Canvas, widthMM, heightMM float64) ([]byte, error) {
	var buf bytes.Buffer

	switch c.cfg.Format {
	case FormatPNG:
		img := rasterizer.Draw(cv, canvas.DPI(DPI), canvas.DefaultColorSpace)
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	default:
		// Single page at the native pixel size, no margins.
		writer := pdf.New(&buf, widthMM, heightMM, nil)
		cv.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}

	return buf.Bytes(), nil
}

func removeLineBreaks(text string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}
