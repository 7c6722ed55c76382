package certgen

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/tdewolff/canvas"
)

const qrMarginPx = 16

// qrSize picks an eighth of the shortest template side, never below 64px.
func qrSize(width, height int) int {
	size := min(width, height) / 8
	return max(size, 64)
}

func drawQRCode(ctx *canvas.Context, content string, width, height int) error {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	size := qrSize(width, height)
	img := q.Image(size)

	// Bottom-right corner, canvas y grows upwards.
	x := float64(width - size - qrMarginPx)
	y := float64(qrMarginPx)
	ctx.DrawImage(pxToMM(x), pxToMM(y), img, canvas.DPI(DPI))

	return nil
}
