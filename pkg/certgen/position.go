package certgen

/*
 * Attention: tdewolff/canvas uses mm as the unit of measurement. Everything in this package takes px
 * and converts to mm when talking to the canvas. At 72 DPI one px is one PDF point.
 */

const DPI = 72

// Converts pixels to millimeters
func pxToMM(px float64) float64 {
	return (px * 25.4) / DPI
}

// NamePosition converts the percentage placement into absolute pixels of a
// width x height raster, origin at the top-left corner.
func NamePosition(placement TextPlacement, width, height int) (float64, float64) {
	x := (placement.PositionX / 100) * float64(width)
	y := (placement.PositionY / 100) * float64(height)
	return x, y
}
