package certgen

import (
	"fmt"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
)

// A low resolution thumbnail gives nearly the same hash as the full image.
const blurHashSize = 64

// TemplateInfo is what gets recorded about a template image at upload.
type TemplateInfo struct {
	Width    int
	Height   int
	BlurHash string
}

// InspectTemplate decodes a template image and returns its size and blurhash.
// It fails with ErrDecode for anything the compositor could not render.
func InspectTemplate(templateBytes []byte) (*TemplateInfo, error) {
	img, err := DecodeTemplate(templateBytes)
	if err != nil {
		return nil, err
	}

	thumbnail := imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)

	hash, err := blurhash.Encode(4, 3, thumbnail)
	if err != nil {
		return nil, fmt.Errorf("encode blurhash: %w", err)
	}

	return &TemplateInfo{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		BlurHash: hash,
	}, nil
}
