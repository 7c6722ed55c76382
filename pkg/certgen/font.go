package certgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// Generic CSS families resolve to embedded fonts when no installed font
// carries that name.
var genericFamilies = map[string][]byte{
	"serif":      lmroman10regular.TTF,
	"sans-serif": goregular.TTF,
	"monospace":  gomono.TTF,
}

const fallbackFamily = "serif"

type FontMetadata struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	font, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := font.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	return &FontMetadata{
		Name: name,
		Path: fontPath,
	}, nil
}

// Scan through the directory to process .ttf and .otf files.
func ScanFontDir(dir string, logger *zap.SugaredLogger) ([]FontMetadata, error) {
	var fonts []FontMetadata

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			if logger != nil {
				logger.Warnf("Skipping %q: %v", path, err)
			}
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fonts, nil
}

// List the available font family and its path. A missing metadata file is
// not an error, generation then only uses the embedded fonts.
func GetAvailableFonts(path string) ([]*FontMetadata, error) {
	var fonts []*FontMetadata

	if path == "" {
		return fonts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fonts, nil
		}
		return fonts, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fonts); err != nil {
		return fonts, fmt.Errorf("unmarshalling %s: %w", path, err)
	}

	return fonts, nil
}

// FontLoader resolves a family name to a loaded canvas font family. Loaded
// families are cached and shared between renders.
type FontLoader struct {
	AvailableFonts []*FontMetadata

	mu       sync.Mutex
	families map[string]*canvas.FontFamily
}

func NewFontLoader(metadataPath string) (*FontLoader, error) {
	fonts, err := GetAvailableFonts(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load font metadata: %w", err)
	}

	return &FontLoader{
		AvailableFonts: fonts,
		families:       make(map[string]*canvas.FontFamily),
	}, nil
}

func (fl *FontLoader) GetAvailableFontMetadataByName(fontName string) (*FontMetadata, error) {
	for _, font := range fl.AvailableFonts {
		if strings.EqualFold(font.Name, fontName) {
			return font, nil
		}
	}
	return nil, fmt.Errorf("font %s not found", fontName)
}

// LoadFont never fails for unknown names: it falls back to the embedded serif face.
func (fl *FontLoader) LoadFont(fontName string) (*canvas.FontFamily, error) {
	key := strings.ToLower(strings.TrimSpace(fontName))
	if key == "" {
		key = fallbackFamily
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if family, ok := fl.families[key]; ok {
		return family, nil
	}

	family, err := fl.loadFamily(key)
	if err != nil {
		return nil, err
	}

	fl.families[key] = family
	return family, nil
}

func (fl *FontLoader) loadFamily(key string) (*canvas.FontFamily, error) {
	if meta, err := fl.GetAvailableFontMetadataByName(key); err == nil {
		family := canvas.NewFontFamily(meta.Name)
		if err := family.LoadFontFile(meta.Path, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("failed to load font file %s: %w", meta.Path, err)
		}
		return family, nil
	}

	data, ok := genericFamilies[key]
	if !ok {
		key = fallbackFamily
		data = genericFamilies[fallbackFamily]
	}

	family := canvas.NewFontFamily(key)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("failed to load embedded font %s: %w", key, err)
	}
	return family, nil
}
