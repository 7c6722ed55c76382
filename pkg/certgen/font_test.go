package certgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/sfnt"
)

func TestGetAvailableFontsMissingFile(t *testing.T) {
	fonts, err := GetAvailableFonts(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, fonts)

	fonts, err = GetAvailableFonts("")
	require.NoError(t, err)
	assert.Empty(t, fonts)
}

func TestGetAvailableFontsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := GetAvailableFonts(path)
	assert.Error(t, err)
}

func TestScanFontDirAndLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GoBold.ttf"), gobold.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))

	fonts, err := ScanFontDir(dir, nil)
	require.NoError(t, err)
	require.Len(t, fonts, 1)
	assert.NotEmpty(t, fonts[0].Name)

	loader := &FontLoader{AvailableFonts: []*FontMetadata{&fonts[0]}}
	meta, err := loader.GetAvailableFontMetadataByName(strings.ToUpper(fonts[0].Name))
	require.NoError(t, err)
	assert.Equal(t, fonts[0].Path, meta.Path)

	_, err = loader.GetAvailableFontMetadataByName("Comic Sans")
	assert.Error(t, err)
}

func TestFontLoaderFallback(t *testing.T) {
	loader, err := NewFontLoader("")
	require.NoError(t, err)

	for _, name := range []string{"", "serif", "Sans-Serif", "monospace", "Some Unknown Font"} {
		t.Run(name, func(t *testing.T) {
			family, err := loader.LoadFont(name)
			require.NoError(t, err)
			assert.NotNil(t, family)
		})
	}

	a, _ := loader.LoadFont("serif")
	b, _ := loader.LoadFont("SERIF")
	assert.Same(t, a, b, "families are cached by normalized name")
}

func TestGenericFamiliesFaces(t *testing.T) {
	tests := []struct {
		family string
		want   string
	}{
		{"serif", "LM Roman"},
		{"sans-serif", "Go"},
		{"monospace", "Go Mono"},
	}

	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			font, err := sfnt.Parse(genericFamilies[tt.family])
			require.NoError(t, err)

			name, err := font.Name(nil, sfnt.NameIDFamily)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(name, tt.want), "got family %q", name)
		})
	}

	serif, err := sfnt.Parse(genericFamilies["serif"])
	require.NoError(t, err)
	name, err := serif.Name(nil, sfnt.NameIDFamily)
	require.NoError(t, err)
	assert.NotEqual(t, "Go", name, "serif must not resolve to a sans face")
}
