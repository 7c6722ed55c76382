package certgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryFunc func(ctx context.Context, eventID EventID) ([]Template, error)

func (f registryFunc) GetTemplatesForEvent(ctx context.Context, eventID EventID) ([]Template, error) {
	return f(ctx, eventID)
}

func TestTemplateSetLookup(t *testing.T) {
	set := NewTemplateSet([]Template{
		{ID: "1", Category: "Delegate"},
		{ID: "2", Category: "speaker "},
		{ID: "3", Category: "DELEGATE"},
	})

	tests := []struct {
		name     string
		category string
		wantID   string
		wantErr  error
	}{
		{name: "exact", category: "Delegate", wantID: "1"},
		{name: "lowercase", category: "delegate", wantID: "1"},
		{name: "uppercase with spaces", category: "  SPEAKER", wantID: "2"},
		{name: "missing", category: "organizer", wantErr: ErrTemplateNotFound},
		{name: "empty", category: "", wantErr: ErrTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := set.Lookup(tt.category)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, tpl.ID)
		})
	}

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"delegate", "speaker"}, set.Categories())
}

func TestTemplateSetCategoriesIsACopy(t *testing.T) {
	set := NewTemplateSet([]Template{{Category: "a"}, {Category: "b"}})

	categories := set.Categories()
	categories[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, set.Categories())
}

func TestGetTemplate(t *testing.T) {
	registry := registryFunc(func(ctx context.Context, eventID EventID) ([]Template, error) {
		if eventID != "e1" {
			return nil, nil
		}
		return []Template{{ID: "t1", EventID: "e1", Category: "delegate"}}, nil
	})

	tpl, err := GetTemplate(context.Background(), registry, "e1", "Delegate")
	require.NoError(t, err)
	assert.Equal(t, "t1", tpl.ID)

	_, err = GetTemplate(context.Background(), registry, "e2", "delegate")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	boom := errors.New("boom")
	failing := registryFunc(func(ctx context.Context, eventID EventID) ([]Template, error) {
		return nil, boom
	})
	_, err = GetTemplate(context.Background(), failing, "e1", "delegate")
	assert.ErrorIs(t, err, boom)
}

func TestTextPlacementWithDefaults(t *testing.T) {
	p := TextPlacement{PositionX: 10, PositionY: 20}.WithDefaults()

	assert.Equal(t, 10.0, p.PositionX)
	assert.Equal(t, 20.0, p.PositionY)
	assert.Equal(t, DefaultFontSize, p.FontSize)
	assert.Equal(t, DefaultFontColor, p.FontColor)
	assert.Equal(t, DefaultFontFamily, p.FontFamily)

	custom := TextPlacement{FontSize: 12, FontColor: "#ff0000", FontFamily: "monospace"}.WithDefaults()
	assert.Equal(t, 12.0, custom.FontSize)
	assert.Equal(t, "#ff0000", custom.FontColor)
	assert.Equal(t, "monospace", custom.FontFamily)
}
