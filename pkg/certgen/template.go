package certgen

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultPositionX  = 50.0
	DefaultPositionY  = 50.0
	DefaultFontSize   = 48.0
	DefaultFontColor  = "#000000"
	DefaultFontFamily = "serif"
)

// TextPlacement describes where and how the participant name is drawn.
// Positions are percentages of the template width and height.
type TextPlacement struct {
	PositionX  float64 `json:"namePositionX"`
	PositionY  float64 `json:"namePositionY"`
	FontSize   float64 `json:"nameFontSize"`
	FontColor  string  `json:"nameFontColor"`
	FontFamily string  `json:"nameFontFamily"`
}

// WithDefaults fills the font settings left empty by the admin.
func (tp TextPlacement) WithDefaults() TextPlacement {
	if tp.FontSize <= 0 {
		tp.FontSize = DefaultFontSize
	}
	if strings.TrimSpace(tp.FontColor) == "" {
		tp.FontColor = DefaultFontColor
	}
	if strings.TrimSpace(tp.FontFamily) == "" {
		tp.FontFamily = DefaultFontFamily
	}
	return tp
}

type Template struct {
	ID        string
	EventID   EventID
	Category  string
	ImageKey  string
	ImageURL  string
	Placement TextPlacement
}

// TemplateRegistry is the read side of the template storage.
type TemplateRegistry interface {
	GetTemplatesForEvent(ctx context.Context, eventID EventID) ([]Template, error)
}

// GetTemplate returns the template of an event matching category, ignoring case.
func GetTemplate(ctx context.Context, registry TemplateRegistry, eventID EventID, category string) (Template, error) {
	templates, err := registry.GetTemplatesForEvent(ctx, eventID)
	if err != nil {
		return Template{}, err
	}

	return NewTemplateSet(templates).Lookup(category)
}

// TemplateSet is a read only lookup of templates keyed by normalized category.
type TemplateSet struct {
	byCategory map[string]Template
	categories []string
}

func NewTemplateSet(templates []Template) *TemplateSet {
	ts := &TemplateSet{
		byCategory: make(map[string]Template, len(templates)),
		categories: make([]string, 0, len(templates)),
	}

	for _, t := range templates {
		key := NormalizeCategory(t.Category)
		if _, exists := ts.byCategory[key]; exists {
			continue
		}
		ts.byCategory[key] = t
		ts.categories = append(ts.categories, key)
	}
	sort.Strings(ts.categories)

	return ts
}

func (ts *TemplateSet) Len() int {
	return len(ts.byCategory)
}

func (ts *TemplateSet) Lookup(category string) (Template, error) {
	t, ok := ts.byCategory[NormalizeCategory(category)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, category)
	}
	return t, nil
}

// Categories returns the normalized categories that have a template, sorted.
func (ts *TemplateSet) Categories() []string {
	out := make([]string, len(ts.categories))
	copy(out, ts.categories)
	return out
}
