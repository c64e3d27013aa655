// Package tokens manages the named design tokens of a document: colors and
// text styles. Token names are unique per kind, compared case-insensitively.
package tokens

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/typeid"
)

var (
	ErrNotFound      = errors.New("token not found")
	ErrDuplicateName = errors.New("token name already in use")
	ErrEmptyName     = errors.New("token name is required")
	ErrInvalidColor  = errors.New("invalid color value")
	ErrInvalidStyle  = errors.New("invalid text style")
)

// foldName builds a fresh caser per call; a cases.Caser is not safe for
// concurrent use.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Registry holds color tokens and text styles. It is not safe for
// concurrent use.
type Registry struct {
	colors map[string]document.ColorToken
	styles map[string]document.TextStyle

	newColorID func() string
	newStyleID func() string
}

func NewRegistry() *Registry {
	return &Registry{
		colors:     make(map[string]document.ColorToken),
		styles:     make(map[string]document.TextStyle),
		newColorID: typeid.NewColorID,
		newStyleID: typeid.NewTextStyleID,
	}
}

// ValidateColor accepts #rgb and #rrggbb hex values and SVG color keywords.
func ValidateColor(value string) error {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "#") {
		if _, err := colorful.Hex(v); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidColor, err)
		}
		return nil
	}
	if _, ok := colornames.Map[strings.ToLower(v)]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidColor, value)
}

// --- Colors ---

// AddColor creates a color token.
func (r *Registry) AddColor(name, value string) (document.ColorToken, error) {
	name = strings.TrimSpace(name)
	if err := r.checkColor("", name, value); err != nil {
		return document.ColorToken{}, err
	}
	c := document.ColorToken{ID: r.newColorID(), Name: name, Value: strings.TrimSpace(value)}
	r.colors[c.ID] = c
	return c, nil
}

// UpdateColor renames and recolors an existing token.
func (r *Registry) UpdateColor(id, name, value string) (document.ColorToken, error) {
	if _, ok := r.colors[id]; !ok {
		return document.ColorToken{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	name = strings.TrimSpace(name)
	if err := r.checkColor(id, name, value); err != nil {
		return document.ColorToken{}, err
	}
	c := document.ColorToken{ID: id, Name: name, Value: strings.TrimSpace(value)}
	r.colors[id] = c
	return c, nil
}

func (r *Registry) checkColor(id, name, value string) error {
	if name == "" {
		return ErrEmptyName
	}
	if err := ValidateColor(value); err != nil {
		return err
	}
	if other, ok := r.ColorByName(name); ok && other.ID != id {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

func (r *Registry) DeleteColor(id string) bool {
	if _, ok := r.colors[id]; !ok {
		return false
	}
	delete(r.colors, id)
	return true
}

func (r *Registry) Color(id string) (document.ColorToken, bool) {
	c, ok := r.colors[id]
	return c, ok
}

// ColorByName looks a token up ignoring case.
func (r *Registry) ColorByName(name string) (document.ColorToken, bool) {
	key := foldName(name)
	for _, c := range r.colors {
		if foldName(c.Name) == key {
			return c, true
		}
	}
	return document.ColorToken{}, false
}

// Colors returns every color token ordered by name.
func (r *Registry) Colors() []document.ColorToken {
	out := make([]document.ColorToken, 0, len(r.colors))
	for _, c := range r.colors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Text styles ---

// AddTextStyle creates a text style. The id field of s is ignored.
func (r *Registry) AddTextStyle(s document.TextStyle) (document.TextStyle, error) {
	s.Name = strings.TrimSpace(s.Name)
	if err := r.checkStyle("", s); err != nil {
		return document.TextStyle{}, err
	}
	s.ID = r.newStyleID()
	r.styles[s.ID] = s
	return s, nil
}

// UpdateTextStyle replaces the style with the same id.
func (r *Registry) UpdateTextStyle(s document.TextStyle) (document.TextStyle, error) {
	if _, ok := r.styles[s.ID]; !ok {
		return document.TextStyle{}, fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	s.Name = strings.TrimSpace(s.Name)
	if err := r.checkStyle(s.ID, s); err != nil {
		return document.TextStyle{}, err
	}
	r.styles[s.ID] = s
	return s, nil
}

func (r *Registry) checkStyle(id string, s document.TextStyle) error {
	if s.Name == "" {
		return ErrEmptyName
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("%w: font size %g", ErrInvalidStyle, s.FontSize)
	}
	if other, ok := r.TextStyleByName(s.Name); ok && other.ID != id {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	return nil
}

func (r *Registry) DeleteTextStyle(id string) bool {
	if _, ok := r.styles[id]; !ok {
		return false
	}
	delete(r.styles, id)
	return true
}

func (r *Registry) TextStyle(id string) (document.TextStyle, bool) {
	s, ok := r.styles[id]
	return s, ok
}

func (r *Registry) TextStyleByName(name string) (document.TextStyle, bool) {
	key := foldName(name)
	for _, s := range r.styles {
		if foldName(s.Name) == key {
			return s, true
		}
	}
	return document.TextStyle{}, false
}

func (r *Registry) TextStyles() []document.TextStyle {
	out := make([]document.TextStyle, 0, len(r.styles))
	for _, s := range r.styles {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load replaces every token with persisted values.
func (r *Registry) Load(colors []document.ColorToken, styles []document.TextStyle) {
	r.colors = make(map[string]document.ColorToken, len(colors))
	for _, c := range colors {
		r.colors[c.ID] = c
	}
	r.styles = make(map[string]document.TextStyle, len(styles))
	for _, s := range styles {
		r.styles[s.ID] = s
	}
}
