package tokens

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/inamate/designsurface/internal/document"
)

var ErrUnsupportedFormat = errors.New("unsupported token file format")

// SeedFile is the on-disk layout of a token file.
type SeedFile struct {
	Colors     []SeedColor `yaml:"colors" toml:"colors"`
	TextStyles []SeedStyle `yaml:"textStyles" toml:"textStyles"`
}

type SeedColor struct {
	Name  string `yaml:"name" toml:"name"`
	Value string `yaml:"value" toml:"value"`
}

type SeedStyle struct {
	Name       string  `yaml:"name" toml:"name"`
	FontSize   float64 `yaml:"fontSize" toml:"fontSize"`
	FontFamily string  `yaml:"fontFamily" toml:"fontFamily"`
	FontWeight string  `yaml:"fontWeight" toml:"fontWeight"`
	FontStyle  string  `yaml:"fontStyle" toml:"fontStyle"`
}

// ParseSeed decodes a token file. format is "yaml", "yml" or "toml".
func ParseSeed(data []byte, format string) (*SeedFile, error) {
	var seed SeedFile
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("parsing yaml tokens: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("parsing toml tokens: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &seed, nil
}

// LoadFile seeds the registry from a YAML or TOML file, chosen by extension.
// Tokens whose name already exists are updated in place.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading token file %s: %w", path, err)
	}
	seed, err := ParseSeed(data, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return r.Apply(seed)
}

// Apply upserts every token of seed, stopping at the first invalid one.
func (r *Registry) Apply(seed *SeedFile) error {
	for _, c := range seed.Colors {
		var err error
		if existing, ok := r.ColorByName(c.Name); ok {
			_, err = r.UpdateColor(existing.ID, c.Name, c.Value)
		} else {
			_, err = r.AddColor(c.Name, c.Value)
		}
		if err != nil {
			return fmt.Errorf("color %q: %w", c.Name, err)
		}
	}
	for _, s := range seed.TextStyles {
		style := document.TextStyle{
			Name:       s.Name,
			FontSize:   s.FontSize,
			FontFamily: s.FontFamily,
			FontWeight: s.FontWeight,
			FontStyle:  s.FontStyle,
		}
		var err error
		if existing, ok := r.TextStyleByName(s.Name); ok {
			style.ID = existing.ID
			_, err = r.UpdateTextStyle(style)
		} else {
			_, err = r.AddTextStyle(style)
		}
		if err != nil {
			return fmt.Errorf("text style %q: %w", s.Name, err)
		}
	}
	return nil
}
