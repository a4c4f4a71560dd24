package config

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ThemeConfig holds the Shell's colors as #rrggbb strings.
type ThemeConfig struct {
	StatusFG    string `toml:"status_fg"`
	StatusBG    string `toml:"status_bg"`
	MenuFG      string `toml:"menu_fg"`
	MenuBG      string `toml:"menu_bg"`
	HighlightBG string `toml:"highlight_bg"`
}

// DefaultTheme returns a light grey chrome.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		StatusFG:    "#000000",
		StatusBG:    "#c0c0c0",
		MenuFG:      "#000000",
		MenuBG:      "#d4d0c8",
		HighlightBG: "#3a6ea5",
	}
}

// Palette is a parsed theme.
type Palette struct {
	StatusFG    colorful.Color
	StatusBG    colorful.Color
	MenuFG      colorful.Color
	MenuBG      colorful.Color
	HighlightBG colorful.Color
	HighlightFG colorful.Color
}

// Palette parses the theme. Invalid entries fall back to the defaults.
func (t ThemeConfig) Palette() Palette {
	def := DefaultTheme()
	get := func(v, fallback string) colorful.Color {
		if c, err := ParseColor(v); err == nil {
			return c
		}
		c, _ := ParseColor(fallback)
		return c
	}
	p := Palette{
		StatusFG:    get(t.StatusFG, def.StatusFG),
		StatusBG:    get(t.StatusBG, def.StatusBG),
		MenuFG:      get(t.MenuFG, def.MenuFG),
		MenuBG:      get(t.MenuBG, def.MenuBG),
		HighlightBG: get(t.HighlightBG, def.HighlightBG),
	}
	p.HighlightFG = Contrast(p.HighlightBG)
	return p
}

// Contrast returns black or white, whichever reads better on bg.
func Contrast(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l > 0.55 {
		return colorful.Color{}
	}
	return colorful.Color{R: 1, G: 1, B: 1}
}

// ParseColor parses a #rrggbb or #rgb color.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, fmt.Errorf("empty color")
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, err
	}
	return c, nil
}

type themeField struct {
	name  string
	value string
}

func (t ThemeConfig) fields() []themeField {
	return []themeField{
		{"status_fg", t.StatusFG},
		{"status_bg", t.StatusBG},
		{"menu_fg", t.MenuFG},
		{"menu_bg", t.MenuBG},
		{"highlight_bg", t.HighlightBG},
	}
}
