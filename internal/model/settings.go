package model

import (
	"fmt"
	"strings"
)

// Theme is the display theme persisted alongside tasks.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme parses a theme name case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("invalid theme: %q (must be 'light' or 'dark')", s)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// AppSettings holds the persisted user preferences.
type AppSettings struct {
	Theme     Theme `json:"theme"`
	FocusMode bool  `json:"focusMode"`
}

// DefaultSettings returns the settings used on first start.
func DefaultSettings() AppSettings {
	return AppSettings{Theme: ThemeLight}
}

// ExportVersion is the schema version written into export files.
const ExportVersion = "1.0.0"

// ExportData is the backup file envelope.
type ExportData struct {
	Version    string      `json:"version"`
	ExportedAt Timestamp   `json:"exportedAt"`
	Tasks      []Task      `json:"tasks"`
	Settings   AppSettings `json:"settings"`
}
