package views

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetupViewsFolder creates views directory with the built-in view files.
// Returns true if folder was created, false if it already existed.
func SetupViewsFolder(viewsDir string) (bool, error) {
	if _, err := os.Stat(viewsDir); err == nil {
		return false, nil // Already exists
	}

	if err := os.MkdirAll(viewsDir, 0755); err != nil {
		return false, err
	}

	l := NewLoader(viewsDir)
	for _, name := range builtinOrder {
		if err := l.SaveView(builtinViews[name]()); err != nil {
			return false, err
		}
	}

	return true, nil
}

// Loader handles loading views from disk and built-in sources
type Loader struct {
	viewsDir string
}

// NewLoader creates a new view loader
func NewLoader(viewsDir string) *Loader {
	return &Loader{viewsDir: viewsDir}
}

// ValidateViewName checks if a view name is safe to use in file paths.
// It rejects names containing path traversal sequences or invalid characters.
func ValidateViewName(name string) error {
	if name == "" {
		return fmt.Errorf("view name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid view name '%s': contains path separator", name)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid view name '%s': contains path traversal sequence", name)
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid view name '%s': cannot start with '.'", name)
	}

	return nil
}

// LoadView loads a view by name
// First checks disk for user overrides, then falls back to built-in views
func (l *Loader) LoadView(name string) (*View, error) {
	normalizedName := strings.ToLower(name)
	if normalizedName == "" {
		normalizedName = "default"
	}

	if err := ValidateViewName(normalizedName); err != nil {
		return nil, err
	}

	// Check disk first for user override (even for built-in names)
	if viewPath, ok := l.viewPath(normalizedName); ok {
		if _, err := os.Stat(viewPath); err == nil {
			return l.loadFromDisk(normalizedName, viewPath)
		}
	}

	if builtin, ok := builtinViews[normalizedName]; ok {
		return builtin(), nil
	}

	return nil, fmt.Errorf("view '%s' not found", name)
}

// viewPath resolves name inside the views directory, refusing paths that
// escape it.
func (l *Loader) viewPath(name string) (string, bool) {
	if l.viewsDir == "" {
		return "", false
	}
	viewPath := filepath.Join(l.viewsDir, name+".yaml")

	absViewsDir, err := filepath.Abs(l.viewsDir)
	if err != nil {
		return "", false
	}
	absViewPath, err := filepath.Abs(viewPath)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(absViewPath, absViewsDir+string(filepath.Separator)) {
		return "", false
	}
	return viewPath, true
}

// loadFromDisk loads and validates a view from a YAML file
func (l *Loader) loadFromDisk(name, viewPath string) (*View, error) {
	data, err := os.ReadFile(viewPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("view '%s' not found", name)
		}
		return nil, fmt.Errorf("failed to read view '%s': %w", name, err)
	}

	var view View
	if err := yaml.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to parse view '%s': %w", name, err)
	}
	if view.Name == "" {
		view.Name = name
	}

	if err := validateView(&view); err != nil {
		return nil, fmt.Errorf("invalid view '%s': %w", name, err)
	}

	return &view, nil
}

// SaveView writes v to <views_dir>/<name>.yaml, replacing any existing file.
func (l *Loader) SaveView(v *View) error {
	name := strings.ToLower(v.Name)
	if err := ValidateViewName(name); err != nil {
		return err
	}
	if err := validateView(v); err != nil {
		return fmt.Errorf("invalid view '%s': %w", name, err)
	}
	viewPath, ok := l.viewPath(name)
	if !ok {
		return fmt.Errorf("no views directory configured")
	}
	if err := os.MkdirAll(l.viewsDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode view '%s': %w", name, err)
	}
	return os.WriteFile(viewPath, data, 0644)
}

// ListViews returns all available views (built-in and custom)
func (l *Loader) ListViews() ([]ViewInfo, error) {
	var views []ViewInfo

	for _, name := range builtinOrder {
		info := ViewInfo{Name: name, Description: builtinViews[name]().Description, BuiltIn: true}
		if viewPath, ok := l.viewPath(name); ok {
			if _, err := os.Stat(viewPath); err == nil {
				// User file overrides built-in
				info.BuiltIn = false
				info.Overrides = true
				if v, err := l.LoadView(name); err == nil {
					info.Description = v.Description
				}
			}
		}
		views = append(views, info)
	}

	if l.viewsDir == "" {
		return views, nil
	}

	entries, err := os.ReadDir(l.viewsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return views, nil
		}
		return nil, fmt.Errorf("failed to read views directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if _, builtin := builtinViews[name]; builtin {
			continue
		}

		desc := ""
		if v, err := l.LoadView(name); err == nil {
			desc = v.Description
		}
		views = append(views, ViewInfo{Name: name, Description: desc})
	}

	return views, nil
}

// ViewInfo contains metadata about a view
type ViewInfo struct {
	Name        string
	Description string
	BuiltIn     bool
	Overrides   bool // True if user file overrides a built-in view
}

// ViewExists checks if a view exists (either built-in or custom)
func (l *Loader) ViewExists(name string) bool {
	name = strings.ToLower(name)
	if _, ok := builtinViews[name]; ok || name == "" {
		return true
	}

	if err := ValidateViewName(name); err != nil {
		return false
	}

	viewPath, ok := l.viewPath(name)
	if !ok {
		return false
	}
	_, err := os.Stat(viewPath)
	return err == nil
}

// validateView checks that a view configuration is valid and canonicalizes
// its sort key.
func validateView(v *View) error {
	if v.SortBy != "" {
		key, err := ParseSortKey(string(v.SortBy))
		if err != nil {
			return fmt.Errorf("invalid sort_by: %s", v.SortBy)
		}
		v.SortBy = key
	}

	for _, f := range v.Fields {
		if !slices.Contains(AvailableFields, f.Name) {
			return fmt.Errorf("unknown field: %s", f.Name)
		}
		switch f.Align {
		case "", "left", "center", "right":
		default:
			return fmt.Errorf("invalid align: %s (must be 'left', 'center' or 'right')", f.Align)
		}
	}

	return nil
}
