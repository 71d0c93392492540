package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// importRegex matches @import "file.css"; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Stylesheet is a loaded CSS file with enough metadata to detect changes.
type Stylesheet struct {
	// Path is the file the CSS came from, empty for the embedded default.
	Path    string
	CSS     string
	ModTime time.Time
	// Embedded marks the bundled default stylesheet.
	Embedded bool
}

// StylePath returns the path of the user stylesheet,
// ~/.config/ledge/style.css.
func StylePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ledge", "style.css"), nil
}

// LoadStylesheet reads a CSS file and inlines its @import statements.
func LoadStylesheet(path string) (*Stylesheet, error) {
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &Stylesheet{
		Path:    path,
		CSS:     inlineImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// DefaultStylesheet returns the bundled stylesheet.
func DefaultStylesheet() *Stylesheet {
	return &Stylesheet{
		CSS:      defaultCSS,
		Embedded: true,
	}
}

// Reload re-reads the stylesheet from disk when its mtime advanced.
// Returns true when the content changed.
func (s *Stylesheet) Reload() (bool, error) {
	if s.Embedded {
		return false, nil
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(s.ModTime) {
		return false, nil
	}

	css, err := os.ReadFile(s.Path)
	if err != nil {
		return false, err
	}

	old := s.CSS
	s.CSS = inlineImports(string(css), filepath.Dir(s.Path), nil)
	s.ModTime = info.ModTime()
	return old != s.CSS, nil
}

// inlineImports resolves @import statements relative to baseDir. The seen
// map breaks import cycles.
func inlineImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}

		path := sub[1]
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if seen[path] {
			return "/* circular import skipped: " + sub[1] + " */"
		}
		seen[path] = true

		imported, err := os.ReadFile(path)
		if err != nil {
			return "/* import failed: " + sub[1] + " - " + err.Error() + " */"
		}
		return inlineImports(string(imported), filepath.Dir(path), seen)
	})
}
