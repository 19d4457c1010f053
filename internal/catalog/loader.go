package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stevehiehn/trinity/internal/action"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied to tweaks that leave fields out.
const (
	DefaultTweakName        = "Unnamed Tweak"
	DefaultTweakDescription = "No description available"
	DefaultTweakCategory    = "General"
)

// Format is the encoding of a catalog file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the format from the file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type appsFile struct {
	Apps map[string][]App `json:"Apps" yaml:"apps"`
}

type tweaksFile struct {
	Tweaks  []Tweak         `json:"Tweaks" yaml:"tweaks"`
	Helpers []action.Helper `json:"Helpers,omitempty" yaml:"helpers,omitempty"`
	Presets []Preset        `json:"Presets,omitempty" yaml:"presets,omitempty"`
}

// LoadFiles reads the apps and tweaks catalogs. Either path may be empty.
func LoadFiles(appsPath, tweaksPath string) (*Catalog, error) {
	c := &Catalog{}
	if appsPath != "" {
		data, err := os.ReadFile(appsPath)
		if err != nil {
			return nil, trerrors.Wrap(err, trerrors.CatalogError, "reading apps catalog")
		}
		apps, err := LoadApps(data, FormatOf(appsPath))
		if err != nil {
			return nil, err
		}
		c.Apps = apps
	}
	if tweaksPath != "" {
		data, err := os.ReadFile(tweaksPath)
		if err != nil {
			return nil, trerrors.Wrap(err, trerrors.CatalogError, "reading tweaks catalog")
		}
		tf, err := loadTweaks(data, FormatOf(tweaksPath))
		if err != nil {
			return nil, err
		}
		c.Tweaks, c.Helpers, c.Presets = tf.Tweaks, tf.Helpers, tf.Presets
	}
	return c, nil
}

// LoadApps parses an apps catalog. Apps come back grouped by category name
// and sorted by display name within a category.
func LoadApps(data []byte, format Format) ([]App, error) {
	var f appsFile
	if err := decode(data, format, &f); err != nil {
		return nil, trerrors.Wrap(err, trerrors.CatalogError, "parsing apps catalog")
	}
	if f.Apps == nil {
		return nil, &trerrors.RunError{
			Type:    trerrors.CatalogError,
			Message: "apps catalog has no Apps section",
			Hint:    `Expected {"Apps": {"<category>": [...]}}`,
		}
	}

	categories := make([]string, 0, len(f.Apps))
	for cat := range f.Apps {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var apps []App
	for _, cat := range categories {
		group := f.Apps[cat]
		for i := range group {
			group[i].Category = cat
			if group[i].DisplayName == "" {
				group[i].DisplayName = group[i].Name
			}
		}
		sort.SliceStable(group, func(i, j int) bool {
			return strings.ToLower(group[i].DisplayName) < strings.ToLower(group[j].DisplayName)
		})
		apps = append(apps, group...)
	}
	return apps, nil
}

// LoadTweaks parses a tweaks catalog with its helpers and presets.
func LoadTweaks(data []byte, format Format) (*Catalog, error) {
	tf, err := loadTweaks(data, format)
	if err != nil {
		return nil, err
	}
	return &Catalog{Tweaks: tf.Tweaks, Helpers: tf.Helpers, Presets: tf.Presets}, nil
}

func loadTweaks(data []byte, format Format) (*tweaksFile, error) {
	var f tweaksFile
	if err := decode(data, format, &f); err != nil {
		return nil, trerrors.Wrap(err, trerrors.CatalogError, "parsing tweaks catalog")
	}
	for i := range f.Tweaks {
		applyTweakDefaults(&f.Tweaks[i])
	}
	return &f, nil
}

func applyTweakDefaults(t *Tweak) {
	if t.Name == "" {
		t.Name = DefaultTweakName
	}
	if t.Description == "" {
		t.Description = DefaultTweakDescription
	}
	if t.Category == "" {
		t.Category = DefaultTweakCategory
	}
	for i := range t.Registry {
		if t.Registry[i].Type == "" {
			t.Registry[i].Type = action.DefaultRegistryType
		}
	}
}

func decode(data []byte, format Format, v any) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}
