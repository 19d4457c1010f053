package catalog

import (
	"fmt"

	trerrors "github.com/stevehiehn/trinity/internal/errors"
)

func catalogErr(msg, hint string) *trerrors.RunError {
	return &trerrors.RunError{Type: trerrors.CatalogError, Message: msg, Hint: hint}
}

// Validate checks a catalog for structural correctness. The orchestrator
// trusts every descriptor built from a catalog that passed.
func Validate(c *Catalog) error {
	seen := map[string]bool{}
	for i, a := range c.Apps {
		if a.Name == "" {
			return catalogErr(fmt.Sprintf("app at index %d has no name", i), "")
		}
		if seen[a.Name] {
			return catalogErr(fmt.Sprintf("duplicate app %q", a.Name), "App names must be unique across categories")
		}
		seen[a.Name] = true
		if a.PackageID == "" {
			return catalogErr(fmt.Sprintf("app %q has no package id", a.Name), "Set winget_id to the package manager identifier")
		}
	}

	seen = map[string]bool{}
	for _, t := range c.Tweaks {
		if seen[t.Name] {
			return catalogErr(fmt.Sprintf("duplicate tweak %q", t.Name), "Tweak names must be unique")
		}
		seen[t.Name] = true
		if err := validateTweak(t); err != nil {
			return err
		}
	}

	seen = map[string]bool{}
	for i, h := range c.Helpers {
		if h.Name == "" {
			return catalogErr(fmt.Sprintf("helper at index %d has no name", i), "")
		}
		if seen[h.Name] {
			return catalogErr(fmt.Sprintf("duplicate helper %q", h.Name), "")
		}
		seen[h.Name] = true
		if len(h.Candidates) == 0 {
			return catalogErr(fmt.Sprintf("helper %q has no candidate paths", h.Name), "List where the executable may be installed")
		}
		if h.InstallID == "" {
			return catalogErr(fmt.Sprintf("helper %q has no install id", h.Name), "Set install_id for the reinstall fallback")
		}
	}

	seen = map[string]bool{}
	for _, p := range c.Presets {
		if p.Name == "" {
			return catalogErr("preset has no name", "")
		}
		if seen[p.Name] {
			return catalogErr(fmt.Sprintf("duplicate preset %q", p.Name), "")
		}
		seen[p.Name] = true
		if err := validatePreset(c, p); err != nil {
			return err
		}
	}
	return nil
}

func validateTweak(t Tweak) error {
	if t.Command == "" && len(t.Registry) == 0 && len(t.Service) == 0 {
		return catalogErr(fmt.Sprintf("tweak %q has no action", t.Name), "A tweak needs a Command, Registry or Service entry")
	}
	for i, e := range t.Registry {
		if e.Path == "" || e.Name == "" {
			return catalogErr(fmt.Sprintf("tweak %q: registry edit %d needs a path and a name", t.Name, i), "")
		}
	}
	for i, e := range t.Service {
		if e.Name == "" || e.StartupType == "" {
			return catalogErr(fmt.Sprintf("tweak %q: service edit %d needs a name and a startup type", t.Name, i), "")
		}
	}
	return nil
}

func validatePreset(c *Catalog, p Preset) error {
	if len(p.Items) == 0 {
		return catalogErr(fmt.Sprintf("preset %q is empty", p.Name), "")
	}
	ids := map[string]bool{}
	for i, item := range p.Items {
		forms := 0
		for _, set := range []bool{item.Helper != "", item.Tweak != "", item.Command != ""} {
			if set {
				forms++
			}
		}
		if forms != 1 {
			return catalogErr(
				fmt.Sprintf("preset %q: item %d must set exactly one of helper, tweak or command", p.Name, i),
				"",
			)
		}
		switch {
		case item.Helper != "":
			if _, ok := c.Helper(item.Helper); !ok {
				return catalogErr(fmt.Sprintf("preset %q references unknown helper %q", p.Name, item.Helper), "")
			}
		case item.Tweak != "":
			if _, ok := c.Tweak(item.Tweak); !ok {
				return catalogErr(fmt.Sprintf("preset %q references unknown tweak %q", p.Name, item.Tweak), "")
			}
		case item.Name == "":
			return catalogErr(fmt.Sprintf("preset %q: command item %d has no name", p.Name, i), "")
		}
		id := item.id()
		if ids[id] {
			return catalogErr(fmt.Sprintf("preset %q lists %q twice", p.Name, id), "")
		}
		ids[id] = true
	}
	return nil
}

// id is the action id the item runs under.
func (item PresetItem) id() string {
	switch {
	case item.Helper != "":
		return item.Helper
	case item.Tweak != "":
		return item.Tweak
	default:
		return item.Name
	}
}
