package catalog

import (
	"fmt"

	"github.com/stevehiehn/trinity/internal/action"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stevehiehn/trinity/internal/template"
)

// Selection names catalog entries to run as one batch.
type Selection struct {
	Preset  string
	Apps    []string
	Helpers []string
	Tweaks  []string
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.Preset == "" && len(s.Apps) == 0 && len(s.Helpers) == 0 && len(s.Tweaks) == 0
}

// Select builds descriptors for sel: the preset's items first, then apps,
// helpers and tweaks in the order given. {{inputs.NAME}} references in
// commands and registry values are resolved from inputs.
func (c *Catalog) Select(sel Selection, inputs map[string]string) ([]action.Descriptor, error) {
	var out []action.Descriptor

	if sel.Preset != "" {
		p, ok := c.Preset(sel.Preset)
		if !ok {
			return nil, unknown("preset", sel.Preset)
		}
		for _, item := range p.Items {
			d, err := c.presetItem(item, inputs)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}

	for _, name := range sel.Apps {
		a, ok := c.App(name)
		if !ok {
			return nil, unknown("app", name)
		}
		out = append(out, a.Descriptor())
	}
	for _, name := range sel.Helpers {
		h, ok := c.Helper(name)
		if !ok {
			return nil, unknown("helper", name)
		}
		out = append(out, helperDescriptor(h))
	}
	for _, name := range sel.Tweaks {
		t, ok := c.Tweak(name)
		if !ok {
			return nil, unknown("tweak", name)
		}
		d, err := t.Descriptor(inputs)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Catalog) presetItem(item PresetItem, inputs map[string]string) (action.Descriptor, error) {
	switch {
	case item.Helper != "":
		h, ok := c.Helper(item.Helper)
		if !ok {
			return action.Descriptor{}, unknown("helper", item.Helper)
		}
		return helperDescriptor(h), nil
	case item.Tweak != "":
		t, ok := c.Tweak(item.Tweak)
		if !ok {
			return action.Descriptor{}, unknown("tweak", item.Tweak)
		}
		return t.Descriptor(inputs)
	default:
		cmd, err := resolve(item.Name, item.Command, inputs)
		if err != nil {
			return action.Descriptor{}, err
		}
		d := action.RunCommand(item.Name, cmd)
		d.Category = "Preset"
		return d, nil
	}
}

// Descriptor builds the install action for a.
func (a App) Descriptor() action.Descriptor {
	d := action.InstallPackage(a.Name, a.PackageID)
	d.Name = a.DisplayName
	d.Category = a.Category
	return d
}

func helperDescriptor(h action.Helper) action.Descriptor {
	return action.StartHelper(h.Name, h)
}

// Descriptor builds the action for t. Command wins over Registry, which wins
// over Service.
func (t Tweak) Descriptor(inputs map[string]string) (action.Descriptor, error) {
	var d action.Descriptor
	switch {
	case t.Command != "":
		cmd, err := resolve(t.Name, t.Command, inputs)
		if err != nil {
			return d, err
		}
		d = action.RunCommand(t.Name, cmd)
	case len(t.Registry) > 0:
		edits := make([]action.RegistryEdit, len(t.Registry))
		for i, e := range t.Registry {
			v, err := resolve(t.Name, e.Value, inputs)
			if err != nil {
				return d, err
			}
			e.Value = v
			edits[i] = e
		}
		d = action.SetRegistryValues(t.Name, edits...)
	case len(t.Service) > 0:
		d = action.SetServiceState(t.Name, t.Service...)
	default:
		return d, catalogErr(fmt.Sprintf("tweak %q has no action", t.Name), "")
	}
	d.Description = t.Description
	d.Category = t.Category
	return d, nil
}

func resolve(name, s string, inputs map[string]string) (string, error) {
	out, err := template.Resolve(s, inputs)
	if err != nil {
		return "", &trerrors.RunError{
			Type:     trerrors.ValidationError,
			ActionID: name,
			Message:  err.Error(),
			Hint:     "Provide it with --input NAME=VALUE",
		}
	}
	return out, nil
}

func unknown(what, name string) *trerrors.RunError {
	return &trerrors.RunError{
		Type:    trerrors.CatalogError,
		Message: fmt.Sprintf("unknown %s %q", what, name),
		Hint:    "Run 'trinity catalog' to list what is available",
	}
}
