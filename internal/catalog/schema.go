package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stevehiehn/trinity/internal/action"
	"gopkg.in/yaml.v3"
)

// Catalog is everything a user can select from.
type Catalog struct {
	Apps    []App
	Tweaks  []Tweak
	Helpers []action.Helper
	Presets []Preset
}

// App is one installable application.
type App struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	PackageID   string `json:"winget_id" yaml:"package_id"`
	Logo        string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Category    string `json:"-" yaml:"-"` // from the enclosing category key
}

// Tweak is one system configuration change. Command wins over Registry,
// which wins over Service.
type Tweak struct {
	Name        string       `json:"Name" yaml:"name"`
	Description string       `json:"Description,omitempty" yaml:"description,omitempty"`
	Category    string       `json:"Category,omitempty" yaml:"category,omitempty"`
	Command     string       `json:"Command,omitempty" yaml:"command,omitempty"`
	Registry    RegistryList `json:"Registry,omitempty" yaml:"registry,omitempty"`
	Service     ServiceList  `json:"Service,omitempty" yaml:"service,omitempty"`
}

// Preset is a named, ordered bundle of helpers, tweaks and inline commands
// run as one batch.
type Preset struct {
	Name        string       `json:"Name" yaml:"name"`
	Description string       `json:"Description,omitempty" yaml:"description,omitempty"`
	Items       []PresetItem `json:"Items" yaml:"items"`
}

// PresetItem references a helper or a tweak by name, or carries an inline
// command. Exactly one form is set.
type PresetItem struct {
	Helper  string `json:"Helper,omitempty" yaml:"helper,omitempty"`
	Tweak   string `json:"Tweak,omitempty" yaml:"tweak,omitempty"`
	Name    string `json:"Name,omitempty" yaml:"name,omitempty"`
	Command string `json:"Command,omitempty" yaml:"command,omitempty"`
}

// RegistryList decodes a single registry edit or a list of them. Values may
// be JSON strings, numbers or bools.
type RegistryList []action.RegistryEdit

type rawRegistryEdit struct {
	Path  string
	Name  string
	Value json.RawMessage
	Type  string
}

func (r *RegistryList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*r = nil
		return nil
	}
	var raw []rawRegistryEdit
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var one rawRegistryEdit
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		raw = append(raw, one)
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("registry must be an object or a list: %w", err)
	}
	edits := make(RegistryList, 0, len(raw))
	for _, e := range raw {
		value, err := scalar(e.Value)
		if err != nil {
			return fmt.Errorf("registry value %s\\%s: %w", e.Path, e.Name, err)
		}
		edits = append(edits, action.RegistryEdit{Path: e.Path, Name: e.Name, Value: value, Type: e.Type})
	}
	*r = edits
	return nil
}

// scalar renders a JSON string, number or bool as text.
func scalar(data json.RawMessage) (string, error) {
	if len(data) == 0 || isNull(data) {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(data))
	}
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

func (r *RegistryList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var one action.RegistryEdit
		if err := node.Decode(&one); err != nil {
			return err
		}
		*r = RegistryList{one}
		return nil
	case yaml.SequenceNode:
		var many []action.RegistryEdit
		if err := node.Decode(&many); err != nil {
			return err
		}
		*r = many
		return nil
	default:
		return fmt.Errorf("line %d: registry must be a mapping or a sequence", node.Line)
	}
}

// ServiceList accepts either a single service edit or a list of them.
type ServiceList []action.ServiceEdit

func (s *ServiceList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*s = nil
		return nil
	}
	var one action.ServiceEdit
	if err := json.Unmarshal(data, &one); err == nil {
		*s = ServiceList{one}
		return nil
	}
	var many []action.ServiceEdit
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("service must be an object or a list: %w", err)
	}
	*s = many
	return nil
}

func (s *ServiceList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var one action.ServiceEdit
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = ServiceList{one}
		return nil
	case yaml.SequenceNode:
		var many []action.ServiceEdit
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	default:
		return fmt.Errorf("line %d: service must be a mapping or a sequence", node.Line)
	}
}

// App looks up an app by name.
func (c *Catalog) App(name string) (App, bool) {
	for _, a := range c.Apps {
		if a.Name == name {
			return a, true
		}
	}
	return App{}, false
}

// Tweak looks up a tweak by name.
func (c *Catalog) Tweak(name string) (Tweak, bool) {
	for _, t := range c.Tweaks {
		if t.Name == name {
			return t, true
		}
	}
	return Tweak{}, false
}

// Helper looks up a helper by name.
func (c *Catalog) Helper(name string) (action.Helper, bool) {
	for _, h := range c.Helpers {
		if h.Name == name {
			return h, true
		}
	}
	return action.Helper{}, false
}

// Preset looks up a preset by name.
func (c *Catalog) Preset(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
