package action

import (
	"fmt"
	"strings"
)

// Kind identifies what a Descriptor does. The set is closed; the engine
// switches over it exhaustively.
type Kind int

const (
	KindInstallPackage Kind = iota + 1
	KindRunCommand
	KindSetRegistryValues
	KindSetServiceState
	KindStartHelperWithFallback
)

func (k Kind) String() string {
	switch k {
	case KindInstallPackage:
		return "install_package"
	case KindRunCommand:
		return "run_command"
	case KindSetRegistryValues:
		return "set_registry_values"
	case KindSetServiceState:
		return "set_service_state"
	case KindStartHelperWithFallback:
		return "start_helper"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RegistryEdit sets one registry value.
type RegistryEdit struct {
	Path  string `json:"Path" yaml:"path"`
	Name  string `json:"Name" yaml:"name"`
	Value string `json:"Value" yaml:"value"`
	Type  string `json:"Type,omitempty" yaml:"type,omitempty"` // REG_SZ, REG_DWORD, ...
}

// ServiceEdit sets the startup mode of one service.
type ServiceEdit struct {
	Name        string `json:"Name" yaml:"name"`
	StartupType string `json:"StartupType" yaml:"startup_type"`
}

// Helper is the data behind the start-with-fallback ladder: where the
// executable may live, which package ids may have installed it, and which id
// to reinstall from.
type Helper struct {
	Name         string   `json:"Name" yaml:"name"`
	Candidates   []string `json:"Candidates" yaml:"candidates"`
	UninstallIDs []string `json:"UninstallIDs" yaml:"uninstall_ids"`
	InstallID    string   `json:"InstallID" yaml:"install_id"`
}

// Aliases returns the uninstall ids, or the install id when none are set.
func (h Helper) Aliases() []string {
	if len(h.UninstallIDs) == 0 {
		return []string{h.InstallID}
	}
	return h.UninstallIDs
}

// Descriptor is one selected unit of work. Only the payload field matching
// Kind is read.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Category    string
	Kind        Kind

	Package  string
	Command  string
	Registry []RegistryEdit
	Services []ServiceEdit
	Helper   *Helper
}

func InstallPackage(id, pkg string) Descriptor {
	return Descriptor{ID: id, Name: id, Kind: KindInstallPackage, Package: pkg}
}

func RunCommand(id, command string) Descriptor {
	return Descriptor{ID: id, Name: id, Kind: KindRunCommand, Command: command}
}

func SetRegistryValues(id string, edits ...RegistryEdit) Descriptor {
	return Descriptor{ID: id, Name: id, Kind: KindSetRegistryValues, Registry: edits}
}

func SetServiceState(id string, edits ...ServiceEdit) Descriptor {
	return Descriptor{ID: id, Name: id, Kind: KindSetServiceState, Services: edits}
}

func StartHelper(id string, h Helper) Descriptor {
	return Descriptor{ID: id, Name: id, Kind: KindStartHelperWithFallback, Helper: &h}
}

// Validate reports a missing payload for the descriptor's kind.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("action has no id")
	}
	switch d.Kind {
	case KindInstallPackage:
		if d.Package == "" {
			return fmt.Errorf("action %q: install requires a package id", d.ID)
		}
	case KindRunCommand:
		if strings.TrimSpace(d.Command) == "" {
			return fmt.Errorf("action %q: command is empty", d.ID)
		}
	case KindSetRegistryValues:
		if len(d.Registry) == 0 {
			return fmt.Errorf("action %q: no registry edits", d.ID)
		}
		for i, e := range d.Registry {
			if e.Path == "" || e.Name == "" {
				return fmt.Errorf("action %q: registry edit %d needs path and name", d.ID, i)
			}
		}
	case KindSetServiceState:
		if len(d.Services) == 0 {
			return fmt.Errorf("action %q: no service edits", d.ID)
		}
		for i, e := range d.Services {
			if e.Name == "" || e.StartupType == "" {
				return fmt.Errorf("action %q: service edit %d needs name and startup type", d.ID, i)
			}
		}
	case KindStartHelperWithFallback:
		if d.Helper == nil {
			return fmt.Errorf("action %q: no helper", d.ID)
		}
		if len(d.Helper.Candidates) == 0 {
			return fmt.Errorf("action %q: helper has no candidate paths", d.ID)
		}
		if d.Helper.InstallID == "" {
			return fmt.Errorf("action %q: helper has no install id", d.ID)
		}
	default:
		return fmt.Errorf("action %q: unknown kind %s", d.ID, d.Kind)
	}
	return nil
}

// Describe returns a one-line human summary.
func (d Descriptor) Describe() string {
	switch d.Kind {
	case KindInstallPackage:
		return fmt.Sprintf("install package %s", d.Package)
	case KindRunCommand:
		return "run script command"
	case KindSetRegistryValues:
		return fmt.Sprintf("set %d registry value(s)", len(d.Registry))
	case KindSetServiceState:
		return fmt.Sprintf("set %d service startup mode(s)", len(d.Services))
	case KindStartHelperWithFallback:
		if d.Helper != nil {
			return fmt.Sprintf("start %s (reinstall via %s on failure)", d.Helper.Name, d.Helper.InstallID)
		}
		return "start helper"
	default:
		return d.Kind.String()
	}
}
