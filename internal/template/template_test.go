package template

import (
	"testing"
)

func TestResolveInputs(t *testing.T) {
	result, err := Resolve("hello {{inputs.name}}", map[string]string{"name": "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello world" {
		t.Errorf("expected 'hello world', got %q", result)
	}
}

func TestResolveToleratesSpaces(t *testing.T) {
	result, err := Resolve("{{ inputs.resources }}/wall.png", map[string]string{"resources": `C:\trinity\assets`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `C:\trinity\assets/wall.png` {
		t.Errorf("unexpected result %q", result)
	}
}

func TestResolveMultipleTemplates(t *testing.T) {
	inputs := map[string]string{"style": "Fill", "path": "/tmp/bg.png"}
	result, err := Resolve("$Path = '{{inputs.path}}'; $Style = '{{inputs.style}}'", inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "$Path = '/tmp/bg.png'; $Style = 'Fill'" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestResolveErrorOnUnresolvedInput(t *testing.T) {
	_, err := Resolve("{{inputs.missing}}", map[string]string{})
	if err == nil {
		t.Fatal("expected error for unresolved input")
	}
}

func TestResolvePassthroughNoTemplates(t *testing.T) {
	result, err := Resolve("Stop-Process -Name explorer -Force", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Stop-Process -Name explorer -Force" {
		t.Errorf("expected passthrough, got %q", result)
	}
}

func TestResolveLeavesPowerShellBracesAlone(t *testing.T) {
	s := "if (Test-Path $k) { Remove-Item $k } else { Write-Host 'skip' }"
	result, err := Resolve(s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != s {
		t.Errorf("expected passthrough, got %q", result)
	}
}

func TestResolveEmptyString(t *testing.T) {
	result, err := Resolve("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestRefs(t *testing.T) {
	refs := Refs("{{inputs.b}} {{inputs.a}} {{inputs.b}}")
	if len(refs) != 2 || refs[0] != "a" || refs[1] != "b" {
		t.Errorf("expected [a b], got %v", refs)
	}
}
