package action

import "fmt"

var psTypes = map[string]string{
	"REG_SZ":        "String",
	"REG_EXPAND_SZ": "ExpandString",
	"REG_BINARY":    "Binary",
	"REG_DWORD":     "DWord",
	"REG_QWORD":     "QWord",
	"REG_MULTI_SZ":  "MultiString",
}

// DefaultRegistryType is assumed when a catalog entry names no type.
const DefaultRegistryType = "REG_DWORD"

// PowerShellType maps a REG_* type to the -Type argument of Set-ItemProperty.
// Unknown types map to String.
func PowerShellType(regType string) string {
	if t, ok := psTypes[regType]; ok {
		return t
	}
	return "String"
}

func isStringType(regType string) bool {
	return regType == "REG_SZ" || regType == "REG_EXPAND_SZ"
}

// Script returns the PowerShell text that creates the key if needed and
// sets the value.
func (e RegistryEdit) Script() string {
	regType := e.Type
	if regType == "" {
		regType = DefaultRegistryType
	}
	value := e.Value
	if isStringType(regType) {
		value = `"` + e.Value + `"`
	}
	return fmt.Sprintf(
		`New-Item -Path "Registry::%s" -Force -ErrorAction SilentlyContinue | Out-Null; Set-ItemProperty -Path "Registry::%s" -Name "%s" -Value %s -Type %s`,
		e.Path, e.Path, e.Name, value, PowerShellType(regType),
	)
}

func (e RegistryEdit) String() string {
	return fmt.Sprintf(`%s\%s`, e.Path, e.Name)
}

// Script returns the PowerShell text that sets the service startup mode.
func (e ServiceEdit) Script() string {
	return fmt.Sprintf("Set-Service -Name '%s' -StartupType '%s'", e.Name, e.StartupType)
}
