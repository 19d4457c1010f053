package runner

import (
	"os"
	"os/exec"
	"regexp"
	"strings"
)

var windowsVarRe = regexp.MustCompile(`%([^%]+)%`)

// ExpandPath expands %VAR% and $VAR references. Unset %VAR% references are
// left in place so the path simply fails to exist.
func ExpandPath(p string) string {
	p = windowsVarRe.ReplaceAllStringFunc(p, func(m string) string {
		if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
	return os.ExpandEnv(p)
}

// Locate returns the first candidate that exists. Bare executable names are
// looked up on PATH.
func Locate(candidates []string) (string, bool) {
	for _, c := range candidates {
		p := ExpandPath(c)
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, `/\`) {
			if found, err := exec.LookPath(p); err == nil {
				return found, true
			}
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
