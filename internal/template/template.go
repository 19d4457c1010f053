package template

import (
	"fmt"
	"regexp"
	"sort"
)

var inputRefRe = regexp.MustCompile(`\{\{\s*inputs\.([A-Za-z0-9_.-]+)\s*\}\}`)

// Resolve replaces every {{inputs.NAME}} in s. A reference to a missing
// input is an error.
func Resolve(s string, inputs map[string]string) (string, error) {
	var resolveErr error
	result := inputRefRe.ReplaceAllStringFunc(s, func(match string) string {
		name := inputRefRe.FindStringSubmatch(match)[1]
		val, ok := inputs[name]
		if !ok {
			if resolveErr == nil {
				resolveErr = fmt.Errorf("unresolved input %q", name)
			}
			return match
		}
		return val
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// Refs returns the distinct input names referenced in s, sorted.
func Refs(s string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range inputRefRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
