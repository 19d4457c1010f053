package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/stevehiehn/trinity/internal/catalog"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
)

// parseInputs converts ["key=value", ...] to a map.
func parseInputs(raw []string) map[string]string {
	m := map[string]string{}
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			m[parts[0]] = parts[1]
		}
	}
	return m
}

// templateInputs adds the configured resources directory unless --input
// already set it.
func templateInputs() map[string]string {
	inputs := parseInputs(rawInputs)
	if _, ok := inputs["resources"]; !ok && sess.cfg.Catalog.Resources != "" {
		res := sess.cfg.Catalog.Resources
		if abs, err := filepath.Abs(res); err == nil {
			res = abs
		}
		inputs["resources"] = res
	}
	return inputs
}

// loadCatalog reads and validates the configured catalogs.
func loadCatalog() (*catalog.Catalog, error) {
	c, err := catalog.LoadFiles(sess.cfg.Catalog.Apps, sess.cfg.Catalog.Tweaks)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func hintOf(err error) string {
	var re *trerrors.RunError
	if errors.As(err, &re) {
		return re.Hint
	}
	return ""
}
