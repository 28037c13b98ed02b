// Package names assigns a human-readable label to a node at boot, so logs
// and dashboards don't force anyone to memorize port numbers.
package names

import (
	_ "embed"
	"math/rand"
	"strings"
)

//go:embed names.txt
var raw string

var names = parse(raw)

func parse(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Pick returns a uniformly random name.
func Pick() string {
	return names[rand.Intn(len(names))]
}

// All returns every known name.
func All() []string {
	return append([]string(nil), names...)
}
