package spinner

import "strings"

const maxErrLines = 10

// trimOutput returns the last few non-empty lines of tool output.
func trimOutput(b []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(b), "\r", "\n"), "\n")
	var kept []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > maxErrLines {
		kept = kept[len(kept)-maxErrLines:]
	}
	return strings.Join(kept, "\n")
}
