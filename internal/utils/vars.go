package utils

import (
	"fmt"
	"sort"
	"strings"
)

// ParseAssignment splits a key=value pair given on the command line.
// Accepted forms:
//   - "device=emulator-5554" → ("device", "emulator-5554")
//   - "msg=hello world" → ("msg", "hello world")
//   - "path=a=b" → ("path", "a=b")
func ParseAssignment(assignment string) (string, string, error) {
	parts := strings.SplitN(assignment, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid assignment %q: expected key=value", assignment)
	}

	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", "", fmt.Errorf("invalid assignment %q: key cannot be empty", assignment)
	}
	if strings.ContainsAny(key, " \t.{}") {
		return "", "", fmt.Errorf("invalid assignment %q: key must not contain spaces, dots or braces", assignment)
	}

	return key, parts[1], nil
}

// MergeVars overlays key=value assignments on base and returns a new map.
// base is not modified.
func MergeVars(base map[string]string, assignments []string) (map[string]string, error) {
	merged := make(map[string]string, len(base)+len(assignments))
	for k, v := range base {
		merged[k] = v
	}
	for _, a := range assignments {
		key, value, err := ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		merged[key] = value
	}
	return merged, nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
