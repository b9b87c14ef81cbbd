// Package roles infers the semantic role of a column from its name.
//
// None of the supported particle formats enforces a canonical schema, so the
// micrograph identifier, the X/Y coordinates and the defocus values are found
// by case-insensitive substring matching. The same rules are used by every
// parser and by the statistics engine.
package roles

import "strings"

// DefaultMicrographColumn is the identifier column written by RELION
const DefaultMicrographColumn = "MicrographName"

// Micrograph returns the identifier column. An exact match on preferred wins;
// otherwise the first column whose name contains "micrograph" or "image".
func Micrograph(names []string, preferred string) (string, bool) {
	if preferred != "" {
		for _, name := range names {
			if name == preferred {
				return name, true
			}
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "micrograph") || strings.Contains(lower, "image") {
			return name, true
		}
	}
	return "", false
}

// IsX reports whether name looks like a horizontal coordinate
func IsX(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "coordinatex") || strings.HasSuffix(lower, "_x")
}

// IsY reports whether name looks like a vertical coordinate
func IsY(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "coordinatey") || strings.HasSuffix(lower, "_y")
}

// IsCoordinate reports whether name is an X or Y coordinate
func IsCoordinate(name string) bool {
	return IsX(name) || IsY(name)
}

// IsDefocus reports whether name holds a defocus value
func IsDefocus(name string) bool {
	return strings.Contains(strings.ToLower(name), "defocus")
}

// Coordinates returns every coordinate column in order
func Coordinates(names []string) []string {
	return filter(names, IsCoordinate)
}

// Defocus returns every defocus column in order
func Defocus(names []string) []string {
	return filter(names, IsDefocus)
}

// FirstX returns the first X coordinate column
func FirstX(names []string) (string, bool) {
	return first(names, IsX)
}

// FirstY returns the first Y coordinate column. A name that already
// qualifies as X is not considered.
func FirstY(names []string) (string, bool) {
	return first(names, func(name string) bool {
		return IsY(name) && !IsX(name)
	})
}

func filter(names []string, keep func(string) bool) []string {
	var out []string
	for _, name := range names {
		if keep(name) {
			out = append(out, name)
		}
	}
	return out
}

func first(names []string, match func(string) bool) (string, bool) {
	for _, name := range names {
		if match(name) {
			return name, true
		}
	}
	return "", false
}
