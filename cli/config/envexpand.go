// Package config handles YAML config file loading for tram commands.
package config

import (
	"os"
	"regexp"
)

// envRef matches ${VAR} and ${VAR:-default} references.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references in input
// with environment variable values. A set, non-empty variable wins;
// otherwise the default applies when one is given.
//
// A reference with no value and no default expands to the empty string
// rather than erroring. Missing required settings surface later, when
// the consuming component validates them (e.g. redis URL parsing).
func ExpandEnv(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(ref string) string {
		groups := envRef.FindStringSubmatch(ref)
		if groups == nil {
			return ref
		}
		return resolveEnvRef(groups[1], groups[2])
	})
}

func resolveEnvRef(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}
