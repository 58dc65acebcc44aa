package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces process-level settings read outside envconfig.
const Prefix = "PRICESYNC_"

// Lookup returns PRICESYNC_<key> when set, then the bare key.
func Lookup(key string) (string, bool) {
	if !strings.HasPrefix(key, Prefix) {
		if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
			return val, true
		}
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val, true
	}
	return "", false
}

// Get returns the value of key as resolved by Lookup or a fallback.
func Get(key, fallback string) string {
	if val, ok := Lookup(key); ok {
		return val
	}
	return fallback
}

// Bool parses key with strconv.ParseBool; unset or malformed values yield fallback.
func Bool(key string, fallback bool) bool {
	val, ok := Lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
