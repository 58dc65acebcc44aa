package instance

import (
	"os"

	"github.com/angelmondragon/pricesync/pkg/env"
)

const fallbackID = "local"

// GetID identifies the running process in logs and lock ownership. It reads
// PRICESYNC_INSTANCE_ID, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
