package env

import (
	"os"
	"strings"
)

// Get reads an environment variable, treating blank values as unset.
func Get(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
