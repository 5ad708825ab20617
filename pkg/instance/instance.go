package instance

import (
	"os"
	"strings"
)

// ID returns the identifier used to tell replicas apart in logs. The
// configured value wins, then the hostname, then "<kind>-0".
func ID(configured, kind string) string {
	if id := strings.TrimSpace(configured); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if kind == "" {
		kind = "service"
	}
	return kind + "-0"
}
