// Package deviceid derives the opaque quota key a guest client presents.
// The id is a best-effort fingerprint, never a credential.
package deviceid

import (
	"encoding/hex"
	"os"
	"runtime"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const prefix = "dev_"

// Derive hashes the given platform characteristics into a stable opaque id.
func Derive(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(part)))
	}
	sum := blake2b.Sum256([]byte(strings.Join(normalized, "\x1f")))
	return prefix + hex.EncodeToString(sum[:16])
}

// Resolve returns override when set, otherwise an id derived from this machine.
func Resolve(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	hostname, _ := os.Hostname()
	return Derive(machineID(), hostname, os.Getenv("USER"), runtime.GOOS, runtime.GOARCH)
}

func machineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if raw, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(raw))
		}
	}
	return ""
}
