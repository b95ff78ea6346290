package misc

import (
	"os"
	"strings"
)

var secretsMap = map[string]string{}

// SetSecret registers a fallback value for key, used when the environment
// doesn't define it.
func SetSecret(key, value string) {
	secretsMap[key] = value
}

func GetSecret(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return secretsMap[key]
}

// RedactSecret keeps only enough of a secret to tell values apart in logs.
func RedactSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
