package misc

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvSettings loads .env.local then .env. Existing variables are never
// overridden, so earlier files win.
func LoadEnvSettings(log *slog.Logger) {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			Debugf(log, "loaded env file:%s", name)
		}
	}
}

func LoadEnvForNetwork(log *slog.Logger, network string) {
	name := fmt.Sprintf(".env.%s", network)
	if err := godotenv.Load(name); err == nil {
		Debugf(log, "loaded env file:%s", name)
	}
}
