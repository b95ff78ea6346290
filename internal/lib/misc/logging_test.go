package misc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, slog.LevelInfo)
	Infof(logger, "staked %d", 5)
	Debugf(logger, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "staked 5", rec["message"])
	assert.Equal(t, "INFO", rec["severity"])
}

func TestMinimalHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true, slog.LevelInfo)
	logger.Info("added object", "object", 7)
	assert.Equal(t, `added object {"object":"7"}`+"\n", buf.String())
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "ab****yz", RedactSecret("abcdefyz"))
	assert.Equal(t, "***", RedactSecret("abc"))
}

func TestGetSecret(t *testing.T) {
	SetSecret("GEMFARM_TEST_SECRET", "fallback")
	assert.Equal(t, "fallback", GetSecret("GEMFARM_TEST_SECRET"))
	t.Setenv("GEMFARM_TEST_SECRET", "env")
	assert.Equal(t, "env", GetSecret("GEMFARM_TEST_SECRET"))
}
