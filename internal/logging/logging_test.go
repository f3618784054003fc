package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ckbfs-faucet/internal/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "WARN", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	_, err = New(config.LoggingConfig{Level: "loud"})
	require.Error(t, err)

	_, err = New(config.LoggingConfig{Level: "info", Output: "/var/log/faucet.log"})
	require.ErrorContains(t, err, "unsupported log output")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", "")

	logger.Info().Str("product", "ckbfs").Msg("claim event created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "ckbfs", line["product"])
	require.Contains(t, line, "time")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "console", "")

	logger.Info().Msg("claim event created")

	require.Contains(t, buf.String(), "claim event created")
	require.False(t, json.Valid(buf.Bytes()))
}
