package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInitLevel(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	closer, err := Init(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	restoreLogger(t)
	_, err := Init(Options{Level: "loud"})
	require.Error(t, err)
}

func TestInitFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "tsp.log")
	var buf bytes.Buffer
	closer, err := Init(Options{Level: "info", File: path, MaxSizeMB: 1, Console: &buf})
	require.NoError(t, err)

	log.Info().Uint64("total", 80).Msg("tour proven")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"total":80`)
	require.Contains(t, buf.String(), "tour proven")
}

func TestInitGnarkLogger(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	closer, err := Init(Options{Level: "debug", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	l := gnarklogger.Logger()
	l.Debug().Msg("from gnark")
	require.Contains(t, buf.String(), "from gnark")

	buf.Reset()
	_, err = Init(Options{Level: "info", Console: &buf})
	require.NoError(t, err)
	l = gnarklogger.Logger()
	l.Info().Msg("silenced")
	require.Empty(t, buf.String())
}
