package testlog

import (
	"testing"

	"github.com/danmuck/fishbowl/internal/logging"
	"github.com/rs/zerolog"
)

// Start configures the test logging profile and tags the test name.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := logging.ConfigureTests()
	logger.Info().Str("test", t.Name()).Msg("start")
	return logger.With().Str("test", t.Name()).Logger()
}
