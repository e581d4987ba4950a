package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_levels(t *testing.T) {
	var buf bytes.Buffer

	prod := setup(&buf, false)
	require.Equal(t, zerolog.InfoLevel, prod.GetLevel())

	dev := setup(&buf, true)
	require.Equal(t, zerolog.DebugLevel, dev.GetLevel())
}

func TestSetup_jsonOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := setup(&buf, false)
	logger.Info().Str("page", "index").Msg("Built page")
	logger.Debug().Msg("hidden")

	out := buf.String()
	require.Contains(t, out, `"page":"index"`)
	require.Contains(t, out, `"message":"Built page"`)
	require.NotContains(t, out, "hidden")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer

	ctx := WithContext(context.Background(), setup(&buf, false))
	log.Ctx(ctx).Info().Msg("from context")

	require.Contains(t, buf.String(), "from context")
}
