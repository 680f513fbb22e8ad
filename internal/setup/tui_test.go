package setup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/config"
)

func TestWriteConfig_RoundTrip(t *testing.T) {
	a := defaultAnswers()
	a.SpreadsheetID = "abc"
	a.MyCurrency = "nzd"
	a.WatchInterval = "30m"
	a.ReferencePricer = config.PricerBybit

	path := filepath.Join(t.TempDir(), "coinfolio.yaml")
	require.NoError(t, WriteConfig(path, a))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.SpreadsheetID)
	assert.Equal(t, "NZD", cfg.MyCurrency)
	assert.Equal(t, 30*time.Minute, cfg.WatchInterval)
	assert.Equal(t, config.PricerBybit, cfg.ReferencePricer)
	assert.Equal(t, "Holdings!A2:D", cfg.Ranges.HoldingsTable)
}

func TestWriteConfig_RejectsBadAnswers(t *testing.T) {
	a := defaultAnswers()
	a.MinInterval = "soon"

	path := filepath.Join(t.TempDir(), "coinfolio.yaml")
	assert.Error(t, WriteConfig(path, a))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateDuration("15m"))
	assert.Error(t, validateDuration("0s"))
	assert.Error(t, validateDuration("x"))
	assert.NoError(t, validateDate("2020-11-01"))
	assert.NoError(t, validateDate(""))
	assert.Error(t, validateDate("1/11/2020"))
	assert.Error(t, notEmpty("site")(""))
}
