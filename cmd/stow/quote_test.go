package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stow/internal/pricing"
)

func runQuote(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := quoteCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestQuoteParkingJSON(t *testing.T) {
	out, err := runQuote(t, "--type", "parking", "--vehicle", "4-wheeler", "--covered", "--duration", "1h", "--json")
	require.NoError(t, err)

	var b pricing.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, 48.0, b.Total)
	assert.Equal(t, 4, b.Blocks)
	assert.Equal(t, "Covered", b.ParkingType)
}

func TestQuoteStorageText(t *testing.T) {
	out, err := runQuote(t, "--length", "1", "--width", "1", "--duration", "15m")
	require.NoError(t, err)
	assert.Contains(t, out, "total:     30.00")
	assert.Contains(t, out, "(1 blocks)")
}

func TestQuoteRejectsBadInput(t *testing.T) {
	_, err := runQuote(t, "--type", "garage")
	assert.Error(t, err)

	_, err = runQuote(t, "--duration", "0s")
	assert.ErrorIs(t, err, pricing.ErrInvalidRange)

	_, err = runQuote(t, "--start", "noon")
	assert.Error(t, err)
}
