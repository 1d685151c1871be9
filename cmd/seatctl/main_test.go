package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_NAME", filepath.Join(dir, "seats.db"))
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestProvisionPriceAndReport(t *testing.T) {
	dir := useTempStore(t)
	file := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
events:
  - id: 1
    title: Premiere
    rows: 2
    cols: 3
    row_prices: {1: 150000}
`), 0o644))

	out, err := runCmd(t, "provision", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, `event 1 "Premiere": 6 seats`)

	out, err = runCmd(t, "provision", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = runCmd(t, "price", "1", "r2c3", "99000")
	require.NoError(t, err)
	assert.Contains(t, out, "seat R2C3: price 99000")

	_, err = runCmd(t, "price", "1", "R2C3", "0")
	assert.Error(t, err)

	out, err = runCmd(t, "report", "--event", "1", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_seats": 6`)
	assert.Contains(t, out, `"free_count": 6`)

	out, err = runCmd(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "total_seats: 6")
}

func TestPriceCeilingFromEnv(t *testing.T) {
	dir := useTempStore(t)
	t.Setenv("SEAT_MAX_PRICE", "120000")
	file := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(file, []byte("events:\n  - {id: 1, rows: 1, cols: 2, row_prices: {1: 150000}}\n"), 0o644))

	_, err := runCmd(t, "provision", "-f", file)
	assert.ErrorContains(t, err, "exceeds ceiling")

	require.NoError(t, os.WriteFile(file, []byte("events:\n  - {id: 1, rows: 1, cols: 2}\n"), 0o644))
	_, err = runCmd(t, "provision", "-f", file)
	require.NoError(t, err)

	_, err = runCmd(t, "price", "1", "R1C1", "130000")
	assert.Error(t, err)
	_, err = runCmd(t, "price", "1", "R1C1", "120000")
	assert.NoError(t, err)
	_, err = runCmd(t, "price", "1", "R1C2", "130000", "--max", "200000")
	assert.NoError(t, err)
}

func TestReviewerCommands(t *testing.T) {
	useTempStore(t)

	_, err := runCmd(t, "reviewer", "add", "900", "--name", "root")
	require.NoError(t, err)
	_, err = runCmd(t, "reviewer", "add", "901", "--by", "900")
	require.NoError(t, err)

	out, err := runCmd(t, "reviewer", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "900\troot\tadded by 900"))

	_, err = runCmd(t, "reviewer", "remove", "901")
	require.NoError(t, err)
	_, err = runCmd(t, "reviewer", "remove", "901")
	assert.Error(t, err)
	_, err = runCmd(t, "reviewer", "promote", "5")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	out, err := runCmd(t, "token", "42", "--role", "reviewer", "--secret", "s3cret")
	require.NoError(t, err)

	tok, err := jwt.Parse(strings.TrimSpace(out), func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "REVIEWER", claims["role"])

	_, err = runCmd(t, "token", "42", "--role", "owner", "--secret", "x")
	assert.Error(t, err)
	_, err = runCmd(t, "token", "zero", "--secret", "x")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := runCmd(t)
	assert.ErrorIs(t, err, pflag.ErrHelp)

	useTempStore(t)
	_, err = runCmd(t, "frobnicate")
	assert.Error(t, err)
}
