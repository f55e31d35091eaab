package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("run-1", "run-1/report.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	runID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "run-1", runID)
	require.Equal(t, "run-1/report.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("run-1", "run-1/report.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	runID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "run-1", runID)
	require.Equal(t, "run-1/report.csv", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("run-1", "run-1/report.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 4)
	parts[0] = "run-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.Error(t, err)

	_, _, _, err = signer.Parse("not-a-token", false)
	require.Error(t, err)
}

func TestSignedURLSignerRequiresSecretAndArgs(t *testing.T) {
	empty := NewSignedURLSigner("", time.Hour)
	_, _, err := empty.Generate("run-1", "run-1/report.csv")
	require.Error(t, err)

	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err = signer.Generate("", "run-1/report.csv")
	require.Error(t, err)
	_, _, err = signer.Generate("run-1", "")
	require.Error(t, err)
}
