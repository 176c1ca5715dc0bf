package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamam/matrimony/pkg/logger"
)

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	return path
}

func TestScanCleanExitCode(t *testing.T) {
	s := NewExecScanner([]string{"true"}, 5*time.Second, logger.NewNop())

	result, err := s.Scan(context.Background(), tempFile(t))
	require.NoError(t, err)
	assert.Equal(t, Clean, result)
}

func TestScanInfectedExitCode(t *testing.T) {
	s := NewExecScanner([]string{"sh", "-c", "exit 1"}, 5*time.Second, logger.NewNop())

	result, err := s.Scan(context.Background(), tempFile(t))
	require.NoError(t, err)
	assert.Equal(t, Infected, result)
}

func TestScanMalfunctionExitCode(t *testing.T) {
	s := NewExecScanner([]string{"sh", "-c", "exit 2"}, 5*time.Second, logger.NewNop())

	_, err := s.Scan(context.Background(), tempFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScanFailed)
}

func TestScanTimeout(t *testing.T) {
	s := NewExecScanner([]string{"sleep", "5"}, 100*time.Millisecond, logger.NewNop())

	_, err := s.Scan(context.Background(), tempFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScanFailed)
}

func TestScanCommandNotInstalled(t *testing.T) {
	s := NewExecScanner([]string{"definitely-not-a-scanner-binary"}, 5*time.Second, logger.NewNop())

	result, err := s.Scan(context.Background(), tempFile(t))
	require.NoError(t, err)
	assert.Equal(t, Unavailable, result)
}

func TestScanNoCommandConfigured(t *testing.T) {
	s := NewExecScanner(nil, 5*time.Second, logger.NewNop())

	result, err := s.Scan(context.Background(), tempFile(t))
	require.NoError(t, err)
	assert.Equal(t, Unavailable, result)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	s := NewExecScanner([]string{"sh", "-c", "exit 2"}, 5*time.Second, logger.NewNop())
	path := tempFile(t)

	for i := 0; i < 3; i++ {
		_, err := s.Scan(context.Background(), path)
		require.Error(t, err)
	}

	// Breaker is open now; scans short-circuit to Unavailable without error.
	result, err := s.Scan(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Unavailable, result)
}
