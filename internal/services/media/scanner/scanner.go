package scanner

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sangamam/matrimony/pkg/logger"
	"github.com/sangamam/matrimony/pkg/metrics"
)

// Result is the outcome of a virus scan.
type Result int

const (
	// Clean means the scanner inspected the file and found nothing.
	Clean Result = iota
	// Infected means the scanner flagged the file; the caller must discard it.
	Infected
	// Unavailable means no scanner could be reached. Callers proceed as if
	// clean after logging a warning.
	Unavailable
)

// ErrScanFailed covers timeouts and scanner malfunctions. It is distinct from
// an infection verdict and from scanner absence.
var ErrScanFailed = errors.New("virus scan failed")

// Scanner checks a quarantined file on disk.
type Scanner interface {
	Scan(ctx context.Context, path string) (Result, error)
}

// ExecScanner shells out to an external scanning command (clamdscan by
// default, falling back to clamscan when the daemon client is not installed).
// Exit code 0 is clean, 1 is infected, anything else is a scanner
// malfunction. A circuit breaker short-circuits a flapping daemon to
// Unavailable.
type ExecScanner struct {
	command []string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

func NewExecScanner(command []string, timeout time.Duration, log logger.Logger) *ExecScanner {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "virus-scanner",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &ExecScanner{
		command: command,
		timeout: timeout,
		breaker: breaker,
		logger:  log,
	}
}

func (s *ExecScanner) Scan(ctx context.Context, path string) (Result, error) {
	if len(s.command) == 0 {
		metrics.VirusScansTotal.WithLabelValues("unavailable").Inc()
		return Unavailable, nil
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.runScan(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn("virus scanner circuit open, skipping scan", "path", path)
			metrics.VirusScansTotal.WithLabelValues("unavailable").Inc()
			return Unavailable, nil
		}
		metrics.VirusScansTotal.WithLabelValues("failed").Inc()
		return Unavailable, err
	}

	result := out.(Result)
	switch result {
	case Clean:
		metrics.VirusScansTotal.WithLabelValues("clean").Inc()
	case Infected:
		metrics.VirusScansTotal.WithLabelValues("infected").Inc()
	case Unavailable:
		metrics.VirusScansTotal.WithLabelValues("unavailable").Inc()
	}
	return result, nil
}

// runScan invokes the external command with a bounded deadline. Infection is
// a successful scan, not a breaker failure. When the daemon client is not
// installed the standalone clamscan binary is tried before giving up.
func (s *ExecScanner) runScan(ctx context.Context, path string) (Result, error) {
	result, err := s.execOnce(ctx, s.command, path)
	if errors.Is(err, exec.ErrNotFound) {
		if filepath.Base(s.command[0]) == "clamdscan" {
			fallback := append([]string{"clamscan"}, s.command[1:]...)
			result, err = s.execOnce(ctx, fallback, path)
			if !errors.Is(err, exec.ErrNotFound) {
				return result, err
			}
		}
		// No scanner installed on this host.
		s.logger.Warn("virus scanner not installed, skipping scan", "command", s.command[0])
		return Unavailable, nil
	}
	return result, err
}

func (s *ExecScanner) execOnce(ctx context.Context, command []string, path string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string{}, command[1:]...), path)
	cmd := exec.CommandContext(ctx, command[0], args...)
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return Unavailable, errors.Join(ErrScanFailed, errors.New("scan timed out"))
	}

	if err == nil {
		return Clean, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 1 {
			return Infected, nil
		}
		return Unavailable, errors.Join(ErrScanFailed, err)
	}

	if errors.Is(err, exec.ErrNotFound) {
		return Unavailable, err
	}

	return Unavailable, errors.Join(ErrScanFailed, err)
}
