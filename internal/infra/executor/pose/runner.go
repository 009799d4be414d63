package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// Runner runs the external pose analyzers. Each command is an argv whose
// last argument is filled with the video path; the analyzer prints one
// JSON report on stdout.
type Runner struct {
	FrontCommand []string
	SideCommand  []string
	Timeout      time.Duration
}

func NewRunner(front, side []string, timeout time.Duration) *Runner {
	return &Runner{FrontCommand: front, SideCommand: side, Timeout: timeout}
}

// AnalyzeFront returns nil when the analyzer could not use the footage.
func (r *Runner) AnalyzeFront(ctx context.Context, videoPath string) (*domain.FrontReport, error) {
	out, err := r.run(ctx, r.FrontCommand, videoPath)
	if err != nil || out == nil {
		return nil, err
	}
	return parseFront(out)
}

// AnalyzeSide returns nil when the analyzer could not use the footage.
func (r *Runner) AnalyzeSide(ctx context.Context, videoPath string) (*domain.SideReport, error) {
	out, err := r.run(ctx, r.SideCommand, videoPath)
	if err != nil || out == nil {
		return nil, err
	}
	return parseSide(out)
}

func (r *Runner) run(ctx context.Context, argv []string, videoPath string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("analyzer command not configured")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, argv[1:]...), videoPath)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// exit code != 0 artinya video tidak bisa dianalisis
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("analyzer exited with %d: %s", ee.ExitCode(), tail(stderr.String()))
		}
		return nil, fmt.Errorf("run analyzer: %w", err)
	}
	if len(bytes.TrimSpace(stdout.Bytes())) == 0 {
		return nil, nil
	}
	return stdout.Bytes(), nil
}

func parseFront(b []byte) (*domain.FrontReport, error) {
	var rep domain.FrontReport
	if err := json.Unmarshal(lastLine(b), &rep); err != nil {
		return nil, fmt.Errorf("parse front report: %w", err)
	}
	if strings.TrimSpace(rep.Summary) == "" {
		return nil, nil
	}
	if rep.Reps < 0 {
		rep.Reps = 0
	}
	return &rep, nil
}

func parseSide(b []byte) (*domain.SideReport, error) {
	var rep domain.SideReport
	if err := json.Unmarshal(lastLine(b), &rep); err != nil {
		return nil, fmt.Errorf("parse side report: %w", err)
	}
	if strings.TrimSpace(rep.Summary) == "" {
		return nil, nil
	}
	return &rep, nil
}

// lastLine picks the final non-empty line; analyzers may log before it.
func lastLine(b []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	return bytes.TrimSpace(lines[len(lines)-1])
}

// tail keeps the last 512 bytes of stderr, cut on a rune boundary.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 512 {
		return s
	}
	i := len(s) - 512
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
