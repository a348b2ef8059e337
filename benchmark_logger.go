package tilegemm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunResult captures one timed multiplication
type RunResult struct {
	Name       string        `json:"name"`
	Status     string        `json:"status"` // "pass", "fail"
	M          int           `json:"m"`
	N          int           `json:"n"`
	K          int           `json:"k"`
	Padded     Dims          `json:"padded"`
	Iterations int           `json:"iterations,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"` // mean per iteration
	GFLOPS     float64       `json:"gflops,omitempty"`
	MaxRelErr  float64       `json:"max_rel_err,omitempty"`
	Device     string        `json:"device,omitempty"`
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// GFLOPS returns the rate of a 2·M·N·K multiply taking d.
func GFLOPS(m, n, k int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return 2 * float64(m) * float64(n) * float64(k) / d.Seconds() / 1e9
}

// RunLogger writes run results of one session to a JSON file
type RunLogger struct {
	mu          sync.Mutex
	results     []RunResult
	sessionFile string
}

// NewRunLogger creates logDir if needed and starts a session file named
// after sessionName and the current time.
func NewRunLogger(logDir, sessionName string) (*RunLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	l := &RunLogger{
		sessionFile: filepath.Join(logDir, fmt.Sprintf("%s_%s.json", sessionName, timestamp)),
	}
	return l, l.flush()
}

// Path returns the session file.
func (l *RunLogger) Path() string { return l.sessionFile }

// Log appends a result and flushes the session to disk immediately to
// avoid losing data on crash.
func (l *RunLogger) Log(result RunResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	l.results = append(l.results, result)
	return l.flush()
}

// Results returns the results logged so far.
func (l *RunLogger) Results() []RunResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RunResult(nil), l.results...)
}

func (l *RunLogger) flush() error {
	data, err := json.MarshalIndent(l.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(l.sessionFile, data, 0644)
}

// ReadRunLog loads a session file written by RunLogger.
func ReadRunLog(path string) ([]RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []RunResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return results, nil
}
