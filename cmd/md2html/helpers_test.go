package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeExporter records exports and returns fixed bytes.
type fakeExporter struct {
	mu      sync.Mutex
	err     error
	dirs    []string
	closed  bool
	timeout time.Duration
}

func (f *fakeExporter) Export(_ context.Context, _ string, sourceDir string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, sourceDir)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (f *fakeExporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// testEnv returns an environment writing to buffers, with exp as exporter.
func testEnv(exp *fakeExporter) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    time.Now,
		Stdout: &stdout,
		Stderr: &stderr,
		NewExporter: func(timeout time.Duration, _ *zap.Logger) Exporter {
			if exp == nil {
				panic("unexpected exporter")
			}
			exp.timeout = timeout
			return exp
		},
	}
	return env, &stdout, &stderr
}

// writeFile writes content at dir/name, creating parents.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
