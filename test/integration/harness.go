// Package integration provides integration testing utilities for hlsselect.
package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TestHarness serves manifests over HTTP and drives the hlsselect binary
// against them.
type TestHarness struct {
	t          *testing.T
	binary     string
	httpServer *http.Server
	httpPort   int
	tempDir    string
	serveCmd   *exec.Cmd
	servePort  int
	cancel     context.CancelFunc
}

// NewTestHarness creates a new test harness. The test is skipped when the
// hlsselect binary has not been built.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	return &TestHarness{
		t:         t,
		binary:    findBinary(t),
		httpPort:  findAvailablePort(t),
		servePort: findAvailablePort(t),
		tempDir:   t.TempDir(),
	}
}

// StartHTTPServer starts an HTTP server serving the harness directory.
func (h *TestHarness) StartHTTPServer() {
	h.t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(h.tempDir)))

	h.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", h.httpPort),
		Handler: mux,
	}

	// Start server in goroutine
	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.t.Logf("HTTP server error: %v", err)
		}
	}()

	h.waitForServer(fmt.Sprintf("http://localhost:%d/", h.httpPort), 5*time.Second)
	h.t.Logf("HTTP server started on port %d", h.httpPort)
}

// AddPlaylist writes a manifest into the served directory and returns its URL.
func (h *TestHarness) AddPlaylist(content, name string) string {
	h.t.Helper()

	path := filepath.Join(h.tempDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("failed to write playlist %s: %v", name, err)
	}

	return h.URL(name)
}

// URL returns the address of a served file.
func (h *TestHarness) URL(name string) string {
	return fmt.Sprintf("http://localhost:%d/%s", h.httpPort, name)
}

// Result is the outcome of one hlsselect invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run executes hlsselect with args and waits for it to exit.
func (h *TestHarness) Run(args ...string) Result {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.t.Fatalf("failed to run hlsselect: %v", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	return res
}

// StartServe runs "hlsselect serve" against manifestURL until Cleanup.
func (h *TestHarness) StartServe(manifestURL string, args ...string) {
	h.t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	cmdArgs := append([]string{"serve", "--port", fmt.Sprintf("%d", h.servePort)}, args...)
	cmdArgs = append(cmdArgs, manifestURL)

	h.serveCmd = exec.CommandContext(ctx, h.binary, cmdArgs...)
	h.serveCmd.Stdout = os.Stdout
	h.serveCmd.Stderr = os.Stderr

	if err := h.serveCmd.Start(); err != nil {
		h.t.Fatalf("failed to start hlsselect serve: %v", err)
	}

	h.waitForServer(fmt.Sprintf("http://localhost:%d/health", h.servePort), 10*time.Second)
	h.t.Logf("hlsselect serving on port %d", h.servePort)
}

// Fetch performs a GET against the running serve command and returns the
// status code and body.
func (h *TestHarness) Fetch(path string) (int, string) {
	h.t.Helper()

	url := fmt.Sprintf("http://localhost:%d%s", h.servePort, path)
	resp, err := http.Get(url)
	if err != nil {
		h.t.Fatalf("failed to fetch %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("failed to read body of %s: %v", path, err)
	}

	return resp.StatusCode, string(body)
}

// Cleanup stops all running services.
func (h *TestHarness) Cleanup() {
	h.t.Helper()

	if h.cancel != nil {
		h.cancel()
	}
	if h.serveCmd != nil && h.serveCmd.Process != nil {
		h.serveCmd.Process.Kill()
		h.serveCmd.Wait()
	}

	if h.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.httpServer.Shutdown(ctx)
	}
}

// findBinary locates the hlsselect binary or skips the test.
func findBinary(t *testing.T) string {
	t.Helper()

	candidates := []string{
		"../../hlsselect",           // From test/integration
		"./hlsselect",               // From project root
		"../hlsselect",              // From test directory
		"./cmd/hlsselect/hlsselect", // Built in place
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			t.Logf("Found hlsselect binary at: %s", absPath)
			return absPath
		}
	}

	t.Skip("hlsselect binary not found. Run 'go build -o hlsselect ./cmd/hlsselect' first")
	return ""
}

// waitForServer waits for a server to become available.
func (h *TestHarness) waitForServer(url string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	h.t.Fatalf("server at %s did not become available within %v", url, timeout)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
