package e2e_test

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binaryPath     string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	// Create shared temp directory for the binary
	var err error
	sharedTempDir, err = os.MkdirTemp("", "mediashelf-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup shared resources
	if pgTerminate != nil {
		pgTerminate()
	}
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the mediashelf gateway.
type ServerConfig struct {
	Port        int
	StoragePath string
	CatalogType string // sqlite, postgres; empty leaves the section out
	CatalogDSN  string

	// Gateway overrides in seconds; zero keeps the server defaults.
	IdleTimeout      int
	WatchdogInterval int
}

// buildBinary compiles the mediashelf binary once per test run.
// Returns the path to the compiled binary.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		binaryPath = filepath.Join(sharedTempDir, "mediashelf")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/mediashelf")
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			binaryBuildErr = fmt.Errorf("build binary: %w\nOutput: %s", err, output)
			return
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binary: %v", binaryBuildErr)
	}

	return binaryPath
}

// getProjectRoot returns the root directory of the mediashelf project.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	// Find the go.mod file to determine project root
	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile creates a temporary config file for the server.
// Returns the path to the config file.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d

storage:
  type: filesystem
  path: "%s"
`,
		cfg.Port,
		cfg.StoragePath,
	)

	if cfg.CatalogType != "" {
		fmt.Fprintf(&sb, "\ncatalog:\n  type: %s\n  dsn: \"%s\"\n", cfg.CatalogType, cfg.CatalogDSN)
	}

	if cfg.IdleTimeout > 0 || cfg.WatchdogInterval > 0 {
		sb.WriteString("\ngateway:\n")
		if cfg.IdleTimeout > 0 {
			fmt.Fprintf(&sb, "  idle_timeout: %d\n", cfg.IdleTimeout)
		}
		if cfg.WatchdogInterval > 0 {
			fmt.Fprintf(&sb, "  watchdog_interval: %d\n", cfg.WatchdogInterval)
		}
	}

	sb.WriteString("\nlog:\n  level: error\n")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// startServer starts the mediashelf binary with the given configuration.
// Returns the base URL and a cleanup function that must be called to stop the server.
func startServer(t *testing.T, cfg ServerConfig) (string, func()) {
	t.Helper()

	binary := buildBinary(t)

	// Create config file
	configPath := createConfigFile(t, cfg)

	args := []string{
		"serve",
		"--config", configPath,
	}

	cmd := exec.Command(binary, args...)

	// Capture output for debugging
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	require.NoError(t, err, "start server")

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)

	// Wait for server to be ready
	waitForServer(t, baseURL, 10*time.Second)

	cleanup := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	}

	return baseURL, cleanup
}

// runScan runs the scan subcommand against the given configuration and
// returns its combined output.
func runScan(t *testing.T, cfg ServerConfig, extraArgs ...string) string {
	t.Helper()

	binary := buildBinary(t)
	configPath := createConfigFile(t, cfg)

	args := append([]string{"scan", "--config", configPath}, extraArgs...)
	cmd := exec.Command(binary, args...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "scan: %s", output)

	return string(output)
}

// seedObject writes an object directly into the filesystem store, the way
// a library manager would place files out of band.
func seedObject(t *testing.T, storageDir, key string, content []byte) {
	t.Helper()

	path := filepath.Join(storageDir, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750), "create object directory")
	require.NoError(t, os.WriteFile(path, content, 0o600), "write object")
}

// waitForServer polls the health endpoint until it responds or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			return // Server is ready
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	addr := l.Addr().(*net.TCPAddr)
	port := addr.Port

	err = l.Close()
	require.NoError(t, err, "close port")

	return port
}
