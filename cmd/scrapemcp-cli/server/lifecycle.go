// lifecycle.go — Server lifecycle management: checking if scrapemcp is
// running, auto-starting it, and waiting for readiness.
package server

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

const (
	startTimeout       = 5 * time.Second
	healthPollInterval = 100 * time.Millisecond
)

// EnsureRunning checks if the MCP server is running and starts it if needed.
func EnsureRunning(port int, autoStart bool) (*Client, error) {
	client := NewClientWithPort(port)

	if client.HealthCheck() {
		return client, nil
	}
	if !autoStart {
		return nil, fmt.Errorf("server not running on port %d. Start it with: scrapemcp", port)
	}

	if err := startServer(port); err != nil {
		return nil, fmt.Errorf("auto-start server: %w", err)
	}
	if err := waitForReady(client); err != nil {
		return nil, fmt.Errorf("server start timeout: %w", err)
	}
	return client, nil
}

func startServer(port int) error {
	binary, err := exec.LookPath("scrapemcp")
	if err != nil {
		return fmt.Errorf("scrapemcp not found in PATH")
	}

	cmd := exec.Command(binary, "--server", "--port", fmt.Sprintf("%d", port))
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start scrapemcp: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func waitForReady(client *Client) error {
	deadline := time.Now().Add(startTimeout)
	for time.Now().Before(deadline) {
		if client.HealthCheck() {
			return nil
		}
		time.Sleep(healthPollInterval)
	}
	return fmt.Errorf("server did not become ready within %s", startTimeout)
}
