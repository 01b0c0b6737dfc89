package it

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Daemon represents a ringd process under test
type Daemon struct {
	Addr    string
	cmd     *exec.Cmd
	logFile *os.File
}

// StartDaemon launches the binary on addr with the given extra flags and
// waits until the routing port accepts connections
func StartDaemon(ctx context.Context, binaryPath, addr string, extraArgs ...string) (*Daemon, error) {
	logDir := filepath.Join(".local", "it-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, strings.ReplaceAll(addr, ":", "_")+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	args := append([]string{"-listen", addr}, extraArgs...)
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to start ringd: %w", err)
	}

	d := &Daemon{Addr: addr, cmd: cmd, logFile: logFile}

	// Wait for the daemon to be ready
	if err := d.waitForReady(ctx, 10*time.Second); err != nil {
		d.Stop()
		return nil, fmt.Errorf("ringd failed to become ready: %w", err)
	}

	return d, nil
}

// waitForReady polls the routing port until it accepts a connection
func (d *Daemon) waitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("timeout waiting for ringd on %s", d.Addr)
			}

			conn, err := net.DialTimeout("tcp", d.Addr, time.Second)
			if err == nil {
				conn.Close()
				return nil
			}
		}
	}
}

// Stop kills the daemon process and closes its log file
func (d *Daemon) Stop() {
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
		d.cmd.Wait()
	}
	if d.logFile != nil {
		d.logFile.Close()
	}
}

// Client is a line-oriented connection to a running daemon
type Client struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// Dial connects to the daemon and consumes the greeting line
func (d *Daemon) Dial() (*Client, error) {
	conn, err := net.DialTimeout("tcp", d.Addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ringd on %s: %w", d.Addr, err)
	}

	c := &Client{conn: conn, r: bufio.NewReader(conn), w: bufio.NewWriter(conn)}
	greeting, err := c.readLine()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if !strings.HasPrefix(greeting, "+OK") {
		conn.Close()
		return nil, fmt.Errorf("unexpected greeting: %s", greeting)
	}

	return c, nil
}

// Send writes one command and reads a single response line
func (c *Client) Send(cmd string) (string, error) {
	if _, err := c.w.WriteString(cmd + "\n"); err != nil {
		return "", err
	}
	if err := c.w.Flush(); err != nil {
		return "", err
	}
	return c.readLine()
}

// SendArray writes one command and reads a *N array response
func (c *Client) SendArray(cmd string) ([]string, error) {
	header, err := c.Send(cmd)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(header, "*") {
		return nil, fmt.Errorf("expected array header, got %s", header)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(header, "*"))
	if err != nil {
		return nil, fmt.Errorf("bad array header %s: %w", header, err)
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Close closes the client connection
func (c *Client) Close() {
	c.conn.Close()
}
