// Package connection manages the operator-facing connection artifacts: a
// DCV connection file per instance and a PASSWORDS.txt alongside them.
// Public IPs change whenever an instance is stopped and started again, so
// the files are regenerated after every start.
package connection

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	passwordsFileName = "PASSWORDS.txt"
	dcvPort           = 8443

	// DefaultUsername is the Windows account the deployment provisions.
	DefaultUsername = "Administrator"
)

// Endpoint is one reachable instance.
type Endpoint struct {
	Name       string // file name stem, e.g. ll-win-client-1
	InstanceID string
	PublicIP   string
}

// Manager writes and refreshes connection files in a single directory.
type Manager struct {
	Dir      string
	Username string
}

// NewManager targets the conventional LucidLink-DCV folder on the
// operator's desktop.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	return &Manager{
		Dir:      filepath.Join(home, "Desktop", "LucidLink-DCV"),
		Username: DefaultUsername,
	}, nil
}

// WriteConnectionFile writes one .dcv file (INI format). An empty
// password leaves the field out and the DCV client prompts instead.
func (m *Manager) WriteConnectionFile(ep Endpoint, password string) (string, error) {
	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return "", fmt.Errorf("creating connection directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[version]\nformat=1.0\n\n")
	fmt.Fprintf(&b, "[connect]\nhost=%s\nport=%d\nsessionid=console\n", ep.PublicIP, dcvPort)
	if m.Username != "" {
		fmt.Fprintf(&b, "user=%s\n", m.Username)
	}
	if password != "" {
		fmt.Fprintf(&b, "password=%s\n", password)
	}
	fmt.Fprintf(&b, "\n[options]\nfullscreen=false\npreferred-video-codec=h264\n")

	path := filepath.Join(m.Dir, ep.Name+".dcv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WritePasswords records the shared Administrator password and which
// instances it applies to.
func (m *Manager) WritePasswords(password string, endpoints []Endpoint) (string, error) {
	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return "", fmt.Errorf("creating connection directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("Windows Administrator Password\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString("IMPORTANT: Keep this file secure!\n\n")
	b.WriteString("ONE PASSWORD FOR ALL INSTANCES:\n")
	fmt.Fprintf(&b, "  Password: %s\n\n", password)
	b.WriteString("This password works for:\n")
	for i, ep := range endpoints {
		ip := ep.PublicIP
		if ip == "" {
			ip = "N/A"
		}
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, ep.InstanceID, ip)
	}
	b.WriteString("\nConnection Info:\n")
	fmt.Fprintf(&b, "  Username: %s\n", m.Username)
	fmt.Fprintf(&b, "  Password: %s\n", password)

	path := filepath.Join(m.Dir, passwordsFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadPassword recovers the stored password from PASSWORDS.txt so
// regenerated connection files keep auto-filling after a stop/start
// cycle.
func (m *Manager) ReadPassword() (string, error) {
	path := filepath.Join(m.Dir, passwordsFileName)
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if pw, ok := strings.CutPrefix(line, "Password: "); ok {
			return pw, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return "", fmt.Errorf("no password recorded in %s", path)
}

// RegenerateAll rewrites every connection file with fresh addresses. If no
// password is stored yet the files are written without one.
func (m *Manager) RegenerateAll(endpoints []Endpoint) error {
	password, err := m.ReadPassword()
	if err != nil {
		password = ""
	}
	for _, ep := range endpoints {
		if ep.PublicIP == "" {
			continue
		}
		if _, err := m.WriteConnectionFile(ep, password); err != nil {
			return err
		}
	}
	return nil
}
