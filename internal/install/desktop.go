package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Platform is the host facility an install is performed against.
type Platform interface {
	// Available reports whether an install can be offered.
	Available() bool
	// Install performs the install and returns where it went.
	Install() (string, error)
}

// DesktopPlatform installs a freedesktop.org launcher entry.
type DesktopPlatform struct {
	// Dir is the applications directory, usually
	// $XDG_DATA_HOME/applications.
	Dir string
	// Exec is the command the launcher runs.
	Exec string
}

// NewDesktopPlatform returns a platform for the current user.
func NewDesktopPlatform() DesktopPlatform {
	exe, err := os.Executable()
	if err != nil {
		exe = "orderdash"
	}
	return DesktopPlatform{Dir: applicationsDir(), Exec: exe}
}

func applicationsDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "applications")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "applications")
}

// Available reports whether the applications directory exists.
func (p DesktopPlatform) Available() bool {
	if p.Dir == "" {
		return false
	}
	info, err := os.Stat(p.Dir)
	return err == nil && info.IsDir()
}

// Install writes orderdash.desktop into Dir.
func (p DesktopPlatform) Install() (string, error) {
	if !p.Available() {
		return "", errors.New("no applications directory found")
	}
	path := filepath.Join(p.Dir, "orderdash.desktop")
	if err := os.WriteFile(path, []byte(p.entry()), 0o644); err != nil {
		return "", fmt.Errorf("writing launcher %s: %w", path, err)
	}
	return path, nil
}

func (p DesktopPlatform) entry() string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=Order Dashboard\n")
	b.WriteString("Comment=Live customer orders and receipts\n")
	fmt.Fprintf(&b, "Exec=%s\n", p.Exec)
	b.WriteString("Terminal=true\n")
	b.WriteString("Categories=Office;Finance;\n")
	return b.String()
}
