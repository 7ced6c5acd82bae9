package tools

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Platform holds information about the current system
type Platform struct {
	OS      string // linux, darwin, windows
	Arch    string // amd64, arm64
	PkgMgr  string // apt, brew, yum, dnf, pacman, ""
	HasSudo bool
}

// DetectPlatform returns information about the current system
func DetectPlatform() *Platform {
	p := &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	switch p.Arch {
	case "amd64", "x86_64":
		p.Arch = "amd64"
	case "arm64", "aarch64":
		p.Arch = "arm64"
	}

	p.PkgMgr = detectPackageManager()

	_, err := exec.LookPath("sudo")
	p.HasSudo = err == nil

	return p
}

func detectPackageManager() string {
	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("brew"); err == nil {
			return "brew"
		}
	case "linux":
		// Check in order of preference
		for _, pm := range []string{"apt", "apt-get", "dnf", "yum", "pacman", "apk", "zypper"} {
			if _, err := exec.LookPath(pm); err == nil {
				return pm
			}
		}
	}
	return ""
}

// InstallHint returns the command a user would run to install pkg, or ""
// when no package manager was detected. Nothing is executed.
func (p *Platform) InstallHint(pkg string) string {
	if pkg == "" || p.PkgMgr == "" {
		return ""
	}

	var argv []string
	switch p.PkgMgr {
	case "apt", "apt-get", "dnf", "yum", "zypper":
		argv = []string{p.PkgMgr, "install", "-y", pkg}
	case "pacman":
		argv = []string{"pacman", "-S", "--noconfirm", pkg}
	case "apk":
		argv = []string{"apk", "add", pkg}
	case "brew":
		return "brew install " + pkg
	default:
		return ""
	}
	if p.HasSudo {
		argv = append([]string{"sudo"}, argv...)
	}
	return strings.Join(argv, " ")
}

// String returns a human-readable description of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (pkg: %s)", p.OS, p.Arch, p.PkgMgr)
}
