package tools

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rootsploit/arecon/internal/exec"
)

// versionTimeout bounds each version probe.
const versionTimeout = 2 * time.Second

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Resolution is the binary picked for a tool and its absolute path.
type Resolution struct {
	Binary string
	Path   string
}

type Checker struct {
	lookPath LookPathFunc
}

func NewChecker() *Checker { return &Checker{lookPath: osexec.LookPath} }

// NewCheckerWithLookPath builds a checker over a custom PATH lookup.
func NewCheckerWithLookPath(fn LookPathFunc) *Checker {
	return &Checker{lookPath: fn}
}

// Resolve returns the first installed binary of t in preference order.
// The lookup runs on every call; results are never cached.
func (c *Checker) Resolve(t Tool) (Resolution, bool) {
	for _, bin := range t.Binaries {
		if path, err := c.lookPath(bin); err == nil {
			return Resolution{Binary: bin, Path: path}, true
		}
	}
	return Resolution{}, false
}

// ToolStatus is the `check` view of one roster tool.
type ToolStatus struct {
	Name       string
	Binary     string
	Path       string
	Installed  bool
	Version    string
	MinVersion string
	Outdated   bool
}

// CheckAll resolves every roster tool in parallel and probes versions.
func (c *Checker) CheckAll() []ToolStatus {
	roster := Roster()
	out := make([]ToolStatus, len(roster))

	var wg sync.WaitGroup
	for i, t := range roster {
		wg.Add(1)
		go func(idx int, tool Tool) {
			defer wg.Done()
			out[idx] = c.check(tool)
		}(i, t)
	}
	wg.Wait()
	return out
}

func (c *Checker) check(t Tool) ToolStatus {
	s := ToolStatus{Name: t.Name, Binary: t.Primary(), MinVersion: t.MinVersion}
	res, ok := c.Resolve(t)
	if !ok {
		return s
	}
	s.Installed = true
	s.Binary = res.Binary
	s.Path = res.Path
	out := c.versionOutput(res.Path, versionArgs(res.Binary))
	if v, err := ParseVersion(out); err == nil {
		s.Version = v.String()
		if t.MinVersion != "" {
			s.Outdated = !SatisfiesMinimum(v, t.MinVersion)
		}
	} else if out != "" {
		s.Version = firstLine(out, 40)
	}
	return s
}

func versionArgs(bin string) []string {
	switch bin {
	case "nikto":
		return []string{"-Version"}
	case "gobuster":
		return []string{"version"}
	case "ffuf":
		return []string{"-V"}
	default:
		return []string{"--version"}
	}
}

// versionOutput runs the binary's version flag through the tracked
// executor. Some tools print their version on stderr.
func (c *Checker) versionOutput(path string, args []string) string {
	var out bytes.Buffer
	r := exec.Run(context.Background(), path, args, &exec.Options{Timeout: versionTimeout, Stdout: &out})
	text := strings.TrimSpace(out.String())
	if text == "" {
		text = strings.TrimSpace(r.Stderr)
	}
	return text
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first dotted version number from tool output,
// e.g. "Nmap version 7.94SVN ( https://nmap.org )" -> 7.94.0.
func ParseVersion(out string) (*semver.Version, error) {
	m := versionRe.FindString(out)
	if m == "" {
		return nil, fmt.Errorf("no version in %q", firstLine(out, 40))
	}
	return semver.NewVersion(m)
}

// SatisfiesMinimum reports whether v meets constraint. An unparsable
// constraint is treated as satisfied.
func SatisfiesMinimum(v *semver.Version, constraint string) bool {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return true
	}
	return c.Check(v)
}

func firstLine(s string, max int) string {
	line := strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	if len(line) > max {
		return line[:max] + "..."
	}
	return line
}
