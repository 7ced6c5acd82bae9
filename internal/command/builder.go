// Package command builds the argv for each roster tool. Building is pure:
// the same target, tool, binary and configuration always yield the same
// invocations, and no shell ever re-interprets them.
package command

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/tools"
)

// AggressiveThreads is the brute-forcer thread count added in aggressive mode.
const AggressiveThreads = 50

// Artifact names inside a target directory.
const (
	PortScanBase     = "portscan" // nmap -oA adds .nmap/.xml/.gnmap
	WebVulnFile      = "webvuln.txt"
	FingerprintFile  = "fingerprint.txt"
	DirDiscoveryFile = "dirdiscovery.txt"
	TLSAuditFile     = "tlsaudit.txt"
	HeadersHTTPFile  = "headers_http.txt"
	HeadersHTTPSFile = "headers_https.txt"
)

// ErrOptionTarget rejects a target the tools would parse as an option.
var ErrOptionTarget = errors.New("target starts with '-'")

// CheckTarget returns ErrOptionTarget for targets such as "-iL/etc/passwd".
func CheckTarget(target string) error {
	if strings.HasPrefix(strings.TrimSpace(target), "-") {
		return fmt.Errorf("%w: %q", ErrOptionTarget, target)
	}
	return nil
}

// Invocation is one fully expanded tool call.
type Invocation struct {
	Target string
	Tool   string
	Binary string
	Path   string // resolved executable; empty for an absent tool
	Args   []string

	// Stdout, when set, receives the process's standard output.
	Stdout string
	// Artifact is the primary output file the tool writes.
	Artifact   string
	BestEffort bool
}

// Executable returns the path to run, falling back to the bare binary name.
func (inv Invocation) Executable() string {
	if inv.Path != "" {
		return inv.Path
	}
	return inv.Binary
}

// CommandLine renders the invocation as a shell-quoted line for display.
func (inv Invocation) CommandLine() string {
	line := shellquote.Join(append([]string{inv.Binary}, inv.Args...)...)
	if inv.Stdout != "" {
		line += " > " + shellquote.Join(inv.Stdout)
	}
	return line
}

// Builder turns (tool, binary, target) into invocations for one run
// configuration.
type Builder struct {
	cfg      *config.Config
	wordlist string
	nmapArgs []string
	dirArgs  []string
}

// NewBuilder tokenizes the extra-argument strings once and settles the
// wordlist path.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	nmapArgs, err := shellquote.Split(cfg.NmapArgs)
	if err != nil {
		return nil, fmt.Errorf("%w in --nmap-args: %v", config.ErrBadArgs, err)
	}
	dirArgs, err := shellquote.Split(cfg.DirArgs)
	if err != nil {
		return nil, fmt.Errorf("%w in --dir-args: %v", config.ErrBadArgs, err)
	}
	return &Builder{
		cfg:      cfg,
		wordlist: tools.FindWordlist(cfg.Wordlist),
		nmapArgs: nmapArgs,
		dirArgs:  dirArgs,
	}, nil
}

// Wordlist returns the wordlist path the brute-forcer will be given.
func (b *Builder) Wordlist() string { return b.wordlist }

// Build returns the invocations for tool against target, writing into dir.
// res.Binary picks between interchangeable implementations. Most tools yield
// one invocation; header fetches yield two.
func (b *Builder) Build(tool tools.Tool, res tools.Resolution, target, dir string) ([]Invocation, error) {
	if err := CheckTarget(target); err != nil {
		return nil, err
	}
	bin := res.Binary
	if bin == "" {
		bin = tool.Primary()
	}
	base := Invocation{
		Target:     target,
		Tool:       tool.Name,
		Binary:     bin,
		Path:       res.Path,
		BestEffort: tool.BestEffort,
	}

	switch tool.Name {
	case tools.PortScan:
		return one(base, b.portScanArgs(target, dir), filepath.Join(dir, PortScanBase+".nmap")), nil

	case tools.WebVuln:
		out := filepath.Join(dir, WebVulnFile)
		return one(base, []string{"-h", target, "-output", out, "-Format", "txt", "-ask", "no"}, out), nil

	case tools.Fingerprint:
		out := filepath.Join(dir, FingerprintFile)
		return one(base, []string{"--color=never", "--no-errors", "--log-brief=" + out, target}, out), nil

	case tools.DirDiscovery:
		args, out, err := b.dirDiscoveryArgs(bin, target, dir)
		if err != nil {
			return nil, err
		}
		return one(base, args, out), nil

	case tools.TLSAudit:
		if !b.cfg.Aggressive {
			return nil, nil
		}
		return b.tlsAudit(base, target, dir)

	case tools.Headers:
		httpOut := filepath.Join(dir, HeadersHTTPFile)
		httpsOut := filepath.Join(dir, HeadersHTTPSFile)
		plain := base
		plain.Args = []string{"-s", "-I", "-m", "15", "-o", httpOut, "http://" + target}
		plain.Artifact = httpOut
		secure := base
		secure.Args = []string{"-s", "-k", "-I", "-m", "15", "-o", httpsOut, "https://" + target}
		secure.Artifact = httpsOut
		return []Invocation{plain, secure}, nil
	}

	return nil, fmt.Errorf("no command template for tool %q", tool.Name)
}

func (b *Builder) portScanArgs(target, dir string) []string {
	args := []string{"-Pn", "-sT", "-p", b.cfg.PortRange}
	if b.cfg.Fast {
		args = append(args, "-T3")
	} else {
		args = append(args, "-sV", "-O", "--osscan-guess", "-T4")
	}
	if b.cfg.Aggressive {
		args = append(args, "--script", "vuln")
	}
	args = append(args, "-oA", filepath.Join(dir, PortScanBase))
	args = append(args, b.nmapArgs...)
	return append(args, target)
}

func (b *Builder) dirDiscoveryArgs(bin, target, dir string) ([]string, string, error) {
	out := filepath.Join(dir, DirDiscoveryFile)

	var args []string
	switch bin {
	case "gobuster":
		args = []string{"dir", "-u", "http://" + target, "-w", b.wordlist, "-o", out, "-q"}
	case "ffuf":
		args = []string{"-u", "http://" + target + "/FUZZ", "-w", b.wordlist, "-o", out, "-of", "csv", "-s"}
	default:
		return nil, "", fmt.Errorf("unsupported directory brute-forcer %q", bin)
	}

	if b.cfg.Aggressive && !HasThreadFlag(b.dirArgs) {
		args = append(args, "-t", fmt.Sprint(AggressiveThreads))
	}
	return append(args, b.dirArgs...), out, nil
}

func (b *Builder) tlsAudit(base Invocation, target, dir string) ([]Invocation, error) {
	out := filepath.Join(dir, TLSAuditFile)
	switch base.Binary {
	case "testssl.sh":
		return one(base, []string{"--quiet", "--logfile", out, target}, out), nil
	case "sslscan":
		inv := base
		inv.Args = []string{"--no-colour", target}
		inv.Stdout = out
		inv.Artifact = out
		return []Invocation{inv}, nil
	}
	return nil, fmt.Errorf("unsupported TLS auditor %q", base.Binary)
}

func one(base Invocation, args []string, artifact string) []Invocation {
	base.Args = args
	base.Artifact = artifact
	return []Invocation{base}
}

// HasThreadFlag reports whether args already set a brute-forcer thread
// count: -t, -t<N>, -t=<N>, --threads or --threads=<N>.
func HasThreadFlag(args []string) bool {
	for _, a := range args {
		switch {
		case a == "-t" || a == "--threads":
			return true
		case strings.HasPrefix(a, "--threads="):
			return true
		case strings.HasPrefix(a, "-t=") && len(a) > 3:
			return true
		case strings.HasPrefix(a, "-t") && len(a) > 2 && isDigits(a[2:]):
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
