package tools

import "strings"

// Logical tool names, in roster order.
const (
	PortScan     = "portscan"
	WebVuln      = "webvuln"
	Fingerprint  = "fingerprint"
	DirDiscovery = "dirdiscovery"
	TLSAudit     = "tlsaudit"
	Headers      = "headers"
)

// Tool is one roster entry. Binaries lists interchangeable implementations
// in preference order; the first one found on PATH is used.
type Tool struct {
	Name        string
	Binaries    []string
	Description string

	// BestEffort tools may exit non-zero without counting as a failure.
	BestEffort bool
	// AggressiveOnly tools are part of the roster only in aggressive mode.
	AggressiveOnly bool
	// Filterable tools are subject to the --only allow-list.
	Filterable bool

	// MinVersion is a semver constraint checked by `arecon check`.
	MinVersion string
	// Package is the usual distro package name, used for install hints.
	Package string
}

// Primary returns the preferred binary for the tool.
func (t Tool) Primary() string {
	if len(t.Binaries) == 0 {
		return t.Name
	}
	return t.Binaries[0]
}

// Matches reports whether name refers to this tool, either by its logical
// name or by one of its binaries.
func (t Tool) Matches(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == t.Name {
		return true
	}
	for _, b := range t.Binaries {
		if name == strings.ToLower(b) {
			return true
		}
	}
	return false
}

// Roster returns the fixed, ordered tool list run against every target.
func Roster() []Tool {
	return []Tool{
		{
			Name:        PortScan,
			Binaries:    []string{"nmap"},
			Description: "TCP port scan",
			Filterable:  true,
			MinVersion:  ">= 7.0",
			Package:     "nmap",
		},
		{
			Name:        WebVuln,
			Binaries:    []string{"nikto"},
			Description: "web vulnerability scan",
			Filterable:  true,
			MinVersion:  ">= 2.1.6",
			Package:     "nikto",
		},
		{
			Name:        Fingerprint,
			Binaries:    []string{"whatweb"},
			Description: "web fingerprint",
			Filterable:  true,
			Package:     "whatweb",
		},
		{
			Name:        DirDiscovery,
			Binaries:    []string{"gobuster", "ffuf"},
			Description: "content discovery",
			BestEffort:  true,
			Filterable:  true,
			MinVersion:  ">= 3.0",
			Package:     "gobuster",
		},
		{
			Name:           TLSAudit,
			Binaries:       []string{"testssl.sh", "sslscan"},
			Description:    "TLS audit",
			BestEffort:     true,
			AggressiveOnly: true,
			Filterable:     true,
			Package:        "testssl.sh",
		},
		{
			// Header fetches are not filtered by --only; see DESIGN.md.
			Name:        Headers,
			Binaries:    []string{"curl"},
			Description: "HTTP/HTTPS header fetch",
			BestEffort:  true,
			Package:     "curl",
		},
	}
}

// Lookup finds a roster tool by logical or binary name.
func Lookup(name string) (Tool, bool) {
	for _, t := range Roster() {
		if t.Matches(name) {
			return t, true
		}
	}
	return Tool{}, false
}

// KnownNames lists every name accepted by Lookup.
func KnownNames() []string {
	var names []string
	for _, t := range Roster() {
		names = append(names, t.Name)
		names = append(names, t.Binaries...)
	}
	return names
}
