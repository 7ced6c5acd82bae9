// Package target turns the positional scan argument into a list of targets
// and maps each target onto its output directory name.
package target

import (
	"bufio"
	"io"
	"os"
	"strings"
)

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// Sanitize converts a target (host, IP, CIDR or range) into a name that is
// safe to use as a single path component.
func Sanitize(t string) string {
	s := unsafeChars.Replace(strings.TrimSpace(t))
	switch s {
	case "", ".", "..":
		return "_"
	}
	return s
}

// Load resolves arg into targets. When arg names an existing readable file
// it is parsed as a target list and fromFile is true; otherwise arg itself
// is the only target.
func Load(arg string) (targets []string, fromFile bool, err error) {
	info, statErr := os.Stat(arg)
	if statErr != nil || !info.Mode().IsRegular() {
		return []string{arg}, false, nil
	}

	f, openErr := os.Open(arg)
	if openErr != nil {
		return []string{arg}, false, nil
	}
	defer f.Close()

	targets, err = Parse(f)
	return targets, true, err
}

// Parse reads one target per line. Anything after '#' is a comment and
// blank lines are ignored. Duplicates are kept.
func Parse(r io.Reader) ([]string, error) {
	var targets []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			targets = append(targets, line)
		}
	}
	return targets, s.Err()
}
