package tools

import (
	"os"
	"path/filepath"
)

// DefaultWordlist is the conventional directory wordlist on Kali/Parrot.
const DefaultWordlist = "/usr/share/wordlists/dirb/common.txt"

// WordlistDir returns ~/.arecon/wordlists.
func WordlistDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "wordlists"
	}
	return filepath.Join(home, ".arecon", "wordlists")
}

// DirWordlistPaths returns well-known directory wordlists in priority order.
func DirWordlistPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		DefaultWordlist,
		filepath.Join(WordlistDir(), "common.txt"),
		"/usr/share/dirb/wordlists/common.txt",
		"/usr/share/seclists/Discovery/Web-Content/common.txt",
		"/usr/share/wordlists/seclists/Discovery/Web-Content/common.txt",
		"/opt/SecLists/Discovery/Web-Content/common.txt",
		"/opt/homebrew/share/seclists/Discovery/Web-Content/common.txt",
		"/usr/share/wordlists/dirbuster/directory-list-2.3-small.txt",
		filepath.Join(home, "SecLists/Discovery/Web-Content/common.txt"),
	}
}

// FindWordlist returns preferred when it exists, otherwise the first
// well-known wordlist present on disk. When nothing is found preferred is
// returned unchanged so the brute-forcer reports the missing file itself.
func FindWordlist(preferred string) string {
	if preferred != "" && fileExists(preferred) {
		return preferred
	}
	for _, p := range DirWordlistPaths() {
		if fileExists(p) {
			return p
		}
	}
	return preferred
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
