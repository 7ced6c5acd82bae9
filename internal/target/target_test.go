package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"10.0.0.0/24", "10.0.0.0_24"},
		{"fe80::1", "fe80__1"},
		{"host:8080", "host_8080"},
		{`a\b`, "a_b"},
		{"  spaced.test  ", "spaced.test"},
		{"..", "_"},
		{".", "_"},
		{"", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeNeverLeavesSeparators(t *testing.T) {
	inputs := []string{
		"192.168.1.0/24",
		"2001:db8::/32",
		"http://weird.test:443/path",
		"a/b:c/d:e",
		"///:::",
	}
	for _, in := range inputs {
		got := Sanitize(in)
		assert.NotContains(t, got, "/", in)
		assert.NotContains(t, got, ":", in)
		assert.Equal(t, got, filepath.Base(got), in)
	}
}

func TestParseStripsCommentsAndBlanks(t *testing.T) {
	got, err := Parse(strings.NewReader("a.test\n\nb.test # comment\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.test", "b.test"}, got)
}

func TestParseKeepsDuplicatesAndOrder(t *testing.T) {
	in := "# header\nz.test\n   \na.test\nz.test\n\t# indented comment\n10.0.0.1/32#tail\n"
	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"z.test", "a.test", "z.test", "10.0.0.1/32"}, got)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.test\n\nb.test # comment\n"), 0o644))

	got, fromFile, err := Load(path)
	require.NoError(t, err)
	assert.True(t, fromFile)
	assert.Equal(t, []string{"a.test", "b.test"}, got)
}

func TestLoadLiteralTarget(t *testing.T) {
	got, fromFile, err := Load("scanme.example")
	require.NoError(t, err)
	assert.False(t, fromFile)
	assert.Equal(t, []string{"scanme.example"}, got)
}

func TestLoadDirectoryIsLiteral(t *testing.T) {
	dir := t.TempDir()
	got, fromFile, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, fromFile)
	assert.Equal(t, []string{dir}, got)
}
