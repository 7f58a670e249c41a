package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "recordings"), 0o755))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in dir", filepath.Join(dir, "a.png"), false},
		{"new file in subdir", filepath.Join(dir, "recordings", "new.csv"), false},
		{"missing subdirs", filepath.Join(dir, "x", "y", "z.csv"), false},
		{"parent escape", filepath.Join(dir, "..", "a.png"), true},
		{"dotdot inside", filepath.Join(dir, "recordings", "..", "..", "etc"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePathWithinDirectory_Symlink(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(dir, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	assert.Error(t, ValidatePathWithinDirectory(filepath.Join(link, "plot.png"), dir))
}

func TestValidateOutputPath(t *testing.T) {
	assert.NoError(t, ValidateOutputPath(filepath.Join(os.TempDir(), "angles.png")))
	assert.NoError(t, ValidateOutputPath("angles.png"))

	extra := t.TempDir()
	assert.NoError(t, ValidateOutputPath(filepath.Join(extra, "a.html"), extra))
	assert.Error(t, ValidateOutputPath("/proc/angles.png"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rehab_Data_", "Rehab_Data_"},
		{"8d3c-11aa", "8d3c-11aa"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"..hidden", "hidden"},
		{"knee  brace / left", "knee_brace_left"},
		{"", "unknown"},
		{"...", "unknown"},
		{"Ünïcode", "_n_code"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 300)), 128)
}
