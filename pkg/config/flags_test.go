package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestConfigDirAndFile(t *testing.T) {
	d := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", d)

	got := configFile()
	want := filepath.Join(d, DirName, ConfigFileName)
	if got.SourceURI() != want {
		t.Errorf("configFile() = %q, want %q", got.SourceURI(), want)
	}
}

func TestConfigFileExisting(t *testing.T) {
	d := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", d)

	want := filepath.Join(d, DirName, ConfigFileName)
	if err := os.MkdirAll(filepath.Dir(want), 0o700); err != nil {
		t.Fatal(err)
	}
	content := "[slack]\nallowed_channels = [\"C1\"]\n"
	if err := os.WriteFile(want, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got := configFile()
	if got.SourceURI() != want {
		t.Errorf("configFile() = %q, want %q", got.SourceURI(), want)
	}

	b, err := os.ReadFile(want) //gosec:disable G304 // Test file.
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != content {
		t.Errorf("config file content = %q, want it unchanged", string(b))
	}
}

func TestFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var names []string
	for _, f := range Flags() {
		for _, n := range f.Names() {
			if slices.Contains(names, n) {
				t.Errorf("duplicate flag name: %q", n)
			}
			names = append(names, n)
		}
	}

	for _, n := range []string{"slack-allowed-channels", "airtable-token", "ledger-retention", "timezone", "sweep-interval"} {
		if !slices.Contains(names, n) {
			t.Errorf("missing flag: %q", n)
		}
	}
}
