package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", configFileName, err)
	}
	return path
}

func TestLoadProjectManifestFile(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, `# test manifest
[trace]
level = "detail"
output = "traces/run.ndjson"

[dump]
jobs = 3
out_dir = "out"

[cache]
enabled = true
`)
	m, err := loadProjectManifestFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Config.Trace.Level != "detail" || m.Config.Dump.Jobs != 3 || !m.Config.Cache.Enabled {
		t.Fatalf("unexpected config: %+v", m.Config)
	}
	if !m.defined("dump", "jobs") || m.defined("dump", "import_only") {
		t.Fatalf("defined() mismatch")
	}
	if got, want := m.path(m.Config.Dump.OutDir), filepath.Join(root, "out"); got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	var nilManifest *projectManifest
	if nilManifest.defined("trace") {
		t.Fatalf("nil manifest defines nothing")
	}
}

func TestLoadProjectManifestErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "[trace]\nlevl = \"phase\"\n", "unknown keys: trace.levl"},
		{"jobs", "[dump]\njobs = 0\n", "[dump].jobs must be at least 1"},
		{"cache dir", "[cache]\ndir = \"  \"\n", "[cache].dir must not be empty"},
		{"syntax", "[trace\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tc.data)
			_, err := loadProjectManifestFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestFindConfigFileSearchesUpwards(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[dump]\njobs = 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	m, ok, err := loadProjectManifest(nested)
	if err != nil || !ok {
		t.Fatalf("load = %v, %v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
}
