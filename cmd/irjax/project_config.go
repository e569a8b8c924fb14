package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const configFileName = "irjax.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	meta   toml.MetaData
}

type projectConfig struct {
	Trace traceConfig `toml:"trace"`
	Dump  dumpConfig  `toml:"dump"`
	Cache cacheConfig `toml:"cache"`
}

type traceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
}

type dumpConfig struct {
	ImportOnly bool   `toml:"import_only"`
	Jobs       int    `toml:"jobs"`
	OutDir     string `toml:"out_dir"`
}

type cacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// manifest is the irjax.toml of the current invocation, nil if none.
var manifest *projectManifest

// defined reports whether the manifest sets the given key.
func (m *projectManifest) defined(keys ...string) bool {
	return m != nil && m.meta.IsDefined(keys...)
}

// path resolves p relative to the manifest directory.
func (m *projectManifest) path(p string) string {
	if p == "" || filepath.IsAbs(p) || m == nil {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

func loadManifestFor(cmd *cobra.Command) error {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if explicit != "" {
		m, err := loadProjectManifestFile(explicit)
		if err != nil {
			return err
		}
		manifest = m
		return nil
	}
	m, _, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	manifest = m
	return nil
}

func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	path, ok, err := findConfigFile(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := loadProjectManifestFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

func loadProjectManifestFile(path string) (*projectManifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var cfg projectConfig
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", abs, strings.Join(keys, ", "))
	}
	if meta.IsDefined("dump", "jobs") && cfg.Dump.Jobs < 1 {
		return nil, fmt.Errorf("%s: [dump].jobs must be at least 1", abs)
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(cfg.Cache.Dir) == "" {
		return nil, fmt.Errorf("%s: [cache].dir must not be empty", abs)
	}
	return &projectManifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
		meta:   meta,
	}, nil
}

// settingString returns the flag value, or the manifest value at keys when
// the flag was not given explicitly.
func settingString(cmd *cobra.Command, flag string, keys ...string) (string, error) {
	v, err := cmd.Flags().GetString(flag)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !manifest.defined(keys...) {
		return v, nil
	}
	switch strings.Join(keys, ".") {
	case "trace.level":
		return manifest.Config.Trace.Level, nil
	case "trace.output":
		return manifest.path(manifest.Config.Trace.Output), nil
	case "trace.mode":
		return manifest.Config.Trace.Mode, nil
	case "trace.format":
		return manifest.Config.Trace.Format, nil
	case "dump.out_dir":
		return manifest.path(manifest.Config.Dump.OutDir), nil
	case "cache.dir":
		return manifest.path(manifest.Config.Cache.Dir), nil
	default:
		return v, nil
	}
}

// settingBool is settingString for boolean flags.
func settingBool(cmd *cobra.Command, flag string, keys ...string) (bool, error) {
	v, err := cmd.Flags().GetBool(flag)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !manifest.defined(keys...) {
		return v, nil
	}
	switch strings.Join(keys, ".") {
	case "dump.import_only":
		return manifest.Config.Dump.ImportOnly, nil
	case "cache.enabled":
		return manifest.Config.Cache.Enabled, nil
	default:
		return v, nil
	}
}

// settingInt is settingString for integer flags.
func settingInt(cmd *cobra.Command, flag string, keys ...string) (int, error) {
	v, err := cmd.Flags().GetInt(flag)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !manifest.defined(keys...) {
		return v, nil
	}
	if strings.Join(keys, ".") == "dump.jobs" {
		return manifest.Config.Dump.Jobs, nil
	}
	return v, nil
}
