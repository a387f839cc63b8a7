package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/tzmeta/am.toml
	SourceUser        ConfigSource = "user"        // ~/.tzmeta/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found upward from the working directory
	SourceEnvironment ConfigSource = "environment" // TZMETA_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Introspection lists the cascade files and where every effective setting came from
type Introspection struct {
	Files    []Candidate   `json:"files" yaml:"files"`
	Settings []SettingInfo `json:"settings" yaml:"settings"`
}

// Introspect reports the active configuration with sources
func Introspect() *Introspection {
	v := GetViper()

	mu.Lock()
	sources := ConfigSources
	mu.Unlock()

	out := &Introspection{}
	for _, c := range CandidatePaths() {
		if c.Exists() {
			out.Files = append(out.Files, c)
		}
	}
	out.Settings = settingsWithSources(v.AllKeys(), v.Get, sources)
	return out
}

// settingsWithSources assigns a source to each key, sorted by key.
// An environment variable wins over any file.
func settingsWithSources(keys []string, get func(string) interface{}, sources map[string]SourceInfo) []SettingInfo {
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sources[key]; ok {
			info = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if os.Getenv(envKey) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings
}
