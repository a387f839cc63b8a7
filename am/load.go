package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/tzmeta/errors"
)

// ConfigFileName is the file searched for in every cascade location
const ConfigFileName = "am.toml"

// EnvPrefix prefixes every environment override (TZMETA_NODE_ENDPOINT, ...)
const EnvPrefix = "TZMETA"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file set each key during the last load
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the tzmeta configuration using Viper
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViperLocked())
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViperLocked()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the defaults
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only; no environment binding for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing and reloads)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViperLocked initializes Viper with configuration sources and defaults
func initViperLocked() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	// Precedence (lowest to highest): system < user < project < env vars
	ConfigSources = mergeConfigFiles(v, CandidatePaths())

	viperInstance = v
	return v
}

// CandidatePaths lists the config files of the cascade in precedence order,
// lowest first. Files that do not exist are included.
func CandidatePaths() []Candidate {
	paths := []Candidate{
		{Source: SourceSystem, Path: filepath.Join("/etc/tzmeta", ConfigFileName)},
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, Candidate{Source: SourceUser, Path: filepath.Join(home, ".tzmeta", ConfigFileName)})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, Candidate{Source: SourceProject, Path: project})
	}
	return paths
}

// Candidate is one file location of the cascade
type Candidate struct {
	Source ConfigSource `json:"source" yaml:"source"`
	Path   string       `json:"path" yaml:"path"`
}

// Exists reports whether the candidate file is present
func (c Candidate) Exists() bool {
	_, err := os.Stat(c.Path)
	return err == nil
}

// findProjectConfig searches for am.toml by walking up the directory tree.
// Returns the first path found, or empty string.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// mergeConfigFiles merges the existing candidates into v in order and
// returns the file that last set each key
func mergeConfigFiles(v *viper.Viper, candidates []Candidate) map[string]SourceInfo {
	sources := map[string]SourceInfo{}
	for _, c := range candidates {
		if !c.Exists() {
			continue
		}
		tempViper := viper.New()
		tempViper.SetConfigFile(c.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			v.Set(key, tempViper.Get(key))
			sources[key] = SourceInfo{Source: c.Source, Path: c.Path}
		}
	}
	return sources
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}
