package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "tessnode"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "TESSNODE"

	// DotEnvFile is loaded into the process environment before viper reads it.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v      *viper.Viper
	dotenv string
}

// NewLoader creates a loader on the global viper instance, which is the one
// cobra flags are bound to.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper(), dotenv: DotEnvFile}
}

// NewLoaderWithViper creates a loader on an isolated viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, dotenv: DotEnvFile}
}

// WithDotEnv changes the dotenv file path. An empty path disables it.
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotenv = path
	return l
}

// Load loads configuration from files, environment variables, and sets defaults.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.LoadWithoutValidation()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation loads configuration without validating it.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()

	if err := l.prepare(); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to the search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	if err := l.prepare(); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

func (l *Loader) prepare() error {
	if err := l.loadDotEnv(); err != nil {
		return err
	}
	l.setupEnvironmentVariables()
	l.setDefaults()
	return nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// loadDotEnv never overrides variables already present in the environment.
func (l *Loader) loadDotEnv() error {
	if l.dotenv == "" {
		return nil
	}
	if err := godotenv.Load(l.dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", l.dotenv, err)
	}
	return nil
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key, which also makes AutomaticEnv see it
// during Unmarshal.
func (l *Loader) setDefaults() {
	setDefaults(l.v, DefaultConfig())
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetDefault("engine.language", defaults.Engine.Language)
	v.SetDefault("engine.psm", defaults.Engine.PSM)
	v.SetDefault("engine.dpi", defaults.Engine.DPI)
	v.SetDefault("engine.whitelist", defaults.Engine.Whitelist)
	v.SetDefault("engine.blacklist", defaults.Engine.Blacklist)
	v.SetDefault("engine.tessdata_prefix", defaults.Engine.TessdataPrefix)

	v.SetDefault("operation.mode", defaults.Operation.Mode)
	v.SetDefault("operation.granularity", defaults.Operation.Granularity)
	v.SetDefault("operation.field", defaults.Operation.Field)
	v.SetDefault("operation.bbox.enabled", defaults.Operation.BBox.Enabled)
	v.SetDefault("operation.bbox.top", defaults.Operation.BBox.Top)
	v.SetDefault("operation.bbox.left", defaults.Operation.BBox.Left)
	v.SetDefault("operation.bbox.width", defaults.Operation.BBox.Width)
	v.SetDefault("operation.bbox.height", defaults.Operation.BBox.Height)
	v.SetDefault("operation.timeout_ms", defaults.Operation.TimeoutMS)
	v.SetDefault("operation.resize_percent", defaults.Operation.ResizePercent)
	v.SetDefault("operation.keep_binary", defaults.Operation.KeepBinary)
	v.SetDefault("operation.min_confidence", defaults.Operation.MinConfidence)
	v.SetDefault("operation.continue_on_fail", defaults.Operation.ContinueOnFail)
	v.SetDefault("operation.max_concurrency", defaults.Operation.MaxConcurrency)

	v.SetDefault("pdf.strategy", defaults.PDF.Strategy)
	v.SetDefault("pdf.pages", defaults.PDF.Pages)
	v.SetDefault("pdf.user_password", defaults.PDF.UserPassword)
	v.SetDefault("pdf.owner_password", defaults.PDF.OwnerPassword)

	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.file", defaults.Output.File)
	v.SetDefault("output.pretty", defaults.Output.Pretty)
	v.SetDefault("output.metrics_file", defaults.Output.MetricsFile)
}

// GenerateDefaultConfigFile writes a configuration file holding the defaults.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	v := viper.New()
	setDefaults(v, DefaultConfig())
	return v.WriteConfigAs(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, "/etc/"+ConfigFileName)
}
