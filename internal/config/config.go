package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"nudeploy/internal/env"
)

/**
 * Server configuration parameters
 * @property {string} address - Server listening address (e.g. "127.0.0.1:8089")
 * @property {string} socket - Optional unix socket path, empty disables it
 * @property {string} mode - Gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Socket  string `mapstructure:"socket"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stdout
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address, empty disables pushing
 * @property {string} job - Job name used when pushing
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

/**
 * Directory layout
 * @property {string} packages - Root of installed <Id>.<Version> folders
 * @property {string} config - Registry and sources files
 * @property {string} cache - Downloaded archives
 * @property {string} logs - Log files
 * @property {string} data - History database
 */
type DirectoryConfig struct {
	Packages string `mapstructure:"packages"`
	Config   string `mapstructure:"config"`
	Cache    string `mapstructure:"cache"`
	Logs     string `mapstructure:"logs"`
	Data     string `mapstructure:"data"`
}

type RegistryConfig struct {
	File string `mapstructure:"file"`
	Lock bool   `mapstructure:"lock"`
}

type SourcesConfig struct {
	File string `mapstructure:"file"`
}

/**
 * Package script configuration
 * @property {string} interpreter - Program that runs the script
 * @property {[]string} args - Argument templates, {{.Script}} is the script path
 * @property {string} install - Install script name at the package root
 * @property {string} uninstall - Uninstall script name at the package root
 */
type ScriptConfig struct {
	Interpreter string   `mapstructure:"interpreter"`
	Args        []string `mapstructure:"args"`
	Install     string   `mapstructure:"install"`
	Uninstall   string   `mapstructure:"uninstall"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Script    ScriptConfig    `mapstructure:"script"`
	History   HistoryConfig   `mapstructure:"history"`
}

const (
	DefaultInstallScript   = "Deploy.sh"
	DefaultUninstallScript = "Remove.sh"
	RegistryFileName       = "NuDeploy.Packages.config"
	SourcesFileName        = "NuDeploy.Sources.config"
)

var Config AppConfig

/**
 * Load application configuration
 * @param {string} file - Explicit config file, empty to search
 * @returns {*AppConfig} Loaded configuration with defaults filled in
 * @description
 * - Searches config.yaml in $NUDEPLOY_HOME then the working directory
 * - A missing config file is not an error
 * - Environment variables NUDEPLOY_<SECTION>_<KEY> override the file
 * @throws
 * - Parse error of an existing config file
 */
func LoadConfig(file string) (*AppConfig, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(env.NuDeployDir)
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("NUDEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return collectConfig(&cfg), nil
}

/**
 * Load configuration into the package-level Config
 */
func Init(file string) error {
	cfg, err := LoadConfig(file)
	if err != nil {
		return err
	}
	Config = *cfg
	return nil
}

func App() *AppConfig {
	return &Config
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8089")
	v.SetDefault("server.socket", "")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", "nudeploy")
	v.SetDefault("directory.packages", "")
	v.SetDefault("directory.config", "")
	v.SetDefault("directory.cache", "")
	v.SetDefault("directory.logs", "")
	v.SetDefault("directory.data", "")
	v.SetDefault("registry.file", "")
	v.SetDefault("registry.lock", true)
	v.SetDefault("sources.file", "")
	v.SetDefault("script.interpreter", "sh")
	v.SetDefault("script.args", []string{"{{.Script}}"})
	v.SetDefault("script.install", DefaultInstallScript)
	v.SetDefault("script.uninstall", DefaultUninstallScript)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "")
}

func collectConfig(cfg *AppConfig) *AppConfig {
	home := env.NuDeployDir
	if cfg.Directory.Packages == "" {
		cfg.Directory.Packages = filepath.Join(home, "packages")
	}
	if cfg.Directory.Config == "" {
		cfg.Directory.Config = filepath.Join(home, "config")
	}
	if cfg.Directory.Cache == "" {
		cfg.Directory.Cache = filepath.Join(home, "cache")
	}
	if cfg.Directory.Logs == "" {
		cfg.Directory.Logs = filepath.Join(home, "logs")
	}
	if cfg.Directory.Data == "" {
		cfg.Directory.Data = filepath.Join(home, "data")
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(cfg.Directory.Logs, "nudeploy.log")
	}
	if cfg.Registry.File == "" {
		cfg.Registry.File = filepath.Join(cfg.Directory.Config, RegistryFileName)
	}
	if cfg.Sources.File == "" {
		cfg.Sources.File = filepath.Join(cfg.Directory.Config, SourcesFileName)
	}
	if cfg.Script.Interpreter == "" {
		cfg.Script.Interpreter = "sh"
	}
	if len(cfg.Script.Args) == 0 {
		cfg.Script.Args = []string{"{{.Script}}"}
	}
	if cfg.Script.Install == "" {
		cfg.Script.Install = DefaultInstallScript
	}
	if cfg.Script.Uninstall == "" {
		cfg.Script.Uninstall = DefaultUninstallScript
	}
	if cfg.History.DSN == "" {
		cfg.History.DSN = filepath.Join(cfg.Directory.Data, "history.db")
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "nudeploy"
	}
	return cfg
}

func init() {
	collectConfig(&Config)
}
