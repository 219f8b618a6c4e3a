package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

const (
	ProjectConfigName = "widgetforge"
	EnvPrefix         = "WIDGETFORGE"
)

// Config is the project-level configuration read from widgetforge.yaml and
// WIDGETFORGE_* environment variables.
type Config struct {
	AppsDir    string `mapstructure:"apps_dir"`
	ModulesDir string `mapstructure:"modules_dir"`
	BuildDir   string `mapstructure:"build_dir"`
	Server     Server `mapstructure:"server"`
	Watch      Watch  `mapstructure:"watch"`
	Deploy     Deploy `mapstructure:"deploy"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Watch struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Deploy struct {
	Command string `mapstructure:"command"`
}

func Default() *Config {
	return &Config{
		AppsDir:    "apps",
		ModulesDir: "modules",
		BuildDir:   "build",
		Server: Server{
			Host: "127.0.0.1",
			Port: 4040,
		},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
		},
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BuildContext resolves the configured directories against projectRoot.
func (c *Config) BuildContext(projectRoot string) (models.BuildContext, error) {
	return models.NewBuildContext(projectRoot, c.AppsDir, c.ModulesDir, c.BuildDir)
}

// NewViper returns a viper instance preloaded with defaults and environment
// bindings. Callers may bind flags before passing it to Load.
func NewViper(projectRoot string) *viper.Viper {
	def := Default()
	v := viper.New()
	v.SetDefault("apps_dir", def.AppsDir)
	v.SetDefault("modules_dir", def.ModulesDir)
	v.SetDefault("build_dir", def.BuildDir)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("watch.debounce", def.Watch.Debounce)
	v.SetDefault("deploy.command", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(ProjectConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(projectRoot)
	return v
}

// Load reads the optional project config file into v and decodes it. A
// missing file falls back to defaults and environment.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read project config: %w", err)
		}
		logger.Debug("No project config file found, using defaults")
	} else {
		logger.Debug("Project config file found: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode project config: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	logger.Debug("Config: %+v", cfg)

	return &cfg, nil
}
