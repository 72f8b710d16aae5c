package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix prefixes environment overrides, e.g. INKPOT_SERVER_ADDR.
	envPrefix = "INKPOT"
)

// Config keys.
const (
	cfgKeyDataDir        = "data_dir"
	cfgKeySiteTitle      = "site.title"
	cfgKeyServerAddr     = "server.addr"
	cfgKeyStoreBackend   = "store.backend"
	cfgKeyCounterBackend = "counter.backend"
	cfgKeyRedisURL       = "counter.redis_url"
	cfgKeyCountOnRead    = "views.count_on_read"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogFormat      = "log.format"
)

var configDefaults = map[string]any{
	cfgKeyDataDir:        "",
	cfgKeySiteTitle:      "inkpot",
	cfgKeyServerAddr:     "127.0.0.1:8080",
	cfgKeyStoreBackend:   types.BackendSQLite,
	cfgKeyCounterBackend: types.CounterMemory,
	cfgKeyRedisURL:       "redis://localhost:6379/0",
	cfgKeyCountOnRead:    true,
	cfgKeyLogLevel:       "info",
	cfgKeyLogFormat:      "text",
}

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# inkpot configuration
# Every key can be overridden with an INKPOT_ environment variable,
# e.g. INKPOT_COUNTER_BACKEND=redis.

site:
  title: inkpot

server:
  addr: 127.0.0.1:8080

store:
  backend: sqlite

# View counters: memory (lost on restart) or redis.
counter:
  backend: memory
  redis_url: redis://localhost:6379/0

views:
  count_on_read: true

log:
  level: info
  format: text

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// settings is the decoded configuration.
type settings struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Site    struct {
		Title string `mapstructure:"title" yaml:"title"`
	} `mapstructure:"site" yaml:"site"`
	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
	Store struct {
		Backend string `mapstructure:"backend" yaml:"backend"`
	} `mapstructure:"store" yaml:"store"`
	Counter struct {
		Backend  string `mapstructure:"backend" yaml:"backend"`
		RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	} `mapstructure:"counter" yaml:"counter"`
	Views struct {
		CountOnRead bool `mapstructure:"count_on_read" yaml:"count_on_read"`
	} `mapstructure:"views" yaml:"views"`
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`
}

// storeConfig returns the backend configuration for dataDir.
func (s settings) storeConfig(dataDir string) types.Config {
	return types.Config{
		Backend: s.Store.Backend,
		DataDir: dataDir,
		Counter: types.CounterConfig{
			Backend:  s.Counter.Backend,
			RedisURL: s.Counter.RedisURL,
		},
	}
}

// loadConfig reads config.yaml from configDir, layering environment
// overrides on top. It creates the config directory and a default
// config.yaml on first run.
func loadConfig(configDir string) (settings, error) {
	var s settings
	if err := ensureConfigDir(configDir); err != nil {
		return s, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return s, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	for k, val := range configDefaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return s, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
