package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/deploymenttheory/afpack/internal/utils/fsutil"
	"github.com/deploymenttheory/afpack/internal/utils/osutil"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "afpack"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "AFPACK"
)

// Removal modes for the artifact directory once its image exists
const (
	RemovalTrash  = "trash"
	RemovalDelete = "delete"
)

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug       bool   `mapstructure:"debug"`
	LogFormat   string `mapstructure:"log_format"`
	LogFile     string `mapstructure:"log_file"`
	SkipOSCheck bool   `mapstructure:"skip_os_check"`

	// Pack settings
	Pack struct {
		MaxSize       string        `mapstructure:"max_size"`
		Compress      string        `mapstructure:"compress"`
		SettleDelay   time.Duration `mapstructure:"settle_delay"`
		FinalPass     bool          `mapstructure:"final_pass"`
		FinalPassKind string        `mapstructure:"final_pass_kind"`
		Removal       string        `mapstructure:"removal"` // trash or delete
	} `mapstructure:"pack"`

	// Diskutil settings
	Diskutil struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"diskutil"`

	// Compression settings
	Compression struct {
		Tool           string  `mapstructure:"tool"`
		Workers        int     `mapstructure:"workers"`
		MinRatio       float64 `mapstructure:"min_ratio"`
		SkipCompressed bool    `mapstructure:"skip_compressed"`
	} `mapstructure:"compression"`
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	// Viper instance
	v *viper.Viper

	// Ensure thread safety
	initOnce sync.Once
)

// Initialize sets up the configuration system
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		var cfg AppConfig
		v, cfg, err = load(cfgFile)
		if err != nil {
			return
		}
		Instance = cfg
		ConfigFile = v.ConfigFileUsed()
		ConfigLoaded = ConfigFile != ""

		// Ensure required directories exist
		ensureDirectories(afero.NewOsFs())
	})

	return err
}

// load builds a viper instance from defaults, the config file and the environment
func load(cfgFile string) (*viper.Viper, AppConfig, error) {
	var cfg AppConfig

	vp := viper.New()
	setDefaults(vp)

	// Load configuration from file if specified
	if cfgFile != "" {
		vp.SetConfigFile(cfgFile)
	} else {
		vp.SetConfigName(AppName)
		vp.SetConfigType("yaml")
		addSearchPaths(vp)
	}

	// Set up environment variables
	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vp.AutomaticEnv()

	if readErr := vp.ReadInConfig(); readErr != nil {
		// A missing config file means defaults and environment only
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			return nil, cfg, fmt.Errorf("%w: %v", errors.ErrConfigParseError, readErr)
		}
	}

	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, cfg, fmt.Errorf("%w: %v", errors.ErrConfigParseError, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, cfg, err
	}

	return vp, cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("skip_os_check", false)

	// Set default log file based on OS
	logDir, err := fsutil.GetLogDir(AppName)
	if err == nil {
		v.SetDefault("log_file", filepath.Join(logDir, "afpack.log"))
	} else {
		v.SetDefault("log_file", "logs/afpack.log")
	}

	// Pack defaults
	v.SetDefault("pack.max_size", "10G")
	v.SetDefault("pack.compress", "none")
	v.SetDefault("pack.settle_delay", "3s")
	v.SetDefault("pack.final_pass", true)
	v.SetDefault("pack.final_pass_kind", "lzfse")
	v.SetDefault("pack.removal", RemovalTrash)

	v.SetDefault("diskutil.path", "diskutil")

	// Compression defaults
	v.SetDefault("compression.tool", "afsctool")
	v.SetDefault("compression.workers", 2)
	v.SetDefault("compression.min_ratio", 1.0)
	v.SetDefault("compression.skip_compressed", true)
}

// Validate checks the values that cannot be caught by unmarshalling alone
func Validate(cfg AppConfig) error {
	switch cfg.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("%w: log_format must be human or json, got %q", errors.ErrConfigInvalid, cfg.LogFormat)
	}

	switch cfg.Pack.Removal {
	case RemovalTrash, RemovalDelete:
	default:
		return fmt.Errorf("%w: pack.removal must be %s or %s, got %q", errors.ErrConfigInvalid, RemovalTrash, RemovalDelete, cfg.Pack.Removal)
	}

	if cfg.Pack.SettleDelay < 0 {
		return fmt.Errorf("%w: pack.settle_delay must not be negative", errors.ErrConfigInvalid)
	}

	if cfg.Compression.Workers < 1 {
		return fmt.Errorf("%w: compression.workers must be at least 1, got %d", errors.ErrConfigInvalid, cfg.Compression.Workers)
	}

	if cfg.Compression.MinRatio <= 0 || cfg.Compression.MinRatio > 1 {
		return fmt.Errorf("%w: compression.min_ratio must be in (0, 1], got %g", errors.ErrConfigInvalid, cfg.Compression.MinRatio)
	}

	if cfg.Diskutil.Path == "" || cfg.Compression.Tool == "" {
		return fmt.Errorf("%w: diskutil.path and compression.tool must be set", errors.ErrConfigInvalid)
	}

	return nil
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	// In dev mode, only use current directory and the local config directory
	if osutil.IsDevEnvironment() {
		configDir, err := fsutil.GetConfigDir(AppName)
		if err == nil {
			v.AddConfigPath(configDir)
		}
		return
	}

	// In CI/Pipeline, only use current directory and explicit CI directories
	if isRunningInPipeline() {
		v.AddConfigPath("/etc/" + AppName)
		return
	}

	configDir, err := fsutil.GetConfigDir(AppName)
	if err == nil {
		v.AddConfigPath(configDir)
	}

	systemConfigDir, err := fsutil.GetSystemConfigDir(AppName)
	if err == nil {
		v.AddConfigPath(systemConfigDir)
	}
}

// ensureDirectories creates necessary directories based on configuration
func ensureDirectories(fs afero.Fs) {
	// Don't create directories in a pipeline environment unless explicitly requested
	if isRunningInPipeline() && os.Getenv("CREATE_DIRS") != "true" {
		return
	}

	if Instance.LogFile != "" {
		_ = fsutil.CreateDirIfNotExists(fs, filepath.Dir(Instance.LogFile))
	}
}

// SaveConfig saves the current configuration to a file
func SaveConfig(fs afero.Fs, filePath string) error {
	saveV := viper.New()
	saveV.SetFs(fs)
	saveV.SetConfigFile(filePath)

	for k, val := range structToMap(Instance) {
		saveV.Set(k, val)
	}

	if err := fsutil.CreateDirIfNotExists(fs, filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return saveV.WriteConfig()
}

// structToMap converts the config struct to a nested map keyed by mapstructure tags
func structToMap(cfg AppConfig) map[string]interface{} {
	return map[string]interface{}{
		"debug":         cfg.Debug,
		"log_format":    cfg.LogFormat,
		"log_file":      cfg.LogFile,
		"skip_os_check": cfg.SkipOSCheck,
		"pack": map[string]interface{}{
			"max_size":        cfg.Pack.MaxSize,
			"compress":        cfg.Pack.Compress,
			"settle_delay":    cfg.Pack.SettleDelay.String(),
			"final_pass":      cfg.Pack.FinalPass,
			"final_pass_kind": cfg.Pack.FinalPassKind,
			"removal":         cfg.Pack.Removal,
		},
		"diskutil": map[string]interface{}{
			"path": cfg.Diskutil.Path,
		},
		"compression": map[string]interface{}{
			"tool":            cfg.Compression.Tool,
			"workers":         cfg.Compression.Workers,
			"min_ratio":       cfg.Compression.MinRatio,
			"skip_compressed": cfg.Compression.SkipCompressed,
		},
	}
}

// isRunningInPipeline returns true if running in a CI/CD pipeline environment
func isRunningInPipeline() bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("PIPELINE") == "true" ||
		os.Getenv("GITHUB_ACTIONS") == "true" ||
		os.Getenv("JENKINS_URL") != ""
}
