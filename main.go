package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/deploymenttheory/afpack/cmd"
	"github.com/deploymenttheory/afpack/internal/config"
	"github.com/deploymenttheory/afpack/internal/logger"
)

func main() {
	// The config file may come from the environment or from --config
	configFile := os.Getenv("AFPACK_CONFIG")
	if fromArgs := flagValue(os.Args[1:], "--config"); fromArgs != "" {
		configFile = fromArgs
	}

	// 1. Initialize application configuration
	if err := config.Initialize(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logging based on application configuration
	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	logger.LogDebug("Application started", map[string]interface{}{
		"config_file": config.ConfigFile,
		"args":        os.Args[1:],
	})

	// 3. Run the CLI. Execute exits non-zero on failure.
	cmd.Execute()

	// Ensure logs are flushed before exit
	logger.Sync()
}

// initLogging initializes the logger based on configuration settings
func initLogging() error {
	logConfig := logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	}

	return logger.InitLogger(logConfig)
}

// flagValue finds a flag's value in raw arguments, accepting "--flag value"
// and "--flag=value"
func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}

		if strings.HasPrefix(arg, name+"=") {
			return arg[len(name)+1:]
		}
	}
	return ""
}
