package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config keys.
const (
	cfgQubits            = "qubits"
	cfgSimulatorURL      = "simulator.url"
	cfgSimulatorTimeout  = "simulator.timeout"
	cfgSimulatorAttempts = "simulator.attempts"
	cfgStorePath         = "store.path"
	cfgServerAddr        = "server.addr"
	cfgLogFile           = "log.file"
	cfgLogLevel          = "log.level"
)

const appName = "qcanvas"

// Config holds the resolved settings for every command.
type Config struct {
	Qubits            int
	SimulatorURL      string
	SimulatorTimeout  time.Duration
	SimulatorAttempts uint
	StorePath         string
	ServerAddr        string
	LogFile           string
	LogLevel          log.Level
}

// configDir returns the directory holding config.yaml and the circuit library.
func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return "." + appName
}

// loadConfig reads config.yaml from dir (or the file at path when set),
// environment variables prefixed QCANVAS_, and defaults. A missing config
// file is not an error.
func loadConfig(dir, path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(cfgQubits, MinQubits)
	v.SetDefault(cfgSimulatorURL, "")
	v.SetDefault(cfgSimulatorTimeout, 10*time.Second)
	v.SetDefault(cfgSimulatorAttempts, 3)
	v.SetDefault(cfgStorePath, filepath.Join(dir, "circuits.db"))
	v.SetDefault(cfgServerAddr, ":8080")
	v.SetDefault(cfgLogFile, "")
	v.SetDefault(cfgLogLevel, "info")

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	level, err := log.ParseLevel(v.GetString(cfgLogLevel))
	if err != nil {
		return nil, err
	}

	return &Config{
		Qubits:            min(max(v.GetInt(cfgQubits), MinQubits), MaxQubits),
		SimulatorURL:      v.GetString(cfgSimulatorURL),
		SimulatorTimeout:  v.GetDuration(cfgSimulatorTimeout),
		SimulatorAttempts: v.GetUint(cfgSimulatorAttempts),
		StorePath:         v.GetString(cfgStorePath),
		ServerAddr:        v.GetString(cfgServerAddr),
		LogFile:           v.GetString(cfgLogFile),
		LogLevel:          level,
	}, nil
}

// simulator returns the remote simulator when a URL is configured and the
// in-process one otherwise.
func (c *Config) simulator(logger *log.Logger) Simulator {
	if c.SimulatorURL == "" {
		return LocalSimulator{}
	}
	return NewHTTPSimulator(c.SimulatorURL, c.SimulatorTimeout, c.SimulatorAttempts, logger)
}
