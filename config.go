package ion

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds ion's user-configurable settings, loaded the way
// Pur1st2EpicONE-Ebash's internal/config package loads its own: viper
// reads an $ION_-prefixed environment override, then a dotfile, falling
// back to Default() on any error so a missing or malformed config file
// never stops the shell from starting.
type Config struct {
	HistoryFile     string `mapstructure:"history_file"`
	HistoryLimit    int    `mapstructure:"history_limit"`
	CheckInterval   uint   `mapstructure:"check_interval"`
	InterruptPrompt string `mapstructure:"interrupt_prompt"`
	EOFPrompt       string `mapstructure:"exit_message"`
	PrintCommands   bool   `mapstructure:"print_commands"`
	HistoryDBPath   string `mapstructure:"history_db"`
	Debug           bool   `mapstructure:"debug"`
}

// Default returns the Config ion boots with when no config file is found,
// mirroring ebash's config.Default().
func Default() *Config {
	home := os.Getenv("HOME")
	return &Config{
		HistoryFile:     filepath.Join(home, ".ion_history"),
		HistoryLimit:    1000,
		CheckInterval:   0,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		PrintCommands:   false,
		HistoryDBPath:   filepath.Join(home, ".ion_history.sqlite"),
		Debug:           false,
	}
}

// LoadConfig reads "$HOME/.ionrc" (parsed as YAML) with ION_-prefixed
// environment variables overriding file values and defaults. A missing file
// leaves the defaults plus any environment overrides; any other read or
// unmarshal error falls back to Default() exactly as the teacher's
// config.Load() does for ebash.
func LoadConfig() *Config {
	v := viper.New()
	v.SetConfigName(".ionrc")
	v.SetConfigType("yaml")
	if home := os.Getenv("HOME"); home != "" {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix("ION")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("history_file", def.HistoryFile)
	v.SetDefault("history_limit", def.HistoryLimit)
	v.SetDefault("check_interval", def.CheckInterval)
	v.SetDefault("interrupt_prompt", def.InterruptPrompt)
	v.SetDefault("exit_message", def.EOFPrompt)
	v.SetDefault("print_commands", def.PrintCommands)
	v.SetDefault("history_db", def.HistoryDBPath)
	v.SetDefault("debug", def.Debug)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "ion: config: %v\n", err)
			return def
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ion: config: %v\n", err)
		return def
	}
	return cfg
}
