// Package cli provides support code for the flaglink command-line tool:
// configuration defaults, flag-file loading, and output rendering.
package cli

import (
	"github.com/spf13/viper"
)

// Config holds CLI defaults loaded from environment variables or an
// optional .env file. Priority: command-line flags > environment
// variables > .env file > defaults.
type Config struct {
	DataFile string // Path to the flag/segment data file
	UserFile string // Path to the default user JSON file
	Format   string // Default output format (table, json, yaml)
}

// LoadConfig reads CLI defaults from the environment.
func LoadConfig() *Config {
	v := viper.New()
	v.SetConfigFile(".env") // Optional; silently ignored if missing
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	v.SetDefault("FLAGLINK_DATA_FILE", "flags.json")
	v.SetDefault("FLAGLINK_USER_FILE", "")
	v.SetDefault("FLAGLINK_FORMAT", string(FormatTable))

	return &Config{
		DataFile: v.GetString("FLAGLINK_DATA_FILE"),
		UserFile: v.GetString("FLAGLINK_USER_FILE"),
		Format:   v.GetString("FLAGLINK_FORMAT"),
	}
}

// Resolve overlays non-empty command-line values onto the environment
// defaults.
func (c *Config) Resolve(dataFile, userFile, format string) Config {
	out := *c
	if dataFile != "" {
		out.DataFile = dataFile
	}
	if userFile != "" {
		out.UserFile = userFile
	}
	if format != "" {
		out.Format = format
	}
	return out
}
