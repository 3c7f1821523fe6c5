package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// config holds the CLI's optional defaults, loaded from a TOML file. The
// core vm package has no notion of configuration - this is purely a
// convenience for the host binary.
type config struct {
	SourcePath string `toml:"source_path"`
	WorldPath  string `toml:"world_path"`
	EntryPoint string `toml:"entry_point"`
	Debug      bool   `toml:"debug"`
}

// loadConfig reads path as TOML. A missing file is not an error: the CLI
// falls back to flag defaults.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
