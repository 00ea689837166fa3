package main

import (
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fibre/internal/config"
	"github.com/vango-dev/fibre/internal/errors"
)

type globalOptions struct {
	configPath string
}

// loadConfig loads the configuration named by --config, or the one of the
// project containing the working directory. Without a config file it warns
// and returns the defaults.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case o.configPath == "":
		cfg, err = config.LoadFromDir(".")
	case isDir(o.configPath):
		cfg, err = config.Load(o.configPath)
	default:
		cfg, err = config.LoadFile(o.configPath)
	}

	var fe *errors.Error
	if err != nil && o.configPath == "" && stderrors.As(err, &fe) && fe.Code == "F070" {
		warn(cmd, "No %s found, using defaults", config.ConfigFileName)
		cfg, err = config.New(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
