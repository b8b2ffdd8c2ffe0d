package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"audiopack/internal/config"
	"audiopack/internal/journal"
	"audiopack/internal/logging"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
	flags      *overrideFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *logging.Logger
	loggerErr  error
}

func newCommandContext(configFlag, envFlag *string, flags *overrideFlags) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
		flags:      flags,
	}
}

// loadEnv reads the env file into the process environment without
// overriding variables that are already set. A missing file is fine.
func (c *commandContext) loadEnv() error {
	if c.envFlag == nil {
		return nil
	}
	path := strings.TrimSpace(*c.envFlag)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if c.flags != nil {
			if err := c.flags.apply(cfg); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	return c.config
}

func (c *commandContext) ensureLogger(cmd *cobra.Command) (*logging.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		opts := logging.Options{Level: "info", Format: "console", Console: cmd.ErrOrStderr()}
		if cfg != nil {
			opts.Level = cfg.Logging.Level
			opts.Format = cfg.Logging.Format
			opts.File = cfg.Logging.File
			opts.FileMaxSizeMB = cfg.Logging.MaxSizeMB
			opts.FileMaxBackups = cfg.Logging.MaxBackups
		}
		c.logger, c.loggerErr = logging.New(opts)
	})
	return c.logger, c.loggerErr
}

// openJournal returns nil when the journal is disabled. Open failures are
// reported to the caller, which treats history as advisory.
func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg := c.configValue()
	if cfg == nil || !cfg.Journal.Enabled {
		return nil, nil
	}
	return journal.Open(cfg.JournalPath())
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
