package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/engine"
	"github.com/Belphemur/MediaFetch/internal/errreport"
	"github.com/Belphemur/MediaFetch/internal/jobs"
	"github.com/Belphemur/MediaFetch/internal/jobstore"
	"github.com/Belphemur/MediaFetch/internal/services"
)

// commandContext carries what every subcommand needs: the configuration and
// the way to build the extraction engine.
type commandContext struct {
	configFlag string

	newEngine func(cfg *config.Config) engine.Engine

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{
		newEngine: func(cfg *config.Config) engine.Engine {
			return engine.NewYtdlpEngine(cfg.Engine.Binary)
		},
	}
}

// ensureConfig loads the --config file when one is given, otherwise the
// configuration found on the default search paths.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.configFlag)
		if path == "" {
			c.config = config.GetConfig()
		} else {
			cfg, err := config.LoadConfigFile(path)
			if err != nil {
				c.configErr = fmt.Errorf("load configuration: %w", err)
				return
			}
			config.SetConfig(cfg)
			c.config = cfg
		}
		if err := errreport.InitFromConfig(c.config, version); err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		}
	})
	return c.config, c.configErr
}

// newRunner wires the downloader for one-shot CLI use; async jobs never
// outlive the process, so they stay in memory.
func (c *commandContext) newRunner(cfg *config.Config) (*jobs.Runner, func(), error) {
	store, err := jobstore.New("memory", jobstore.ProviderConfig{Size: 16, TTL: time.Hour})
	if err != nil {
		return nil, nil, err
	}
	downloader := services.NewDownloader(c.newEngine(cfg), services.SettingsFromConfig(cfg))
	runner := jobs.NewRunner(downloader, store, jobs.SettingsFromConfig(cfg))
	return runner, func() {
		runner.Close()
		_ = store.Close()
	}, nil
}
