package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/strollcast/strollcast/internal/catalog"
	"github.com/strollcast/strollcast/internal/config"
	"github.com/strollcast/strollcast/internal/download"
	"github.com/strollcast/strollcast/internal/kv"
	"github.com/strollcast/strollcast/internal/logging"
	"github.com/strollcast/strollcast/internal/models"
	"github.com/strollcast/strollcast/internal/notes"
	"github.com/strollcast/strollcast/internal/transcript"
)

// commandContext lazily builds the services commands share. Config and
// logger are constructed once per invocation.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	cfg        *config.Config
	cfgErr     error

	logOnce sync.Once
	logger  *slog.Logger
	logErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.cfgErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.cfgErr = err
			return
		}
		c.cfg = cfg
	})
	return c.cfg, c.cfgErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.logOnce.Do(func() {
		c.logger, c.logErr = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		})
	})
	return c.logger, c.logErr
}

func (c *commandContext) openStore() (*kv.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return kv.Open(filepath.Join(cfg.DataDir, "state.db"))
}

func (c *commandContext) newCatalog() (*catalog.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.NewClient(cfg.CatalogURL), nil
}

func (c *commandContext) newTracker() (*download.Tracker, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return download.NewTracker(cfg.DownloadDir, logger), nil
}

func (c *commandContext) newNotesStore() (*notes.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return notes.NewStore(cfg.NotesDir, logger), nil
}

func (c *commandContext) newTranscripts() (*transcript.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return transcript.NewService(cfg.TranscriptDir, logger), nil
}

// lookupEpisode fetches the catalog and resolves id against it.
func (c *commandContext) lookupEpisode(ctx context.Context, client *catalog.Client, id string) (models.Episode, error) {
	if _, err := client.Episodes(ctx); err != nil {
		return models.Episode{}, fmt.Errorf("fetch catalog: %w", err)
	}
	return client.Lookup(id)
}
