package app

import (
	"fmt"

	"github.com/samvad-hq/petfriends-harness/internal/config"
	"github.com/samvad-hq/petfriends-harness/internal/logger"
	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

// NewClient builds the PetFriends client described by cfg.
func NewClient(cfg *config.Config, log logger.Logger) (*petfriends.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	client, err := petfriends.New(petfriends.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("init petfriends client: %w", err)
	}
	return client, nil
}
