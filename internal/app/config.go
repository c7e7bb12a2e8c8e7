package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vk/flowgrid/internal/scheduler"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowPath string // flow file or directory (.hcl, .yaml, .yml, .json)

	LogFormat   string `validate:"oneof=text json"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	WorkerCount int    `validate:"min=0"`
	MaxWaves    int    `validate:"min=0"`
	HTTPPort    int    `validate:"min=0,max=65535"`
}

// NewConfig validates cfg and fills unset numeric fields with defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := validator.New().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid %s %v: failed on '%s' rule", fe.Field(), fe.Value(), fe.Tag())
		}
		return nil, err
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = scheduler.DefaultWorkers
	}
	if cfg.MaxWaves == 0 {
		cfg.MaxWaves = scheduler.DefaultMaxWaves
	}
	return &cfg, nil
}
