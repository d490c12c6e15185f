package bootstrap

import (
	"careers-ui-suite/internal/config"
	"fmt"

	"go.uber.org/zap"
)

func newLogger(conf *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if conf.AppConfig.Debug {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Sampling = nil
	}

	zapConfig.DisableStacktrace = true

	if conf.AppConfig.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(conf.AppConfig.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}

		zapConfig.Level = level
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}
