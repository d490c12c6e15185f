package bootstrap

import (
	"careers-ui-suite/internal/browser"
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func registerLauncher(lc fx.Lifecycle, launcher *browser.Launcher, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping browser driver...")

			if err := launcher.Shutdown(ctx); err != nil {
				logger.Error("Failed to stop browser driver", zap.Error(err))

				return err
			}

			return nil
		},
	})
}
