package usecase

import (
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/engine"
	"careers-ui-suite/internal/pages"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/internal/wait"

	"go.uber.org/zap"
)

// envFactory binds a fresh engine and page set to each opened session.
type envFactory struct {
	config  *config.Config
	logger  *zap.Logger
	metrics *engine.Metrics
	policy  wait.Policy
}

func newEnvFactory(deps Params) (*envFactory, error) {
	policy, err := wait.NewPolicy(deps.Config.WaitConfig.Timeout, deps.Config.WaitConfig.PollInterval)
	if err != nil {
		return nil, err
	}

	return &envFactory{
		config:  deps.Config,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		policy:  policy,
	}, nil
}

func (f *envFactory) CreateEnv(session ports.Session, logger *zap.Logger, observer ports.ResultObserver) *Env {
	e := engine.New(engine.Params{
		Session:  session,
		Policy:   f.policy,
		Logger:   logger,
		Metrics:  f.metrics,
		Observer: observer,
	})

	return &Env{
		UI:      e,
		Home:    pages.NewHomePage(e, logger, f.config.SiteConfig.BaseURL, f.config.WaitConfig.OptionalTimeout),
		Careers: pages.NewCareersPage(e, logger),
		QAJobs:  pages.NewQAJobsPage(e, logger),
	}
}

func (f *envFactory) SessionOptions() ports.SessionOptions {
	return ports.SessionOptions{
		MaximizeWindow: f.config.BrowserConfig.Maximize,
		Headless:       f.config.BrowserConfig.Headless,
	}
}
