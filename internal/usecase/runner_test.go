package usecase

import (
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/engine"
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/pages"
	"careers-ui-suite/internal/pages/pagestest"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/apperr"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type siteFactory struct {
	mu      sync.Mutex
	opts    pagestest.Options
	err     error
	opened  []*pagestest.Site
	options []ports.SessionOptions
}

func (f *siteFactory) Open(_ context.Context, opts ports.SessionOptions) (ports.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.options = append(f.options, opts)

	if f.err != nil {
		return nil, f.err
	}

	site := pagestest.New(f.opts)
	f.opened = append(f.opened, site)

	return site, nil
}

func (f *siteFactory) allClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.opened {
		if !s.Closed() {
			return false
		}
	}

	return true
}

func testConfig() *config.Config {
	return &config.Config{
		AppConfig:     &config.AppConfig{LogLevel: "debug"},
		BrowserConfig: &config.BrowserConfig{Headless: true, Maximize: true},
		WaitConfig: &config.WaitConfig{
			Timeout:         300 * time.Millisecond,
			PollInterval:    10 * time.Millisecond,
			OptionalTimeout: 50 * time.Millisecond,
		},
		SiteConfig:   &config.SiteConfig{BaseURL: pagestest.HomeURL},
		ReportConfig: &config.ReportConfig{},
	}
}

func newTestRunner(t *testing.T, factory *siteFactory) (*Runner, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()

	r, err := NewRunner(Params{
		Config:     testConfig(),
		Logger:     zaptest.NewLogger(t),
		Sessions:   factory,
		Metrics:    engine.NewMetrics(reg),
		Registerer: reg,
	})
	require.NoError(t, err)

	return r, reg
}

func TestRunAllScenariosPass(t *testing.T) {
	factory := &siteFactory{opts: pagestest.Options{CookieBanner: true}}
	r, _ := newTestRunner(t, factory)

	report, err := r.Run(context.Background(), Scenarios(), 2)
	require.NoError(t, err)

	require.Len(t, report.Scenarios, len(Scenarios()))
	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, pagestest.HomeURL, report.BaseURL)
	assert.False(t, report.CompletedAt.Before(report.StartedAt))

	for i, sc := range Scenarios() {
		res := report.Scenarios[i]
		assert.Equal(t, sc.Name, res.Name, "results keep scenario order")
		assert.Equal(t, entity.ScenarioStatusPassed, res.Status, "%s: %s", res.Name, res.Error)
		assert.NotEmpty(t, res.Interactions)
	}

	assert.True(t, report.Passed())
	assert.Len(t, factory.opened, len(Scenarios()), "one session per scenario")
	assert.True(t, factory.allClosed())

	for _, o := range factory.options {
		assert.Equal(t, ports.SessionOptions{MaximizeWindow: true, Headless: true}, o)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(r.metrics.runs.WithLabelValues("home_page_opens", "passed", "")))
}

func TestRunRecordsInteractionsInOrder(t *testing.T) {
	factory := &siteFactory{}
	r, _ := newTestRunner(t, factory)

	scenarios, err := Lookup("home_page_opens")
	require.NoError(t, err)

	report, err := r.Run(context.Background(), scenarios, 1)
	require.NoError(t, err)

	var actions []entity.ActionType
	for _, ir := range report.Scenarios[0].Interactions {
		actions = append(actions, ir.Action)
	}

	assert.Equal(t, []entity.ActionType{
		entity.ActionTypeNavigate,
		entity.ActionTypeIsVisible,
		entity.ActionTypeIsVisible,
	}, actions)

	cookie := report.Scenarios[0].Interactions[1]
	assert.False(t, cookie.Success)
	assert.Equal(t, entity.ActionStateFailed, cookie.State)
	assert.Equal(t, pages.CookieDeclineButton.String(), cookie.Locator)
}

func TestRunReportsFailureKindAndLocator(t *testing.T) {
	tests := []struct {
		name     string
		opts     pagestest.Options
		scenario string
		kind     entity.ErrorKind
		locator  string
	}{
		{
			name:     "missing menu times out",
			opts:     pagestest.Options{Missing: []locator.Locator{pages.CompanyMenu}},
			scenario: "careers_sections_visible",
			kind:     entity.ErrorKindTimeoutExceeded,
			locator:  pages.CompanyMenu.String(),
		},
		{
			name:     "missing section fails assertion",
			opts:     pagestest.Options{Missing: []locator.Locator{pages.LifeAtInsiderHeader}},
			scenario: "careers_sections_visible",
			kind:     entity.ErrorKindAssertionFailed,
		},
		{
			name:     "unfiltered list fails validation",
			opts:     pagestest.Options{Unfiltered: true},
			scenario: "qa_jobs_match_filters",
			kind:     entity.ErrorKindAssertionFailed,
		},
		{
			name:     "empty job list",
			opts:     pagestest.Options{Jobs: []pagestest.Job{}},
			scenario: "view_role_opens_lever",
			kind:     entity.ErrorKindElementNotFound,
			locator:  pages.JobCards.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &siteFactory{opts: tt.opts}
			r, _ := newTestRunner(t, factory)

			scenarios, err := Lookup(tt.scenario)
			require.NoError(t, err)

			report, err := r.Run(context.Background(), scenarios, 1)
			require.NoError(t, err)

			res := report.Scenarios[0]
			assert.Equal(t, entity.ScenarioStatusFailed, res.Status)
			assert.Equal(t, tt.kind, res.ErrorKind, res.Error)
			assert.NotEmpty(t, res.Error)
			if tt.locator != "" {
				assert.Equal(t, tt.locator, res.Locator)
			}

			assert.False(t, report.Passed())
			assert.True(t, factory.allClosed(), "session closed after failure")
		})
	}
}

func TestRunSessionOpenFailure(t *testing.T) {
	factory := &siteFactory{err: errors.New("chromium not installed")}
	r, _ := newTestRunner(t, factory)

	report, err := r.Run(context.Background(), Scenarios()[:2], 2)
	require.NoError(t, err)

	for _, res := range report.Scenarios {
		assert.Equal(t, entity.ScenarioStatusFailed, res.Status)
		assert.Equal(t, entity.ErrorKindSessionNotReady, res.ErrorKind)
		assert.Contains(t, res.Error, "chromium not installed")
	}

	passed, failed := report.Counts()
	assert.Equal(t, 0, passed)
	assert.Equal(t, 2, failed)
}

func TestRunRecoversPanickingScenario(t *testing.T) {
	factory := &siteFactory{}
	r, _ := newTestRunner(t, factory)

	report, err := r.Run(context.Background(), []Scenario{{
		Name: "boom",
		Run:  func(context.Context, *Env) error { panic("bad locator") },
	}}, 1)
	require.NoError(t, err)

	res := report.Scenarios[0]
	assert.Equal(t, entity.ScenarioStatusFailed, res.Status)
	assert.Equal(t, entity.ErrorKindInternal, res.ErrorKind)
	assert.Contains(t, res.Error, "bad locator")
	assert.True(t, factory.allClosed())
}

func TestRunCancelled(t *testing.T) {
	factory := &siteFactory{}
	r, _ := newTestRunner(t, factory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx, Scenarios()[:2], 1)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeCancelled))
	require.NotNil(t, report)

	for _, res := range report.Scenarios {
		assert.Equal(t, entity.ScenarioStatusFailed, res.Status)
		assert.Equal(t, entity.ErrorKindCancelled, res.ErrorKind)
	}

	assert.Empty(t, factory.opened, "no session opened after cancel")
}

func TestRunCancelledDuringScenario(t *testing.T) {
	factory := &siteFactory{}
	r, _ := newTestRunner(t, factory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupted := Scenario{
		Name: "interrupted",
		Run: func(ctx context.Context, env *Env) error {
			if err := env.Home.Open(ctx); err != nil {
				return err
			}

			cancel()

			return expect("interrupted", env.Home.IsLogoVisible(ctx), "logo is not visible")
		},
	}

	report, err := r.Run(ctx, []Scenario{interrupted, Scenarios()[0]}, 1)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeCancelled))

	first := report.Scenarios[0]
	assert.Equal(t, entity.ScenarioStatusFailed, first.Status)
	assert.Equal(t, entity.ErrorKindCancelled, first.ErrorKind, "an interrupted check is not an assertion failure")

	last := first.Interactions[len(first.Interactions)-1]
	assert.Equal(t, entity.ActionTypeIsVisible, last.Action)
	assert.Equal(t, entity.ErrorKindCancelled, last.ErrorKind)

	assert.Equal(t, entity.ErrorKindCancelled, report.Scenarios[1].ErrorKind)
	assert.Len(t, factory.opened, 1, "the second scenario never opens a session")
	assert.True(t, factory.allClosed())
}

func TestLookup(t *testing.T) {
	all, err := Lookup()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	picked, err := Lookup("view_role_opens_lever", "home_page_opens")
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "view_role_opens_lever", picked[0].Name)
	assert.Equal(t, "home_page_opens", picked[1].Name)

	_, err = Lookup("nope")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))
}

func TestValidateJobCards(t *testing.T) {
	good := entity.JobCard{Position: "Senior Software Quality Assurance Engineer", Department: "Quality Assurance", Location: "Istanbul, Turkiye"}
	titleless := entity.JobCard{Index: 1, Position: "Software QA Tester", Department: "Quality Assurance", Location: "Istanbul, Turkiye"}
	elsewhere := entity.JobCard{Index: 2, Position: "QA Engineer", Department: "Quality Assurance", Location: "Amsterdam, Netherlands"}

	require.NoError(t, validateJobCards("t", []entity.JobCard{good, titleless}, QAPosition, QADepartment, QALocation))

	err := validateJobCards("t", []entity.JobCard{good, elsewhere}, QAPosition, QADepartment, QALocation)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeAssertionFailed))
	assert.Contains(t, err.Error(), "job 2: location")

	err = validateJobCards("t", nil, QAPosition, QADepartment, QALocation)
	assert.True(t, apperr.HasCode(err, apperr.CodeAssertionFailed))
}

func TestReportFiles(t *testing.T) {
	factory := &siteFactory{}
	r, reg := newTestRunner(t, factory)

	scenarios, err := Lookup("home_page_opens")
	require.NoError(t, err)

	report, err := r.Run(context.Background(), scenarios, 1)
	require.NoError(t, err)

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.yaml")
	metricsPath := filepath.Join(dir, "suite.prom")

	require.NoError(t, WriteReport(reportPath, report))
	require.NoError(t, WriteMetrics(metricsPath, reg))

	loaded, err := ReadReport(reportPath)
	require.NoError(t, err)
	assert.Equal(t, report.ID, loaded.ID)
	require.Len(t, loaded.Scenarios, 1)
	assert.Equal(t, entity.ScenarioStatusPassed, loaded.Scenarios[0].Status)
	assert.Equal(t, len(report.Scenarios[0].Interactions), len(loaded.Scenarios[0].Interactions))

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "careers_suite_scenario_runs_total")
	assert.Contains(t, string(prom), "careers_suite_engine_actions_total")
}
