package pages_test

import (
	"careers-ui-suite/internal/engine"
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/pages"
	"careers-ui-suite/internal/pages/pagestest"
	"careers-ui-suite/internal/wait"
	"careers-ui-suite/pkg/apperr"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flow struct {
	site    *pagestest.Site
	engine  *engine.Engine
	home    *pages.HomePage
	careers *pages.CareersPage
	qa      *pages.QAJobsPage
}

func newFlow(t *testing.T, opts pagestest.Options) *flow {
	t.Helper()

	logger := zaptest.NewLogger(t)
	site := pagestest.New(opts)
	e := engine.New(engine.Params{
		Session: site,
		Policy:  wait.MustPolicy(300*time.Millisecond, 10*time.Millisecond),
		Logger:  logger,
	})

	return &flow{
		site:    site,
		engine:  e,
		home:    pages.NewHomePage(e, logger, pagestest.HomeURL, 50*time.Millisecond),
		careers: pages.NewCareersPage(e, logger),
		qa:      pages.NewQAJobsPage(e, logger),
	}
}

func TestHomePageDeclinesCookieBanner(t *testing.T) {
	f := newFlow(t, pagestest.Options{CookieBanner: true})
	ctx := context.Background()

	require.NoError(t, f.home.Open(ctx))
	require.NoError(t, f.home.DeclineCookiesIfPresent(ctx))

	assert.False(t, f.engine.IsVisibleWithin(ctx, pages.CookieDeclineButton, 20*time.Millisecond))
	assert.True(t, f.home.IsLogoVisible(ctx))
}

func TestHomePageWithoutCookieBanner(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.home.Open(ctx))

	start := time.Now()
	require.NoError(t, f.home.DeclineCookiesIfPresent(ctx))
	assert.Less(t, time.Since(start), 250*time.Millisecond, "optional banner must use the short deadline")
	assert.NotContains(t, f.site.Calls(), "click")
}

func TestHomePageGoToCareers(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.home.Open(ctx))
	require.NoError(t, f.home.GoToCareers(ctx))

	assert.Equal(t, pagestest.CareersURL, f.engine.CurrentURL())
}

func TestHomePageMissingLogo(t *testing.T) {
	f := newFlow(t, pagestest.Options{Missing: []locator.Locator{pages.InsiderLogo}})
	ctx := context.Background()

	require.NoError(t, f.home.Open(ctx))
	assert.False(t, f.home.IsLogoVisible(ctx))
}

func TestCareersPageSections(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.CareersURL))

	assert.False(t, f.engine.IsVisibleWithin(ctx, pages.CEOTeam, 20*time.Millisecond))
	require.NoError(t, f.careers.ClickSeeAllTeams(ctx))

	assert.True(t, f.careers.IsFinanceVisible(ctx))
	assert.True(t, f.careers.IsMarketingVisible(ctx))
	assert.True(t, f.careers.IsCEOVisible(ctx))
	assert.True(t, f.careers.IsLocationsVisible(ctx))
	assert.True(t, f.careers.IsLocationsDescriptionVisible(ctx))
	assert.True(t, f.careers.IsLifeAtInsiderVisible(ctx))
	assert.Equal(t, 5200-400, f.site.ScrollY())
}

func TestCareersPageMissingSection(t *testing.T) {
	f := newFlow(t, pagestest.Options{Missing: []locator.Locator{pages.LifeAtInsiderHeader}})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.CareersURL))

	assert.False(t, f.careers.IsLifeAtInsiderVisible(ctx))
	assert.True(t, f.careers.IsLocationsVisible(ctx))
}

func TestCareersPageClickQATeamBehindOverlay(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.CareersURL))
	require.NoError(t, f.careers.ClickSeeAllTeams(ctx))
	require.NoError(t, f.careers.ClickQATeam(ctx))

	assert.Equal(t, pagestest.QAURL, f.engine.CurrentURL())
	assert.Contains(t, f.site.Calls(), "programmatic_click")
}

func TestQAJobsPageFiltersAndReadsCards(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.QAURL))
	require.NoError(t, f.qa.ClickSeeAllQAJobs(ctx))

	n, err := f.qa.WaitForJobList(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(pagestest.DefaultJobs), n)

	require.NoError(t, f.qa.FilterByLocation(ctx, "Istanbul, Turkiye"))
	require.NoError(t, f.qa.FilterByDepartment(ctx, "Quality Assurance"))
	require.NoError(t, f.qa.ScrollJobList(ctx))

	cards, err := f.qa.JobCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	for i, c := range cards {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "Quality Assurance", c.Department)
		assert.Equal(t, "Istanbul, Turkiye", c.Location)
	}

	assert.Equal(t, entity.JobCard{
		Index:      0,
		Position:   "Senior Software Quality Assurance Engineer",
		Department: "Quality Assurance",
		Location:   "Istanbul, Turkiye",
	}, cards[0])
	assert.True(t, f.qa.IsSeniorPositionVisible(ctx))
}

func TestQAJobsPageUnknownFilterOption(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.PositionsURL))

	err := f.qa.FilterByLocation(ctx, "Atlantis")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeElementNotFound))
}

func TestQAJobsPageEmptyList(t *testing.T) {
	f := newFlow(t, pagestest.Options{Jobs: []pagestest.Job{}})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.PositionsURL))

	_, err := f.qa.WaitForJobList(ctx)
	require.Error(t, err)
	assert.Equal(t, entity.ErrorKindElementNotFound, engine.ErrorKind(err))
}

func TestQAJobsPageOpenFirstViewRole(t *testing.T) {
	f := newFlow(t, pagestest.Options{})
	ctx := context.Background()

	require.NoError(t, f.engine.Navigate(ctx, pagestest.PositionsURL))
	require.NoError(t, f.qa.OpenFirstViewRole(ctx))

	assert.Equal(t, 1, f.site.ActiveIndex())
	assert.Equal(t, pagestest.LeverURL, f.engine.CurrentURL())
	assert.Contains(t, f.site.Calls(), "move_pointer")
}
