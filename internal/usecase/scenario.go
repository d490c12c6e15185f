package usecase

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/pages"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/apperr"
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	QALocation   = "Istanbul, Turkiye"
	QADepartment = "Quality Assurance"
	QAPosition   = "Quality Assurance"
)

// Env is what a scenario gets to work with: one engine over a fresh session
// and the page objects bound to it.
type Env struct {
	UI      ports.Interactor
	Home    *pages.HomePage
	Careers *pages.CareersPage
	QAJobs  *pages.QAJobsPage
}

type ScenarioFunc func(ctx context.Context, env *Env) error

type Scenario struct {
	Name        string
	Description string
	Run         ScenarioFunc
}

func Scenarios() []Scenario {
	return []Scenario{
		{
			Name:        "home_page_opens",
			Description: "Home page opens and shows the Insider logo",
			Run:         homePageOpens,
		},
		{
			Name:        "careers_sections_visible",
			Description: "Careers page shows teams, locations and Life at Insider",
			Run:         careersSectionsVisible,
		},
		{
			Name:        "qa_filters_show_senior_position",
			Description: "Filtered QA jobs list the Senior Software QA Engineer role",
			Run:         qaFiltersShowSeniorPosition,
		},
		{
			Name:        "qa_jobs_match_filters",
			Description: "Every filtered QA job matches position, department and location",
			Run:         qaJobsMatchFilters,
		},
		{
			Name:        "view_role_opens_lever",
			Description: "View Role opens the Lever application form in a new tab",
			Run:         viewRoleOpensLever,
		},
	}
}

// Lookup returns the named scenarios in the order given, or all of them when
// no names are passed.
func Lookup(names ...string) ([]Scenario, error) {
	const op = "usecase.Lookup"

	all := Scenarios()
	if len(names) == 0 {
		return all, nil
	}

	out := make([]Scenario, 0, len(names))

	for _, name := range names {
		i := slices.IndexFunc(all, func(s Scenario) bool { return s.Name == name })
		if i < 0 {
			return nil, apperr.InvalidReqError(op, "scenario", fmt.Errorf("unknown scenario %q", name))
		}

		out = append(out, all[i])
	}

	return out, nil
}

func homePageOpens(ctx context.Context, env *Env) error {
	const op = "homePageOpens"

	if err := openHome(ctx, env); err != nil {
		return err
	}

	return expect(op, env.Home.IsLogoVisible(ctx), "Insider logo is not visible")
}

func careersSectionsVisible(ctx context.Context, env *Env) error {
	const op = "careersSectionsVisible"

	if err := openHome(ctx, env); err != nil {
		return err
	}

	if err := env.Home.GoToCareers(ctx); err != nil {
		return err
	}

	if err := env.Careers.ClickSeeAllTeams(ctx); err != nil {
		return err
	}

	checks := []struct {
		what    string
		visible func(context.Context) bool
	}{
		{"Finance & Business Support team", env.Careers.IsFinanceVisible},
		{"Marketing team", env.Careers.IsMarketingVisible},
		{"CEO's Executive Office team", env.Careers.IsCEOVisible},
		{"Our Locations title", env.Careers.IsLocationsVisible},
		{"Our Locations description", env.Careers.IsLocationsDescriptionVisible},
		{"Life at Insider section", env.Careers.IsLifeAtInsiderVisible},
	}

	for _, c := range checks {
		if err := expect(op, c.visible(ctx), "%s is not visible", c.what); err != nil {
			return err
		}
	}

	return nil
}

func qaFiltersShowSeniorPosition(ctx context.Context, env *Env) error {
	const op = "qaFiltersShowSeniorPosition"

	if err := openQAJobs(ctx, env); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByLocation(ctx, QALocation); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByDepartment(ctx, QADepartment); err != nil {
		return err
	}

	if err := env.QAJobs.ScrollJobList(ctx); err != nil {
		return err
	}

	return expect(op, env.QAJobs.IsSeniorPositionVisible(ctx), "Senior Software Quality Assurance Engineer is not listed")
}

func qaJobsMatchFilters(ctx context.Context, env *Env) error {
	const op = "qaJobsMatchFilters"

	if err := openQAJobs(ctx, env); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByDepartment(ctx, QADepartment); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByLocation(ctx, QALocation); err != nil {
		return err
	}

	cards, err := env.QAJobs.JobCards(ctx)
	if err != nil {
		return err
	}

	return validateJobCards(op, cards, QAPosition, QADepartment, QALocation)
}

func viewRoleOpensLever(ctx context.Context, env *Env) error {
	if err := openQAJobs(ctx, env); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByLocation(ctx, QALocation); err != nil {
		return err
	}

	if err := env.QAJobs.FilterByDepartment(ctx, QADepartment); err != nil {
		return err
	}

	return env.QAJobs.OpenFirstViewRole(ctx)
}

func openHome(ctx context.Context, env *Env) error {
	if err := env.Home.Open(ctx); err != nil {
		return err
	}

	return env.Home.DeclineCookiesIfPresent(ctx)
}

// openQAJobs goes from the home page through careers and the QA team to the
// open positions list and waits for it to render.
func openQAJobs(ctx context.Context, env *Env) error {
	if err := openHome(ctx, env); err != nil {
		return err
	}

	if err := env.Home.GoToCareers(ctx); err != nil {
		return err
	}

	if err := env.Careers.ClickSeeAllTeams(ctx); err != nil {
		return err
	}

	if err := env.Careers.ClickQATeam(ctx); err != nil {
		return err
	}

	if err := env.QAJobs.ClickSeeAllQAJobs(ctx); err != nil {
		return err
	}

	_, err := env.QAJobs.WaitForJobList(ctx)

	return err
}

// validateJobCards fails on the first card that does not match. The position
// may appear in either the title or the department line.
func validateJobCards(op string, cards []entity.JobCard, position, department, location string) error {
	if len(cards) == 0 {
		return apperr.AssertionError(op, "no job cards listed")
	}

	for _, c := range cards {
		if !strings.Contains(c.Position, position) && !strings.Contains(c.Department, position) {
			return apperr.AssertionError(op, "job %d: position %q does not mention %q", c.Index, c.Position, position)
		}

		if !strings.Contains(c.Department, department) {
			return apperr.AssertionError(op, "job %d: department %q does not mention %q", c.Index, c.Department, department)
		}

		if !strings.Contains(c.Location, location) {
			return apperr.AssertionError(op, "job %d: location %q does not mention %q", c.Index, c.Location, location)
		}
	}

	return nil
}

func expect(op string, ok bool, format string, args ...any) error {
	if ok {
		return nil
	}

	return apperr.AssertionError(op, format, args...)
}
