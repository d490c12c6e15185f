package pages

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/logg"
	"context"

	"go.uber.org/zap"
)

const LeverHost = "jobs.lever.co"

var (
	SeeAllQAJobsButton     = locator.ByXPath("//a[contains(text(), 'See all QA jobs')]")
	LocationFilterButton   = locator.ByID("select2-filter-by-location-container")
	DepartmentFilterButton = locator.ByID("select2-filter-by-department-container")
	JobCards               = locator.ByCSS("div.position-list-item")
	JobTitle               = locator.ByCSS("p.position-title")
	JobDepartment          = locator.ByCSS("span.position-department")
	JobLocation            = locator.ByCSS("div.position-location")
	SeniorQAPosition       = locator.ByXPath("//p[contains(text(), 'Senior Software Quality Assurance Engineer')]")
	ViewRoleButton         = locator.ByCSS("div.position-list-item-wrapper a.btn.btn-navy")

	// Both select2 lists render options the same way today; they stay separate
	// so one can change without breaking the other.
	LocationOption   = locator.MustTemplate(locator.XPath, "//li[contains(text(), '%s')]")
	DepartmentOption = locator.MustTemplate(locator.XPath, "//li[contains(text(), '%s')]")
)

type QAJobsPage struct {
	ui     ports.Interactor
	logger *zap.Logger
}

func NewQAJobsPage(ui ports.Interactor, logger *zap.Logger) *QAJobsPage {
	return &QAJobsPage{
		ui:     ui,
		logger: logger.With(zap.String(logg.Layer, "QAJobsPage")),
	}
}

func (p *QAJobsPage) ClickSeeAllQAJobs(ctx context.Context) error {
	if err := p.ui.Click(ctx, SeeAllQAJobsButton); err != nil {
		return err
	}

	p.logger.Info("Opened QA job list")

	return nil
}

// WaitForJobList blocks until at least one job card is rendered and returns
// how many there are.
func (p *QAJobsPage) WaitForJobList(ctx context.Context) (int, error) {
	n, err := p.ui.Count(ctx, JobCards)
	if err != nil {
		return 0, err
	}

	p.logger.Info("Job list loaded", zap.Int("cards", n))

	return n, nil
}

func (p *QAJobsPage) FilterByLocation(ctx context.Context, location string) error {
	if err := p.ui.SelectFromMenu(ctx, LocationFilterButton, LocationOption, location); err != nil {
		return err
	}

	p.logger.Info("Location filter applied", zap.String("location", location))

	return nil
}

func (p *QAJobsPage) FilterByDepartment(ctx context.Context, department string) error {
	if err := p.ui.SelectFromMenu(ctx, DepartmentFilterButton, DepartmentOption, department); err != nil {
		return err
	}

	p.logger.Info("Department filter applied", zap.String("department", department))

	return nil
}

func (p *QAJobsPage) ScrollJobList(ctx context.Context) error {
	return p.ui.ScrollIntoView(ctx, JobCards)
}

func (p *QAJobsPage) IsSeniorPositionVisible(ctx context.Context) bool {
	return p.ui.IsVisible(ctx, SeniorQAPosition)
}

// JobCards reads every card currently listed. Cards are addressed by
// position and looked up again for each read, since the list is re-rendered
// whenever a filter changes.
func (p *QAJobsPage) JobCards(ctx context.Context) ([]entity.JobCard, error) {
	n, err := p.ui.Count(ctx, JobCards)
	if err != nil {
		return nil, err
	}

	cards := make([]entity.JobCard, 0, n)

	for i := 0; i < n; i++ {
		if err := p.ui.ScrollIntoViewAt(ctx, JobCards, i); err != nil {
			return nil, err
		}

		card := entity.JobCard{Index: i}

		if card.Position, err = p.ui.ReadTextWithin(ctx, JobCards, i, JobTitle); err != nil {
			return nil, err
		}

		if card.Department, err = p.ui.ReadTextWithin(ctx, JobCards, i, JobDepartment); err != nil {
			return nil, err
		}

		if card.Location, err = p.ui.ReadTextWithin(ctx, JobCards, i, JobLocation); err != nil {
			return nil, err
		}

		p.logger.Debug("Read job card",
			zap.Int("index", i),
			zap.String("position", card.Position),
			zap.String("location", card.Location))

		cards = append(cards, card)
	}

	return cards, nil
}

// OpenFirstViewRole opens the first listing's Lever page in a new tab and
// focuses it.
func (p *QAJobsPage) OpenFirstViewRole(ctx context.Context) error {
	if err := p.ui.HoverAt(ctx, JobCards, 0); err != nil {
		return err
	}

	if err := p.ui.Click(ctx, ViewRoleButton); err != nil {
		return err
	}

	if err := p.ui.WaitForNewContext(ctx, 2); err != nil {
		return err
	}

	if err := p.ui.SwitchToContext(ctx, 1); err != nil {
		return err
	}

	if err := p.ui.WaitForURL(ctx, LeverHost); err != nil {
		return err
	}

	p.logger.Info("Lever page opened", zap.String(logg.URL, p.ui.CurrentURL()))

	return nil
}
