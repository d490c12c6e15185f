package pages

import (
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/logg"
	"context"

	"go.uber.org/zap"
)

var (
	SeeAllTeamsLink     = locator.ByXPath("//a[text()='See all teams']")
	FinanceTeam         = locator.ByXPath("//h3[text()='Finance & Business Support']")
	MarketingTeam       = locator.ByXPath("//h3[text()='Marketing']")
	CEOTeam             = locator.ByXPath("//h3[text()='CEO’s Executive Office']")
	QATeam              = locator.ByXPath("//h3[text()='Quality Assurance']")
	LocationsTitle      = locator.ByXPath("//h3[contains(text(),'Our Locations')]")
	LocationsDesc       = locator.ByXPath("//p[contains(text(),'28 offices across 6 continents')]")
	LifeAtInsiderHeader = locator.ByXPath("//h2[text()='Life at Insider']")
)

type CareersPage struct {
	ui     ports.Interactor
	logger *zap.Logger
}

func NewCareersPage(ui ports.Interactor, logger *zap.Logger) *CareersPage {
	return &CareersPage{
		ui:     ui,
		logger: logger.With(zap.String(logg.Layer, "CareersPage")),
	}
}

func (p *CareersPage) ClickSeeAllTeams(ctx context.Context) error {
	if err := p.ui.ScrollIntoView(ctx, SeeAllTeamsLink); err != nil {
		return err
	}

	if err := p.ui.Click(ctx, SeeAllTeamsLink); err != nil {
		return err
	}

	p.logger.Info("Expanded team list")

	return nil
}

func (p *CareersPage) IsFinanceVisible(ctx context.Context) bool {
	return p.sectionVisible(ctx, FinanceTeam)
}

func (p *CareersPage) IsMarketingVisible(ctx context.Context) bool {
	return p.sectionVisible(ctx, MarketingTeam)
}

func (p *CareersPage) IsCEOVisible(ctx context.Context) bool {
	return p.sectionVisible(ctx, CEOTeam)
}

func (p *CareersPage) IsLocationsVisible(ctx context.Context) bool {
	return p.sectionVisible(ctx, LocationsTitle)
}

// IsLocationsDescriptionVisible does not scroll: the description sits under
// the title, which IsLocationsVisible already brought into view.
func (p *CareersPage) IsLocationsDescriptionVisible(ctx context.Context) bool {
	return p.ui.IsVisible(ctx, LocationsDesc)
}

func (p *CareersPage) IsLifeAtInsiderVisible(ctx context.Context) bool {
	return p.sectionVisible(ctx, LifeAtInsiderHeader)
}

// ClickQATeam opens the Quality Assurance team card. The card is often
// under an animated overlay; the engine's click handles that.
func (p *CareersPage) ClickQATeam(ctx context.Context) error {
	if err := p.ui.ScrollIntoView(ctx, QATeam); err != nil {
		return err
	}

	if err := p.ui.Click(ctx, QATeam); err != nil {
		return err
	}

	p.logger.Info("Opened QA team")

	return nil
}

func (p *CareersPage) sectionVisible(ctx context.Context, loc locator.Locator) bool {
	if err := p.ui.ScrollIntoView(ctx, loc); err != nil {
		p.logger.Info("Section not found", zap.String(logg.Locator, loc.String()), zap.Error(err))
		return false
	}

	visible := p.ui.IsVisible(ctx, loc)
	p.logger.Info("Section visibility", zap.String(logg.Locator, loc.String()), zap.Bool("visible", visible))

	return visible
}
