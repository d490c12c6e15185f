// Package pages holds the page objects for the careers flow. They hold their
// locators and an Interactor and nothing else.
package pages

import (
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/logg"
	"context"
	"time"

	"go.uber.org/zap"
)

var (
	CookieDeclineButton = locator.ByID("wt-cli-reject-btn")
	CompanyMenu         = locator.ByXPath("//a[contains(text(),'Company')]")
	CareersLink         = locator.ByXPath("//a[contains(text(),'Careers')]")
	InsiderLogo         = locator.ByCSS("img[alt='insider_logo']")
)

type HomePage struct {
	ui              ports.Interactor
	logger          *zap.Logger
	url             string
	optionalTimeout time.Duration
}

func NewHomePage(ui ports.Interactor, logger *zap.Logger, url string, optionalTimeout time.Duration) *HomePage {
	return &HomePage{
		ui:              ui,
		logger:          logger.With(zap.String(logg.Layer, "HomePage")),
		url:             url,
		optionalTimeout: optionalTimeout,
	}
}

func (p *HomePage) Open(ctx context.Context) error {
	if err := p.ui.Navigate(ctx, p.url); err != nil {
		return err
	}

	p.logger.Info("Opened home page", zap.String(logg.URL, p.url))

	return nil
}

// DeclineCookiesIfPresent rejects the cookie banner. A banner that never
// shows up is not an error.
func (p *HomePage) DeclineCookiesIfPresent(ctx context.Context) error {
	if !p.ui.IsVisibleWithin(ctx, CookieDeclineButton, p.optionalTimeout) {
		p.logger.Info("No cookie banner")
		return nil
	}

	if err := p.ui.Click(ctx, CookieDeclineButton); err != nil {
		return err
	}

	p.logger.Info("Cookies declined")

	return nil
}

// GoToCareers opens the Company menu and follows its Careers link.
func (p *HomePage) GoToCareers(ctx context.Context) error {
	if err := p.ui.Click(ctx, CompanyMenu); err != nil {
		return err
	}

	if err := p.ui.Click(ctx, CareersLink); err != nil {
		return err
	}

	if err := p.ui.WaitForURL(ctx, "careers"); err != nil {
		return err
	}

	p.logger.Info("On careers page", zap.String(logg.URL, p.ui.CurrentURL()))

	return nil
}

func (p *HomePage) IsLogoVisible(ctx context.Context) bool {
	return p.ui.IsVisible(ctx, InsiderLogo)
}
