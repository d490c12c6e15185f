// Package pagestest serves an in-memory copy of the careers flow on top of a
// browsertest.Session, laid out with the real page locators.
package pagestest

import (
	"careers-ui-suite/internal/browser/browsertest"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/pages"
	"context"
	"slices"
	"strings"
)

const (
	HomeURL      = "https://useinsider.com/"
	CareersURL   = "https://useinsider.com/careers/"
	QAURL        = "https://useinsider.com/careers/quality-assurance/"
	PositionsURL = "https://useinsider.com/careers/open-positions/?department=qualityassurance"
	LeverURL     = "https://jobs.lever.co/useinsider/senior-software-quality-assurance-engineer"
)

type Job struct {
	Title      string
	Department string
	Location   string
}

var DefaultJobs = []Job{
	{"Senior Software Quality Assurance Engineer", "Quality Assurance", "Istanbul, Turkiye"},
	{"Software QA Tester - Insider Testinium Tech Hub", "Quality Assurance", "Istanbul, Turkiye"},
	{"Quality Assurance Engineer", "Quality Assurance", "Amsterdam, Netherlands"},
	{"Account Executive", "Sales", "Istanbul, Turkiye"},
}

type Options struct {
	// Jobs defaults to DefaultJobs.
	Jobs         []Job
	CookieBanner bool
	// Missing locators are never rendered on any page.
	Missing []locator.Locator
	// Unfiltered keeps every job listed regardless of the selected filters.
	Unfiltered bool
}

type Site struct {
	*browsertest.Session

	opts       Options
	location   string
	department string
}

func New(opts Options) *Site {
	if opts.Jobs == nil {
		opts.Jobs = DefaultJobs
	}

	s := &Site{Session: browsertest.New(), opts: opts}

	s.Route(HomeURL, s.home)
	s.Route(CareersURL, s.careers)
	s.Route(QAURL, s.qa)
	s.Route(PositionsURL, s.positions)
	s.Route(LeverURL, func(*browsertest.Page) {})

	return s
}

func (s *Site) set(p *browsertest.Page, loc locator.Locator, els ...*browsertest.Element) {
	if slices.Contains(s.opts.Missing, loc) {
		return
	}

	p.Set(loc, els...)
}

func (s *Site) home(p *browsertest.Page) {
	if s.opts.CookieBanner {
		s.set(p, pages.CookieDeclineButton, &browsertest.Element{
			Text: "Reject All",
			OnClick: func(bs *browsertest.Session) {
				bs.Mutate(func(p *browsertest.Page) { p.Remove(pages.CookieDeclineButton) })
			},
		})
	}

	careers := &browsertest.Element{Text: "Careers", Hidden: true, OnClick: navigate(CareersURL)}

	s.set(p, pages.CareersLink, careers)
	s.set(p, pages.CompanyMenu, &browsertest.Element{
		Text: "Company",
		OnClick: func(bs *browsertest.Session) {
			bs.Mutate(func(p *browsertest.Page) {
				careers.Hidden = false
				s.set(p, pages.CareersLink, careers)
			})
		},
	})
	s.set(p, pages.InsiderLogo, &browsertest.Element{Y: 20})
}

func (s *Site) careers(p *browsertest.Page) {
	s.set(p, pages.FinanceTeam, &browsertest.Element{Text: "Finance & Business Support", Y: 1800})
	s.set(p, pages.MarketingTeam, &browsertest.Element{Text: "Marketing", Y: 1800})
	s.set(p, pages.SeeAllTeamsLink, &browsertest.Element{
		Text: "See all teams",
		Y:    2400,
		OnClick: func(bs *browsertest.Session) {
			bs.Mutate(func(p *browsertest.Page) {
				s.set(p, pages.CEOTeam, &browsertest.Element{Text: "CEO’s Executive Office", Y: 2600})
				s.set(p, pages.QATeam, &browsertest.Element{
					Text:     "Quality Assurance",
					Y:        3200,
					Occluded: true,
					OnClick:  navigate(QAURL),
				})
			})
		},
	})
	s.set(p, pages.LocationsTitle, &browsertest.Element{Text: "Our Locations", Y: 4000})
	s.set(p, pages.LocationsDesc, &browsertest.Element{Text: "28 offices across 6 continents", Y: 4100})
	s.set(p, pages.LifeAtInsiderHeader, &browsertest.Element{Text: "Life at Insider", Y: 5200})
}

func (s *Site) qa(p *browsertest.Page) {
	s.set(p, pages.SeeAllQAJobsButton, &browsertest.Element{Text: "See all QA jobs", Y: 600, OnClick: navigate(PositionsURL)})
}

func (s *Site) positions(p *browsertest.Page) {
	s.location, s.department = "", ""

	s.set(p, pages.LocationFilterButton, &browsertest.Element{
		Text: "All",
		Y:    400,
		OnClick: func(bs *browsertest.Session) {
			values := s.values(func(j Job) string { return j.Location })
			bs.Mutate(func(p *browsertest.Page) {
				s.openMenu(p, pages.LocationOption, values, &s.location)
			})
		},
	})
	s.set(p, pages.DepartmentFilterButton, &browsertest.Element{
		Text: "Quality Assurance",
		Y:    400,
		OnClick: func(bs *browsertest.Session) {
			values := s.values(func(j Job) string { return j.Department })
			bs.Mutate(func(p *browsertest.Page) {
				s.openMenu(p, pages.DepartmentOption, values, &s.department)
			})
		},
	})

	s.render(p)
}

// openMenu lists one option per value; choosing one stores it in selected,
// closes the menu and re-renders the job list.
func (s *Site) openMenu(p *browsertest.Page, option locator.Template, values []string, selected *string) {
	opened := make([]locator.Locator, 0, len(values))

	for _, v := range values {
		v := v
		loc, err := option.Fill(v)
		if err != nil {
			continue
		}

		opened = append(opened, loc)
		s.set(p, loc, &browsertest.Element{
			Text: v,
			OnClick: func(bs *browsertest.Session) {
				bs.Mutate(func(p *browsertest.Page) {
					*selected = v
					for _, l := range opened {
						p.Remove(l)
					}
					s.render(p)
				})
			},
		})
	}
}

func (s *Site) render(p *browsertest.Page) {
	var cards, buttons, senior []*browsertest.Element

	for _, j := range s.opts.Jobs {
		if !s.opts.Unfiltered && !s.matches(j) {
			continue
		}

		y := 1200 + 200*len(cards)

		title := &browsertest.Element{Text: j.Title, Y: y}
		card := (&browsertest.Element{Text: j.Title, Y: y}).
			Child(pages.JobTitle, title).
			Child(pages.JobDepartment, &browsertest.Element{Text: j.Department, Y: y}).
			Child(pages.JobLocation, &browsertest.Element{Text: j.Location, Y: y})

		cards = append(cards, card)
		buttons = append(buttons, &browsertest.Element{
			Text: "View Role",
			Y:    y,
			OnClick: func(bs *browsertest.Session) {
				bs.OpenContext(LeverURL)
			},
		})

		if strings.Contains(j.Title, "Senior Software Quality Assurance Engineer") {
			senior = append(senior, title)
		}
	}

	p.Remove(pages.JobCards)
	p.Remove(pages.ViewRoleButton)
	p.Remove(pages.SeniorQAPosition)

	if len(cards) > 0 {
		s.set(p, pages.JobCards, cards...)
		s.set(p, pages.ViewRoleButton, buttons...)
	}

	if len(senior) > 0 {
		s.set(p, pages.SeniorQAPosition, senior...)
	}
}

func (s *Site) matches(j Job) bool {
	return (s.location == "" || j.Location == s.location) &&
		(s.department == "" || j.Department == s.department)
}

func (s *Site) values(field func(Job) string) []string {
	var out []string

	for _, j := range s.opts.Jobs {
		if v := field(j); !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}

func navigate(url string) func(*browsertest.Session) {
	return func(bs *browsertest.Session) {
		_ = bs.Navigate(context.Background(), url)
	}
}
