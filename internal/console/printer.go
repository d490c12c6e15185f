// Package console renders scenario lists and run reports for a terminal.
package console

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/usecase"
	"careers-ui-suite/pkg/logg"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Printer struct {
	out    io.Writer
	logger *zap.Logger

	pass  *color.Color
	fail  *color.Color
	title *color.Color
	dim   *color.Color
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewPrinter(params Params) *Printer {
	return New(color.Output, params.Logger, color.NoColor)
}

// New returns a printer writing to out. noColor strips all escape codes.
func New(out io.Writer, logger *zap.Logger, noColor bool) *Printer {
	if out == nil {
		out = os.Stdout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Printer{
		out:    out,
		logger: logger.With(zap.String(logg.Layer, "Console")),
		pass:   color.New(color.FgGreen, color.Bold),
		fail:   color.New(color.FgRed, color.Bold),
		title:  color.New(color.FgCyan, color.Bold),
		dim:    color.New(color.Faint),
	}

	if noColor {
		for _, c := range []*color.Color{p.pass, p.fail, p.title, p.dim} {
			c.DisableColor()
		}
	}

	return p
}

func (p *Printer) PrintScenarios(scenarios []usecase.Scenario) {
	p.title.Fprintln(p.out, "Scenarios")

	width := nameWidth(len("scenario"), scenarios, func(s usecase.Scenario) string { return s.Name })

	for _, s := range scenarios {
		fmt.Fprintf(p.out, "  %-*s  %s\n", width, s.Name, p.dim.Sprint(s.Description))
	}
}

func (p *Printer) PrintReport(report *entity.RunReport) {
	p.title.Fprintf(p.out, "Run %s", report.ID)
	fmt.Fprintf(p.out, " against %s\n\n", report.BaseURL)

	width := nameWidth(0, report.Scenarios, func(s entity.ScenarioResult) string { return s.Name })

	for _, s := range report.Scenarios {
		status := p.pass.Sprint("PASS")
		if s.Status != entity.ScenarioStatusPassed {
			status = p.fail.Sprint("FAIL")
		}

		fmt.Fprintf(p.out, "  %s  %-*s  %s\n", status, width, s.Name, p.dim.Sprint(round(s.Duration)))

		if s.Status == entity.ScenarioStatusPassed {
			continue
		}

		fmt.Fprintf(p.out, "        %s: %s\n", s.ErrorKind, s.Error)

		if s.Locator != "" {
			fmt.Fprintf(p.out, "        locator: %s\n", s.Locator)
		}

		if n := len(s.Interactions); n > 0 {
			last := s.Interactions[n-1]
			fmt.Fprintf(p.out, "        %s\n", p.dim.Sprintf("last action: %s %s (%s, %s)", last.Action, last.Locator, last.State, round(last.Elapsed)))
		}
	}

	passed, failed := report.Counts()
	total := fmt.Sprintf("\n%d scenarios, %d passed, %d failed in %s\n",
		len(report.Scenarios), passed, failed, round(report.CompletedAt.Sub(report.StartedAt)))

	if failed > 0 {
		p.fail.Fprint(p.out, total)
	} else {
		p.pass.Fprint(p.out, total)
	}

	p.logger.Debug("Report printed", zap.String(logg.RunID, report.ID.String()))
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}

func nameWidth[T any](floor int, items []T, name func(T) string) int {
	w := floor
	for _, it := range items {
		w = max(w, len(name(it)))
	}

	return w
}
