package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/benchup/internal/adapters/logging"
	"github.com/felixgeelhaar/benchup/internal/app"
	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/config"
	"github.com/felixgeelhaar/benchup/internal/domain/execution"
	"github.com/felixgeelhaar/benchup/internal/domain/recipe"
)

// Status symbols.
const (
	symbolDone    = "✓"
	symbolApply   = "+"
	symbolSkip    = "-"
	symbolFail    = "✗"
	symbolUnknown = "?"
	symbolNotRun  = "·"
)

// Printer writes human-readable output.
type Printer struct {
	out      io.Writer
	styles   Styles
	title    cases.Caser
	redactor logging.Redactor
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		styles: NewStyles(out),
		title:  cases.Title(language.English),
	}
}

// WithSecrets returns a copy that masks secrets in rendered errors and tool
// diagnostics.
func (p *Printer) WithSecrets(secrets ...string) *Printer {
	next := *p
	next.redactor = p.redactor.With(secrets...)
	return &next
}

func (p *Printer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

// groupHeading turns a step group such as "site" into "Site".
func (p *Printer) groupHeading(id compiler.StepID) string {
	return p.title.String(id.Group())
}

// Plan prints what an install would change, grouped by step group.
func (p *Printer) Plan(plan *execution.Plan) {
	summary := plan.Summary()

	p.println("")
	p.println(p.styles.Title.Render("Provisioning plan"))
	p.println("")

	if !plan.HasChanges() {
		p.println(p.styles.Success.Render("No changes needed. The host is already provisioned."))
		return
	}

	p.printf("Steps: %d total, %d to apply, %d satisfied", summary.Total, summary.NeedsApply, summary.Satisfied)
	if summary.Unknown > 0 {
		p.printf(", %d unknown", summary.Unknown)
	}
	p.println("")

	group := ""
	for _, entry := range plan.Entries() {
		id := entry.Step().ID()
		if id.Group() != group {
			group = id.Group()
			p.println("")
			p.println(p.styles.Heading.Render(p.groupHeading(id)))
		}

		switch entry.Status() {
		case compiler.StatusSatisfied:
			p.printf("  %s %s\n", p.styles.Success.Render(symbolDone), id)
		case compiler.StatusNeedsApply:
			p.printf("  %s %s\n", p.styles.Info.Render(symbolApply), id)
			if exp := entry.Step().Explain(compiler.NewExplainContext()); !exp.IsEmpty() {
				p.printf("      %s\n", p.styles.Muted.Render(exp.Summary()))
			}
		default:
			p.printf("  %s %s\n", p.styles.Warning.Render(symbolUnknown), id)
			if err := entry.Error(); err != nil {
				p.printf("      %s\n", p.styles.Muted.Render(p.redactor.Redact(err.Error())))
			}
		}
	}

	p.println("")
	p.println(p.styles.Muted.Render("Run 'benchup install' to apply this plan."))
}

// Report prints the run log, the steps that never ran and, for every failed
// step, its error kind and tool diagnostic.
func (p *Printer) Report(report *execution.Report) {
	p.println("")
	p.println(p.styles.Title.Render("Run results"))
	p.println("")

	for _, res := range report.Results() {
		id := res.StepID()
		switch {
		case res.Completed():
			p.printf("  %s %s %s\n", p.styles.Success.Render(symbolDone), id, p.styles.Muted.Render(roundDuration(res.Duration())))
		case res.Skipped():
			p.printf("  %s %s %s\n", p.styles.Muted.Render(symbolSkip), id, p.styles.Muted.Render("(already done)"))
		case res.Failed():
			p.printf("  %s %s\n", p.styles.Error.Render(symbolFail), id)
		}
	}
	for _, id := range report.NotRun() {
		p.printf("  %s %s %s\n", p.styles.Muted.Render(symbolNotRun), id, p.styles.Muted.Render("(not run)"))
	}

	s := report.Summary()
	p.println("")
	p.printf("Summary: %d completed, %d skipped, %d failed, %d not run (%s)\n",
		s.Completed, s.Skipped, s.Failed, s.NotRun, roundDuration(report.Duration()))

	printed := false
	for _, res := range report.Results() {
		if failure := res.Failure(); failure != nil {
			p.Failure(failure)
			printed = true
		}
	}
	if failure := report.Failure(); failure != nil && !printed {
		p.Failure(failure)
	}
}

// Failure prints a classified error.
func (p *Printer) Failure(err error) {
	var stepErr *compiler.StepError
	if errors.As(err, &stepErr) {
		p.println("")
		p.println(p.styles.ErrorPanel.Render(p.styles.Error.Render(p.redactor.Redact(stepErr.Format()))))
		return
	}

	var list *config.ErrorList
	if errors.As(err, &list) {
		p.println("")
		p.println(p.styles.ErrorPanel.Render(p.styles.Error.Render(p.redactor.Redact(list.Format()))))
		return
	}

	if userErr := config.GetUserError(err); userErr != nil {
		p.println("")
		p.println(p.styles.ErrorPanel.Render(p.styles.Error.Render(p.redactor.Redact(userErr.Format()))))
		return
	}

	p.println(p.styles.Error.Render("Error: " + p.redactor.Redact(err.Error())))
}

// AccessSummary prints where the installed site is reachable.
func (p *Printer) AccessSummary(s app.AccessSummary) {
	lines := []string{
		p.styles.Success.Render("ERPNext is ready"),
		"",
		p.styles.Label.Render("URL") + s.URL,
		p.styles.Label.Render("Site") + s.Site,
		p.styles.Label.Render("Login") + s.AdminLogin,
		p.styles.Label.Render("OS account") + s.SystemUser,
		p.styles.Label.Render("Bench") + s.BenchPath,
	}
	if len(s.Apps) > 0 {
		lines = append(lines, p.styles.Label.Render("Apps")+strings.Join(s.Apps, ", "))
	}
	if s.AddressLookup != nil {
		lines = append(lines, "", p.styles.Warning.Render("Host address unknown; replace the host in the URL with the server's address."))
	}

	p.println("")
	p.println(p.styles.Panel.Render(strings.Join(lines, "\n")))
}

// Catalog prints the catalog entries and the presets.
func (p *Printer) Catalog(c *recipe.Catalog, presets []recipe.Preset) {
	p.println(p.styles.Title.Render("Steps"))
	for _, name := range c.Names() {
		e, _ := c.Get(name)
		line := fmt.Sprintf("  %-24s %s", e.Name, e.Summary)
		if len(e.Requires) > 0 {
			line += p.styles.Muted.Render(" (after " + strings.Join(e.Requires, ", ") + ")")
		}
		p.println(line)
	}

	p.println("")
	p.println(p.styles.Title.Render("Presets"))
	for _, preset := range presets {
		p.printf("  %-12s %s\n", preset.Name, preset.Description)
		p.printf("  %-12s %s\n", "", p.styles.Muted.Render(strings.Join(preset.Targets, ", ")))
		if len(preset.Assumes) > 0 {
			p.printf("  %-12s %s\n", "", p.styles.Muted.Render("assumes "+strings.Join(preset.Assumes, ", ")))
		}
	}
}

// Explanation prints the explanation of one step.
func (p *Printer) Explanation(step compiler.Step, verbose bool) {
	exp := step.Explain(compiler.NewExplainContext().WithVerbose(verbose))

	p.println(p.styles.Title.Render(step.ID().String()))
	p.println(p.styles.Heading.Render(exp.Summary()))
	if exp.Detail() != "" {
		p.println(exp.Detail())
	}
	if deps := step.DependsOn(); len(deps) > 0 {
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.String()
		}
		p.println("")
		p.println(p.styles.Label.Render("After") + strings.Join(names, ", "))
	}
	if tools := exp.Tools(); len(tools) > 0 {
		p.println(p.styles.Label.Render("Tools") + strings.Join(tools, ", "))
	}
	for _, link := range exp.DocLinks() {
		p.println(p.styles.Label.Render("Docs") + link)
	}
}

func roundDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(100 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	default:
		return d.String()
	}
}
