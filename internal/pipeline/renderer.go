package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/clauseguard/clauseguard/internal/model"
	"github.com/fatih/color"
)

// Renderer renders scan reports to JSON, Markdown, and the terminal
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON to the given path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// RenderMarkdown writes the report as a Markdown document to the given path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Legal Text Risk Report\n\n")
	fmt.Fprintf(&b, "**Origin:** %s\n\n", report.Origin)
	fmt.Fprintf(&b, "**Scanned:** %s\n\n", report.FetchedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Fragments:** %d detected, %d analyzed, %d skipped\n\n",
		report.FragmentsDetected, len(report.Results), report.FragmentsSkipped)

	if len(report.Results) == 0 {
		b.WriteString("No legal text fragments were analyzed.\n")
	}

	for _, res := range report.Results {
		fmt.Fprintf(&b, "## %s\n\n", res.Fragment.Title)
		fmt.Fprintf(&b, "- **Source:** %s\n", res.Fragment.SourceKind)
		fmt.Fprintf(&b, "- **Overall risk:** %s\n", strings.ToUpper(string(res.Assessment.Overall)))
		fmt.Fprintf(&b, "- **Engine:** %s (confidence %.1f)\n\n", res.EngineUsed, res.Confidence)
		fmt.Fprintf(&b, "%s\n\n", res.Assessment.Summary)

		b.WriteString("| Category | Level | Impact |\n")
		b.WriteString("|----------|-------|--------|\n")
		for _, cat := range res.Assessment.Categories {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cat.Name.DisplayName(), cat.Level, cat.Impact)
		}
		b.WriteString("\n")

		if len(res.Assessment.KeyPoints) > 0 {
			b.WriteString("### Key Points\n\n")
			for _, kp := range res.Assessment.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", kp)
			}
			b.WriteString("\n")
		}

		if len(res.Assessment.Recommendations) > 0 {
			b.WriteString("### Recommendations\n\n")
			for _, rec := range res.Assessment.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("Generated by ClauseGuard. Automated risk signals, not legal advice.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// RenderSummary prints a colored one-screen summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Printf("  %s\n", report.Origin)
	fmt.Printf("  %d fragments detected, %d analyzed\n\n",
		report.FragmentsDetected, len(report.Results))

	if len(report.Results) == 0 {
		fmt.Println("  No legal text fragments to analyze.")
		fmt.Println()
		return
	}

	for _, res := range report.Results {
		fmt.Printf("  %s  %s [%s]\n",
			levelColor(res.Assessment.Overall).Sprintf("%-8s", strings.ToUpper(string(res.Assessment.Overall))),
			res.Fragment.Title,
			res.Fragment.SourceKind)
		for _, kp := range res.Assessment.KeyPoints {
			fmt.Printf("           %s\n", kp)
		}
	}

	fmt.Println()
	overall := report.HighestRisk()
	fmt.Printf("  Highest risk: %s\n\n",
		levelColor(overall).Sprint(strings.ToUpper(string(overall))))
}

func levelColor(level model.RiskLevel) *color.Color {
	switch level {
	case model.LevelCritical:
		return color.New(color.FgRed, color.Bold)
	case model.LevelHigh:
		return color.New(color.FgRed)
	case model.LevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
