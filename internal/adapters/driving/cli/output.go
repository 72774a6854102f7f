package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// planMarkdown describes a plan as markdown for renderMarkdown.
func planMarkdown(plan *domain.BuildPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.ProjectName)
	if plan.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", plan.Description)
	}
	if len(plan.TechnologyStack) > 0 {
		fmt.Fprintf(&b, "**Stack:** %s\n\n", strings.Join(plan.TechnologyStack, ", "))
	}
	if plan.ProviderUsed != "" {
		fmt.Fprintf(&b, "**Provider:** %s (confidence %.2f)\n\n", plan.ProviderUsed, plan.ConfidenceScore)
	}

	if dirs := plan.DirectoryStructure.Directories(); len(dirs) > 0 {
		b.WriteString("## Directories\n\n")
		for _, d := range dirs {
			fmt.Fprintf(&b, "- `%s/`\n", d)
		}
		b.WriteString("\n")
	}

	if len(plan.Dependencies) > 0 {
		b.WriteString("## Dependencies\n\n")
		for _, d := range plan.Dependencies {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	if len(plan.BuildInstructions) > 0 {
		b.WriteString("## Instructions\n\n")
		b.WriteString("| # | Type | Action | Target |\n|---|------|--------|--------|\n")
		for _, inst := range plan.SortedInstructions() {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", inst.Order, inst.Type, inst.Action, markdownCell(inst.Target))
		}
		b.WriteString("\n")
	}

	if len(plan.PostBuildCommands) > 0 {
		b.WriteString("## Post-build\n\n")
		for _, c := range plan.PostBuildCommands {
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
	}
	return b.String()
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func printPlan(w io.Writer, plan *domain.BuildPlan) {
	fmt.Fprint(w, renderMarkdown(w, planMarkdown(plan)))
}

// printChunkSummary lists chunk counts per content type and the first line of each chunk.
func printChunkSummary(w io.Writer, path string, chunks []domain.Chunk) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d chunks", path, len(chunks))))

	counts := make(map[domain.ContentType]int)
	for _, c := range chunks {
		counts[c.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	rows := make([][2]string, len(types))
	for i, t := range types {
		rows[i] = [2]string{t, fmt.Sprint(counts[domain.ContentType(t)])}
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, boxStyle.Render(keyValues(rows)))
	}

	for _, c := range chunks {
		first, _, _ := strings.Cut(strings.TrimSpace(c.Content), "\n")
		if len(first) > 72 {
			first = first[:69] + "..."
		}
		fmt.Fprintf(w, "%4d  %-14s %s\n", c.Index, c.Type, mutedStyle.Render(first))
	}
}

func printValidation(w io.Writer, v domain.ValidationResult) {
	if v.IsValid {
		fmt.Fprintln(w, successStyle.Render("✓ Plan is valid"))
	} else {
		fmt.Fprintln(w, errorStyle.Render("✗ Plan is invalid"))
	}
	for _, e := range v.Errors {
		fmt.Fprintln(w, errorStyle.Render("  error: ")+e)
	}
	for _, warn := range v.Warnings {
		fmt.Fprintln(w, warningStyle.Render("  warning: ")+warn)
	}
	for _, s := range v.Suggestions {
		fmt.Fprintln(w, mutedStyle.Render("  hint: ")+s)
	}
}

// printReport summarises an execution run, one line per instruction.
func printReport(w io.Writer, report *domain.ExecutionReport) {
	if report == nil {
		return
	}

	header := fmt.Sprintf("Execution of %s", report.ProjectName)
	if report.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintln(w, headingStyle.Render(header))

	for _, r := range append(append([]domain.InstructionResult(nil), report.Results...), report.PostBuild...) {
		fmt.Fprintln(w, "  "+instructionLine(r))
	}
	for _, warn := range report.Warnings {
		fmt.Fprintln(w, warningStyle.Render("  warning: ")+warn)
	}

	status := successStyle.Render("succeeded")
	if !report.Success {
		status = errorStyle.Render("failed")
	}
	fmt.Fprintln(w, boxStyle.Render(keyValues([][2]string{
		{"Project", report.ProjectDir},
		{"Status", status},
		{"Steps", fmt.Sprint(len(report.Results))},
		{"Duration", report.Duration.Round(time.Millisecond).String()},
	})))
}

func instructionLine(r domain.InstructionResult) string {
	var mark string
	switch r.State {
	case domain.StateSucceeded:
		mark = successStyle.Render("✓")
	case domain.StateFailed:
		mark = errorStyle.Render("✗")
	default:
		mark = mutedStyle.Render("·")
	}

	line := fmt.Sprintf("%s %s", mark, r.Instruction.String())
	if r.Message != "" {
		line += mutedStyle.Render("  " + r.Message)
	}
	if r.Error != "" {
		line += "\n    " + errorStyle.Render(r.Error)
	}
	return line
}
