package proposal

import (
	"strings"

	"github.com/flemzord/stagewright/internal/naming"
)

const (
	statusLine  = "**Status**: PENDING OPERATOR REVIEW"
	notProvided = "_Not provided._"
	disclaimer  = "*This proposal was generated by the agent. It must be reviewed and manually " +
		"applied by an operator. No automatic changes are made.*"
)

// RenderConfigChange renders a config change proposal as Markdown.
func RenderConfigChange(p Proposal) string {
	ts := naming.SecondStamp(p.CreatedAt)

	var b strings.Builder
	b.WriteString("# Config Change Proposal: " + p.Title + "\n\n")
	b.WriteString(statusLine + "\n")
	b.WriteString("**Proposed at**: " + ts + "\n")
	b.WriteString("**Target**: `" + p.Title + "`\n\n")
	b.WriteString("## Rationale\n\n")
	b.WriteString(p.Summary + "\n\n")
	b.WriteString("## Proposed Content\n\n")
	b.WriteString(p.Content + "\n\n")
	b.WriteString("---\n")
	b.WriteString(disclaimer + "\n")
	return b.String()
}

// RenderChange renders a generic change proposal as Markdown. The diff is
// fenced with more backticks than it contains so it cannot close the block.
func RenderChange(p Proposal) string {
	ts := naming.SecondStamp(p.CreatedAt)

	var b strings.Builder
	b.WriteString("# Change Proposal: " + singleLine(p.Title) + "\n\n")
	b.WriteString(statusLine + "\n")
	b.WriteString("**Proposed at**: " + ts + "\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString(p.Summary + "\n\n")

	b.WriteString("## Files\n\n")
	files := cleanFiles(p.Files)
	if len(files) == 0 {
		b.WriteString(notProvided + "\n")
	}
	for _, f := range files {
		b.WriteString("- `" + f + "`\n")
	}
	b.WriteString("\n")

	fence := naming.Fence(p.Content)
	b.WriteString("## Diff\n\n")
	b.WriteString(fence + "diff\n")
	b.WriteString(p.Content)
	if !strings.HasSuffix(p.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence + "\n\n")

	b.WriteString("## Test Plan\n\n")
	b.WriteString(orPlaceholder(p.TestPlan) + "\n\n")

	b.WriteString("## Risks\n\n")
	b.WriteString(orPlaceholder(p.Risks) + "\n\n")

	b.WriteString("---\n")
	b.WriteString(disclaimer + "\n")
	return b.String()
}

func orPlaceholder(s string) string {
	if isBlank(s) {
		return notProvided
	}
	return s
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanFiles drops blank entries and keeps each path on one line.
func cleanFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		f = strings.ReplaceAll(singleLine(f), "`", "")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
