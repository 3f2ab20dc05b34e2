package analysis

import (
	"fmt"
	"strings"

	"hn-distill/internal/domain"
)

// FormatMarkdown формирует markdown-экспорт результата анализа.
// Пустые опциональные секции пропускаются целиком.
func FormatMarkdown(thread domain.NormalizedThread, result domain.AnalysisResult) string {
	var lines []string

	lines = append(lines, "# "+thread.Title)
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("> Source: [Hacker News Thread](https://news.ycombinator.com/item?id=%s)", thread.ThreadID))
	lines = append(lines, "")

	lines = append(lines, "## Key Learnings")
	lines = append(lines, "")
	for _, learning := range result.GlobalSummary.KeyLearnings {
		lines = append(lines, "- "+learning)
	}
	lines = append(lines, "")

	if result.CriticalThinking != nil {
		lines = append(lines, criticalThinkingLines(*result.CriticalThinking)...)
	}

	lines = append(lines, "## Themes")
	lines = append(lines, "")
	for _, theme := range result.Themes {
		lines = append(lines, themeLines(theme)...)
	}

	return strings.Join(lines, "\n")
}

func criticalThinkingLines(ct domain.CriticalThinking) []string {
	sections := []struct {
		heading string
		body    string
	}{
		{"What breaks this?", ct.WhatBreaksThis},
		{"Non-obvious truth", ct.NonObviousTruth},
		{"Hidden assumptions", ct.HiddenAssumptions},
		{"New bottleneck", ct.NewBottleneck},
		{"Leverage point", ct.LeveragePoint},
	}

	var lines []string
	lines = append(lines, "## Critical Thinking")
	lines = append(lines, "")
	for _, section := range sections {
		if section.body == "" {
			continue
		}
		lines = append(lines, "### "+section.heading)
		lines = append(lines, section.body)
		lines = append(lines, "")
	}
	return lines
}

func themeLines(theme domain.Theme) []string {
	var lines []string

	lines = append(lines, "### "+theme.Title)
	lines = append(lines, "")
	lines = append(lines, "> "+theme.WhyItMatters)
	lines = append(lines, "")

	lines = append(lines, "**Key Points:**")
	lines = append(lines, "")
	for _, point := range theme.KeyPoints {
		lines = append(lines, "- "+point)
	}
	lines = append(lines, "")

	if len(theme.Glossary) > 0 {
		lines = append(lines, "**Glossary:**")
		lines = append(lines, "")
		for _, entry := range theme.Glossary {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", entry.Term, entry.Definition))
		}
		lines = append(lines, "")
	}

	if len(theme.BeyondBasic) > 0 {
		lines = append(lines, "**Beyond the Basics:**")
		lines = append(lines, "")
		for _, text := range theme.BeyondBasic {
			lines = append(lines, text)
			lines = append(lines, "")
		}
	}

	if len(theme.Links) > 0 {
		lines = append(lines, "**Links:**")
		lines = append(lines, "")
		for _, link := range theme.Links {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", link.Label, link.URL))
		}
		lines = append(lines, "")
	}

	return lines
}
