package services

import (
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// Rule-based defaults used when nothing better is found.
const (
	defaultProjectName        = "unknown-project"
	defaultProjectDescription = "Generated project"
)

var projectKeywords = map[string]bool{"project": true, "app": true, "application": true}

// technology pairs a canonical stack tag with the spellings that imply it.
type technology struct {
	name    string
	aliases []string
}

var technologyTable = []technology{
	{"next.js", []string{"next.js", "nextjs", "next"}},
	{"react", []string{"react"}},
	{"typescript", []string{"typescript", "ts"}},
	{"tailwind", []string{"tailwind", "tailwindcss"}},
	{"prisma", []string{"prisma"}},
	{"sqlite", []string{"sqlite"}},
	{"node.js", []string{"node.js", "nodejs", "node"}},
	{"python", []string{"python"}},
	{"express", []string{"express"}},
	{"fastapi", []string{"fastapi"}},
	{"django", []string{"django"}},
	{"flask", []string{"flask"}},
}

var installCommands = []string{"npm install", "yarn add", "pip install"}

// RuleBased derives an analysis from chunks using fixed extraction rules.
// It never fails; absent signals leave fields empty.
func (s *SynthesisService) RuleBased(chunks []domain.Chunk) *domain.Analysis {
	return ruleBasedAnalysis(chunks)
}

func ruleBasedAnalysis(chunks []domain.Chunk) *domain.Analysis {
	return &domain.Analysis{
		ProjectName:          extractProjectName(chunks),
		Description:          defaultProjectDescription,
		TechnologyStack:      extractTechnologies(chunks),
		DirectoryStructure:   extractDirectoryTree(chunks),
		Dependencies:         extractDependencies(chunks),
		EnvironmentVariables: map[string]string{},
		PostBuildCommands:    []string{},
		BuildSequence:        extractBuildSteps(chunks),
		Provider:             domain.ProviderRuleBased,
		Confidence:           domain.RuleBasedConfidence,
	}
}

// extractProjectName returns the word after the first project keyword on the
// last line that has one. Later mentions override earlier ones, so a passing
// "this project uses ..." near the top does not shadow the real name.
func extractProjectName(chunks []domain.Chunk) string {
	name := defaultProjectName
	for i := range chunks {
		for _, line := range strings.Split(chunks[i].Content, "\n") {
			if candidate := lineProjectName(line); candidate != "" {
				name = candidate
			}
		}
	}
	return name
}

func lineProjectName(line string) string {
	words := strings.Fields(line)
	for j := 0; j < len(words)-1; j++ {
		if !projectKeywords[strings.ToLower(strings.Trim(words[j], ":-"))] {
			continue
		}
		if name := strings.ToLower(strings.Trim(words[j+1], ":-")); name != "" {
			return name
		}
	}
	return ""
}

// extractTechnologies scans all content for the technology table, in table order.
func extractTechnologies(chunks []domain.Chunk) []string {
	var all strings.Builder
	for i := range chunks {
		all.WriteString(strings.ToLower(chunks[i].Content))
		all.WriteByte('\n')
	}
	text := all.String()

	stack := []string{}
	for _, tech := range technologyTable {
		for _, alias := range tech.aliases {
			if containsToken(text, alias) {
				stack = append(stack, tech.name)
				break
			}
		}
	}
	return stack
}

// containsToken reports whether word occurs in text delimited by
// non-alphanumeric characters, so "ts" does not match "requirements".
func containsToken(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		if (idx == 0 || !isWordByte(text[idx-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// extractDependencies collects package names following install commands in
// command chunks. Flags are skipped and repeats collapsed.
func extractDependencies(chunks []domain.Chunk) []string {
	var deps []string
	for i := range chunks {
		if chunks[i].Type != domain.ContentTypeCommand {
			continue
		}
		for _, line := range strings.Split(chunks[i].Content, "\n") {
			for _, cmd := range installCommands {
				idx := strings.Index(line, cmd)
				if idx < 0 {
					continue
				}
				for _, part := range strings.Fields(line[idx+len(cmd):]) {
					if strings.HasPrefix(part, "-") {
						continue
					}
					// Chained commands end the package list.
					if part == "&&" || part == ";" || part == "|" {
						break
					}
					deps = append(deps, part)
				}
			}
		}
	}
	return domain.CollapseDuplicates(deps)
}

// extractDirectoryTree reads path comments ("// src/app/page.tsx") and
// trailing-slash lines ("src/components/") from code and config chunks.
func extractDirectoryTree(chunks []domain.Chunk) domain.DirectoryTree {
	tree := make(domain.DirectoryTree)
	for i := range chunks {
		if t := chunks[i].Type; t != domain.ContentTypeCode && t != domain.ContentTypeConfig {
			continue
		}
		for _, line := range strings.Split(chunks[i].Content, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "//"):
				path := strings.TrimSpace(strings.TrimLeft(line, "/"))
				if isPathLike(path) && strings.Contains(path, ".") {
					tree.Insert(path, false)
				}
			case strings.HasSuffix(line, "/") || strings.HasSuffix(line, `\`):
				path := strings.TrimRight(line, `/\`)
				if isPathLike(path) {
					tree.Insert(path, true)
				}
			}
		}
	}
	return tree
}

// isPathLike rejects prose: paths have no whitespace.
func isPathLike(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t")
}

// extractBuildSteps returns every non-empty, non-comment command line in chunk order.
func extractBuildSteps(chunks []domain.Chunk) []string {
	steps := []string{}
	for i := range chunks {
		if chunks[i].Type != domain.ContentTypeCommand {
			continue
		}
		for _, line := range strings.Split(chunks[i].Content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
				continue
			}
			steps = append(steps, line)
		}
	}
	return steps
}
