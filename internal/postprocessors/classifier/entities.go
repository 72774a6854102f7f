package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

var technologyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(react|vue|angular|next\.?js|nuxt|svelte|typescript|javascript|python|java|go|rust)\b`),
	regexp.MustCompile(`(?i)\b(docker|kubernetes|aws|azure|gcp|mongodb|postgresql|mysql|redis)\b`),
	regexp.MustCompile(`(?i)\b(express|fastapi|django|flask|spring|laravel|rails)\b`),
}

var commandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:npm|yarn|pip|docker|git|kubectl)\s+\w+`),
	regexp.MustCompile(`\bnpx\s+[\w@/-]+`),
}

var filePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[./][\w/-]+\.\w+`),
	regexp.MustCompile(`\b\w+/[\w/-]+`),
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)

	installDependencyPattern = regexp.MustCompile(`(?:npm install|yarn add|pip install)\s+([\w@/-]+)`)
	manifestEntryPattern     = regexp.MustCompile(`"([\w@/-]+)"\s*:\s*"[^"]*"`)

	markdownHeadingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	taskPattern            = regexp.MustCompile(`(?m)^(Task \d+[^:\n]*)`)
	phasePattern           = regexp.MustCompile(`(?m)^(Phase \d+[^:\n]*)`)
)

// ExtractEntities scans content for technologies, commands, file paths, URLs
// and dependencies. Only classes with at least one value are present; values
// are deduplicated and sorted.
func ExtractEntities(content string) map[string][]string {
	entities := make(map[string][]string)

	var technologies []string
	for _, re := range technologyPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			technologies = append(technologies, strings.ToLower(m[1]))
		}
	}
	addEntities(entities, domain.EntityTechnologies, technologies)

	var commands []string
	for _, re := range commandPatterns {
		commands = append(commands, re.FindAllString(content, -1)...)
	}
	addEntities(entities, domain.EntityCommands, commands)

	urls := urlPattern.FindAllString(content, -1)
	for i, u := range urls {
		urls[i] = strings.TrimRight(u, ".,;:)]'\"")
	}
	addEntities(entities, domain.EntityURLs, urls)

	// URLs would otherwise be read as host-relative paths.
	withoutURLs := urlPattern.ReplaceAllString(content, " ")
	var paths []string
	for _, re := range filePathPatterns {
		paths = append(paths, re.FindAllString(withoutURLs, -1)...)
	}
	addEntities(entities, domain.EntityFilePaths, paths)

	var deps []string
	for _, re := range []*regexp.Regexp{installDependencyPattern, manifestEntryPattern} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			deps = append(deps, m[1])
		}
	}
	addEntities(entities, domain.EntityDependencies, deps)

	return entities
}

func addEntities(entities map[string][]string, class string, values []string) {
	if len(values) == 0 {
		return
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	entities[class] = out
}

// ContentHierarchy lists the heading, task and phase markers found in content,
// in the form "H2: Title", "Task: Task 3 ..." and "Phase: Phase 1 ...".
func ContentHierarchy(content string) []string {
	var hierarchy []string
	for _, m := range markdownHeadingPattern.FindAllStringSubmatch(content, -1) {
		hierarchy = append(hierarchy, headingLabel(len(m[1]), m[2]))
	}
	if m := taskPattern.FindStringSubmatch(content); m != nil {
		hierarchy = append(hierarchy, "Task: "+m[1])
	}
	if m := phasePattern.FindStringSubmatch(content); m != nil {
		hierarchy = append(hierarchy, "Phase: "+m[1])
	}
	return hierarchy
}

func headingLabel(level int, title string) string {
	return fmt.Sprintf("H%d: %s", level, strings.TrimSpace(title))
}

// Confidence scores how sure the classifier is about a chunk's type.
// The base is 0.8, short content loses 0.2, long content gains 0.1, and a
// type-reinforcing signal adds up to 0.2. The result is clamped to [0.1, 1.0].
func Confidence(content string, t domain.ContentType) float64 {
	score := 0.8

	switch n := utf8.RuneCountInString(content); {
	case n < 50:
		score -= 0.2
	case n > 1000:
		score += 0.1
	}

	switch {
	case t == domain.ContentTypeCode &&
		(strings.Contains(content, "def ") || strings.Contains(content, "function ")):
		score += 0.2
	case t == domain.ContentTypeCommand &&
		(strings.Contains(content, "npm") || strings.Contains(content, "pip") || strings.Contains(content, "git")):
		score += 0.2
	case t == domain.ContentTypeConfig &&
		(strings.Contains(content, "{") || strings.Contains(content, ":")):
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}
