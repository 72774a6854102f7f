package classifier

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// Rule tags content with Type when Match returns true.
type Rule struct {
	Type  domain.ContentType
	Match func(content string) bool
}

// EnhancedRules is the full classification order. The first matching rule wins,
// so the position of a rule is its priority:
//
//  1. section_header: markdown heading, or a first line in capitals ending in ':'
//  2. code: fenced block, leading '//' or '#', or a keyword statement line
//  3. config: config file extension mention, or a 'key: value' / 'key=value' line
//  4. command: npm install, pip install, npx, git, mkdir, cd
//  5. table: a line with at least two pipes
//  6. list: bulleted or numbered line
//  7. quote: leading '>'
//  8. diagram: box-drawing characters or runs of '+', '-' and '|'
//
// Anything else is text.
var EnhancedRules = []Rule{
	{Type: domain.ContentTypeSectionHeader, Match: isSectionHeader},
	{Type: domain.ContentTypeCode, Match: isCode},
	{Type: domain.ContentTypeConfig, Match: isConfig},
	{Type: domain.ContentTypeCommand, Match: isCommand},
	{Type: domain.ContentTypeTable, Match: isTable},
	{Type: domain.ContentTypeList, Match: isList},
	{Type: domain.ContentTypeQuote, Match: isQuote},
	{Type: domain.ContentTypeDiagram, Match: isDiagram},
}

// BasicRules is the reduced order used in basic mode: code, config, command.
var BasicRules = []Rule{
	{Type: domain.ContentTypeCode, Match: isBasicCode},
	{Type: domain.ContentTypeConfig, Match: mentionsConfigFile},
	{Type: domain.ContentTypeCommand, Match: isBasicCommand},
}

// Classify returns the type of the first rule that matches content, or text.
func Classify(content string, rules []Rule) domain.ContentType {
	for _, rule := range rules {
		if rule.Match(content) {
			return rule.Type
		}
	}
	return domain.ContentTypeText
}

var (
	headingPattern     = regexp.MustCompile(`^#+\s`)
	capsLabelPattern   = regexp.MustCompile(`^[A-Z][^a-z]*:\s*$`)
	codeKeywordPattern = regexp.MustCompile(`(?m)^\s*(def|class|function|import|from|const|let|var)\s`)
	keyValuePattern    = regexp.MustCompile(`(?m)^\s*[\w-]+\s*[:=]`)
	tablePattern       = regexp.MustCompile(`\|[^\n]*\|`)
	bulletPattern      = regexp.MustCompile(`(?m)^\s*[-*+]\s`)
	numberedPattern    = regexp.MustCompile(`(?m)^\s*\d+\.\s`)
	quotePattern       = regexp.MustCompile(`(?m)^\s*>`)
	boxDrawingPattern  = regexp.MustCompile(`[┌┐└┘├┤┬┴┼│─]`)
	asciiArtPattern    = regexp.MustCompile(`[+\-|]{3,}`)
)

var configExtensions = []string{".json", ".yaml", ".yml", ".toml", ".env"}

var (
	basicCommands    = []string{"npm install", "npx", "cd ", "mkdir", "git "}
	enhancedCommands = []string{"npm install", "pip install", "npx", "cd ", "mkdir", "git "}
)

func firstLine(content string) string {
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		return content[:i]
	}
	return content
}

func isSectionHeader(content string) bool {
	return headingPattern.MatchString(content) || capsLabelPattern.MatchString(firstLine(content))
}

func isBasicCode(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.Contains(content, "```") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "#")
}

func isCode(content string) bool {
	return isBasicCode(content) || codeKeywordPattern.MatchString(content)
}

func mentionsConfigFile(content string) bool {
	lower := strings.ToLower(content)
	for _, ext := range configExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func isConfig(content string) bool {
	return mentionsConfigFile(content) || keyValuePattern.MatchString(content)
}

func containsAny(content string, needles []string) bool {
	lower := strings.ToLower(content)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func isBasicCommand(content string) bool {
	return containsAny(content, basicCommands)
}

func isCommand(content string) bool {
	return containsAny(content, enhancedCommands)
}

func isTable(content string) bool {
	return tablePattern.MatchString(content)
}

func isList(content string) bool {
	return bulletPattern.MatchString(content) || numberedPattern.MatchString(content)
}

func isQuote(content string) bool {
	return quotePattern.MatchString(content)
}

func isDiagram(content string) bool {
	return boxDrawingPattern.MatchString(content) || asciiArtPattern.MatchString(content)
}
