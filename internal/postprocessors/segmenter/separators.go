package segmenter

import (
	"regexp"
	"strings"
)

// markerMode says what happens to the text a separator matched.
type markerMode int

const (
	// markerDrop discards the match (horizontal rules, underlines).
	markerDrop markerMode = iota

	// markerLead keeps the text from capture group 1 onwards at the start
	// of the following section. Only the bytes before group 1 are consumed.
	markerLead

	// markerIsolate emits group 1 as a section of its own.
	markerIsolate
)

// separator is one boundary pattern applied during successive splitting.
type separator struct {
	re   *regexp.Regexp
	mode markerMode
}

// basicSeparators split on headings, task and phase markers, and paragraph
// breaks that open a capitalised line. Heading hashes are dropped, titles kept.
var basicSeparators = []separator{
	{re: regexp.MustCompile(`\n#{1,6}[ \t]+(\S)`), mode: markerLead},
	{re: regexp.MustCompile(`\n(Task \d+)`), mode: markerLead},
	{re: regexp.MustCompile(`\n(Phase \d+)`), mode: markerLead},
	{re: regexp.MustCompile(`\n(Subtask \d+)`), mode: markerLead},
	{re: regexp.MustCompile(`\n\n([A-Z])`), mode: markerLead},
}

// enhancedSeparators add setext underlines, step markers, bracketed tags,
// horizontal rules and capitalised "LABEL:" paragraphs. Heading lines and
// bracketed tags become their own sections so the classifier can see them.
var enhancedSeparators = []separator{
	{re: regexp.MustCompile(`\n(#{1,6}[ \t]+[^\n]*)\n`), mode: markerIsolate},
	{re: regexp.MustCompile(`\n={3,}\n`), mode: markerDrop},
	{re: regexp.MustCompile(`\n(Task \d+[:.])`), mode: markerLead},
	{re: regexp.MustCompile(`\n(Phase \d+[:.])`), mode: markerLead},
	{re: regexp.MustCompile(`\n(Step \d+[:.])`), mode: markerLead},
	{re: regexp.MustCompile(`\n(\[[^\]\n]*\])\n`), mode: markerIsolate},
	{re: regexp.MustCompile(`\n-{3,}\n`), mode: markerDrop},
	{re: regexp.MustCompile(`\n\n([A-Z][^a-z]*:)`), mode: markerLead},
}

// split cuts text at every match of the separator. Scanning resumes at the
// start of the kept marker so markers never swallow a following boundary.
func (s separator) split(text string) []string {
	var parts []string
	pos := 0
	from := 0

	for from < len(text) {
		loc := s.re.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += from
			}
		}

		parts = append(parts, text[pos:loc[0]])

		switch s.mode {
		case markerDrop:
			pos = loc[1]
			from = loc[1]
		case markerLead:
			pos = loc[2]
			from = loc[2]
			if from == loc[0] {
				from++
			}
		case markerIsolate:
			parts = append(parts, text[loc[2]:loc[3]])
			pos = loc[3]
			from = loc[3]
		}
	}
	parts = append(parts, text[pos:])

	return parts
}

// segment applies every separator in turn to every fragment produced so far,
// then trims fragments and drops the empty ones.
func segment(text string, seps []separator) []string {
	// Surrounding newlines let line-anchored patterns match the first and last lines.
	sections := []string{"\n" + text + "\n"}
	for _, sep := range seps {
		var next []string
		for _, section := range sections {
			next = append(next, sep.split(section)...)
		}
		sections = next
	}

	out := make([]string, 0, len(sections))
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section != "" {
			out = append(out, section)
		}
	}
	return out
}

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// splitSentences breaks text after sentence-ending punctuation.
func splitSentences(text string) []string {
	var sentences []string
	pos := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[pos:loc[0]+1])
		pos = loc[1]
	}
	if pos < len(text) {
		sentences = append(sentences, text[pos:])
	}
	return sentences
}
