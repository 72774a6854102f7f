package domain

import "sort"

// ContentType tags the kind of content a chunk holds.
type ContentType string

// Available content types.
const (
	ContentTypeText          ContentType = "text"
	ContentTypeCode          ContentType = "code"
	ContentTypeConfig        ContentType = "config"
	ContentTypeCommand       ContentType = "command"
	ContentTypeTable         ContentType = "table"
	ContentTypeList          ContentType = "list"
	ContentTypeQuote         ContentType = "quote"
	ContentTypeDiagram       ContentType = "diagram"
	ContentTypeSectionHeader ContentType = "section_header"
	ContentTypeMetadata      ContentType = "metadata"
)

// IsValid returns true if the content type is recognised.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeText, ContentTypeCode, ContentTypeConfig, ContentTypeCommand,
		ContentTypeTable, ContentTypeList, ContentTypeQuote, ContentTypeDiagram,
		ContentTypeSectionHeader, ContentTypeMetadata:
		return true
	default:
		return false
	}
}

// IsPriority reports whether chunks of this type carry build signals
// (code, command or config) and should be preferred in prompts.
func (t ContentType) IsPriority() bool {
	return t == ContentTypeCode || t == ContentTypeCommand || t == ContentTypeConfig
}

// String returns the string representation.
func (t ContentType) String() string {
	return string(t)
}

// Entity classes recorded in Chunk.Entities.
const (
	EntityTechnologies = "technologies"
	EntityCommands     = "commands"
	EntityFilePaths    = "file_paths"
	EntityURLs         = "urls"
	EntityDependencies = "dependencies"
)

// Well-known chunk metadata keys.
const (
	MetaTokenCount     = "token_count"
	MetaSectionIndex   = "section_index"
	MetaSubChunk       = "sub_chunk"
	MetaTotalSubChunks = "total_sub_chunks"
	MetaProcessingMode = "processing_mode"
)

// Chunk is one classified, token-bounded slice of a source document.
// Chunks are created once by the segmenter and classifier and never mutated afterwards.
type Chunk struct {
	// Content is the text of this chunk. Never empty.
	Content string `json:"content"`

	// Type is the classified content category.
	Type ContentType `json:"chunk_type"`

	// Index is the position within the document's chunk sequence.
	Index int `json:"chunk_index"`

	// SourceFile identifies the originating document.
	SourceFile string `json:"source_file"`

	// Metadata holds advisory values such as token counts.
	Metadata map[string]any `json:"metadata,omitempty"`

	// SectionHierarchy is the header path, outermost first.
	SectionHierarchy []string `json:"section_hierarchy,omitempty"`

	// Entities maps an entity class to its deduplicated values.
	Entities map[string][]string `json:"extracted_entities,omitempty"`

	// Confidence is the classifier's confidence in Type, in [0.1, 1.0].
	Confidence float64 `json:"confidence_score,omitempty"`
}

// ChunkTypeCounts tallies chunks by content type.
func ChunkTypeCounts(chunks []Chunk) map[string]int {
	counts := make(map[string]int)
	for i := range chunks {
		counts[chunks[i].Type.String()]++
	}
	return counts
}

// SourceFiles returns the distinct source files of chunks in first-seen order.
func SourceFiles(chunks []Chunk) []string {
	seen := make(map[string]bool)
	var files []string
	for i := range chunks {
		f := chunks[i].SourceFile
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	return files
}

// EntityValues collects every value of one entity class across chunks,
// deduplicated and sorted.
func EntityValues(chunks []Chunk, class string) []string {
	set := make(map[string]struct{})
	for i := range chunks {
		for _, v := range chunks[i].Entities[class] {
			set[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
