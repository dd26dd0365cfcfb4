// Package textproc cleans press release text and derives sections,
// entities and metadata for indexing.
package textproc

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// Result holds the output of the preprocessing pipeline.
type Result struct {
	CleanText string
	Sections  map[string]string
	Entities  Entities
	Metadata  map[string]any
}

// Processor runs the full preprocessing pipeline over raw document text.
type Processor struct{}

// NewProcessor creates a Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process cleans the raw text and extracts sections, entities and metadata.
func (p *Processor) Process(raw string) (Result, error) {
	clean := Clean(raw)

	doc, err := prose.NewDocument(clean)
	if err != nil {
		return Result{}, fmt.Errorf("segment text: %w", err)
	}

	sents := doc.Sentences()
	sentences := make([]string, len(sents))
	for i, s := range sents {
		sentences[i] = s.Text
	}

	sections := ExtractSections(sentences)
	entities := ExtractEntities(doc, clean)
	metadata := BuildMetadata(clean, len(sentences), sections, entities)

	return Result{
		CleanText: clean,
		Sections:  sections,
		Entities:  entities,
		Metadata:  metadata,
	}, nil
}
