// Package nlp turns chat messages into task-management intents and entities
// using deterministic keyword and pattern cascades.
package nlp

import (
	"time"

	"github.com/planit/backend/domain"
)

// Options configures a Parser.
type Options struct {
	Policy Policy
	// DefaultPriority fills a missing priority on create. Empty means medium.
	DefaultPriority string
}

// ParsedIntent is the per-message result handed to the action layer.
type ParsedIntent struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
}

// Parser couples a classification policy with the shared extractor.
type Parser struct {
	classifier      *Classifier
	extractor       *Extractor
	defaultPriority string
}

func NewParser(opts Options) *Parser {
	priority := opts.DefaultPriority
	if !domain.ValidPriority(priority) {
		priority = domain.PriorityMedium
	}
	return &Parser{
		classifier:      NewClassifier(opts.Policy),
		extractor:       NewExtractor(),
		defaultPriority: priority,
	}
}

// Parse classifies text and extracts entities for task intents. Create
// intents get their defaults filled relative to now.
func (p *Parser) Parse(text string, now time.Time) ParsedIntent {
	intent := p.classifier.Classify(text)
	parsed := ParsedIntent{Intent: intent}
	if !intent.IsTaskAction() {
		return parsed
	}
	parsed.Entities = p.extractor.Extract(text, intent, now)
	if intent == IntentCreateTask {
		ApplyCreateDefaults(&parsed.Entities, now, p.defaultPriority)
	}
	return parsed
}

func (p *Parser) Policy() Policy {
	return p.classifier.Policy()
}

func (p *Parser) DefaultPriority() string {
	return p.defaultPriority
}

func (p *Parser) Classifier() *Classifier {
	return p.classifier
}

func (p *Parser) Extractor() *Extractor {
	return p.extractor
}
