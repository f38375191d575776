package nlp

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent is the classified goal of a message.
type Intent string

const (
	IntentCreateTask Intent = "create_task"
	IntentUpdateTask Intent = "update_task"
	IntentDeleteTask Intent = "delete_task"
	IntentGetTasks   Intent = "get_tasks"
	IntentCalculator Intent = "calculator"
	IntentChat       Intent = "chat"
	IntentNone       Intent = "none"
)

// IsTaskAction reports whether the intent reads or writes tasks.
func (i Intent) IsTaskAction() bool {
	switch i {
	case IntentCreateTask, IntentUpdateTask, IntentDeleteTask, IntentGetTasks:
		return true
	}
	return false
}

// Policy selects how strictly a message must talk about tasks before it is
// routed to a task action.
type Policy int

const (
	// PolicyUnconstrained runs the keyword groups directly (direct API path).
	PolicyUnconstrained Policy = iota
	// PolicyTaskContext requires a task noun first (conversational assistant).
	PolicyTaskContext
)

func (p Policy) String() string {
	if p == PolicyTaskContext {
		return "task_context"
	}
	return "unconstrained"
}

type keywordGroup struct {
	intent  Intent
	pattern *regexp.Regexp
}

// Classifier maps raw text to an Intent. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	policy       Policy
	taskContext  *regexp.Regexp
	direct       []keywordGroup
	contextual   []keywordGroup
	arithmetic   *regexp.Regexp
	whatIsNumber *regexp.Regexp
}

// NewClassifier builds a classifier for the given policy.
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{
		policy:      policy,
		taskContext: regexp.MustCompile(`\b(?:task|todo|to-do|assignment|job|work)`),
		// Evaluated in order; the first group containing a keyword wins.
		direct: []keywordGroup{
			{IntentDeleteTask, regexp.MustCompile(`delete|remove`)},
			{IntentCreateTask, regexp.MustCompile(`create|add|make|new task`)},
			{IntentGetTasks, regexp.MustCompile(`list|show|what are my tasks`)},
		},
		// The group whose phrase starts earliest in the message wins; ties
		// fall back to slice order. A verb only counts when a task noun
		// follows it within a few words, so "what's new at work" stays chat.
		contextual: []keywordGroup{
			{IntentDeleteTask, taskPhrase(`delete|remove|cancel|drop|get rid of`, 6)},
			{IntentUpdateTask, taskPhrase(`update|edit|change|modify|mark|complete|finish|rename|reschedule`, 6)},
			{IntentCreateTask, taskPhrase(`create|add|make|schedule|set up`, 3)},
			{IntentCreateTask, taskPhrase(`new`, 0)},
			{IntentGetTasks, taskPhrase(`list|show|display|view|what are|what's on`, 4)},
			{IntentGetTasks, regexp.MustCompile(`\b(?:my|pending|completed)(?:\s+\S+)?\s+(?:tasks|todos|to-dos|assignments)\b`)},
		},
		arithmetic:   regexp.MustCompile(`\d+(?:\.\d+)?\s*[+\-*/]\s*\d+`),
		whatIsNumber: regexp.MustCompile(`what is \d+`),
	}
}

// taskNoun is the object a task-context verb must act on. "work" passes the
// context gate but is too common in small talk to make a phrase on its own.
const taskNoun = `(?:tasks?|todos?|to-dos?|assignments?|jobs?)`

// taskPhrase matches one of verbs followed by a task noun with at most gap
// words in between.
func taskPhrase(verbs string, gap int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`\b(?:%s)(?:\s+\S+){0,%d}?\s+%s\b`, verbs, gap, taskNoun))
}

func (c *Classifier) Policy() Policy {
	return c.policy
}

// Classify returns the intent of text. It is a pure function of its input.
func (c *Classifier) Classify(text string) Intent {
	lower := strings.ToLower(strings.ToValidUTF8(text, ""))
	if c.policy == PolicyTaskContext {
		return c.classifyInContext(lower)
	}
	for _, g := range c.direct {
		if g.pattern.MatchString(lower) {
			return g.intent
		}
	}
	return IntentNone
}

func (c *Classifier) classifyInContext(lower string) Intent {
	if c.taskContext.MatchString(lower) {
		best, bestAt := IntentChat, -1
		for _, g := range c.contextual {
			loc := g.pattern.FindStringIndex(lower)
			if loc == nil {
				continue
			}
			if bestAt < 0 || loc[0] < bestAt {
				best, bestAt = g.intent, loc[0]
			}
		}
		if bestAt >= 0 {
			return best
		}
	}
	if c.IsCalculation(lower) {
		return IntentCalculator
	}
	return IntentChat
}

// IsCalculation reports whether the text looks like an arithmetic question.
func (c *Classifier) IsCalculation(text string) bool {
	lower := strings.ToLower(text)
	return c.arithmetic.MatchString(lower) || c.whatIsNumber.MatchString(lower)
}
