package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/planit/backend/domain"
)

// minTitleLen is the shortest cleaned capture a non-quoted title rule may return.
const minTitleLen = 3

// Entities is the loosely-typed bag of fields pulled out of a message.
// Empty strings mean "not mentioned".
type Entities struct {
	Title       string `json:"title,omitempty"`
	NewTitle    string `json:"newTitle,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	SearchQuery string `json:"searchQuery,omitempty"`
}

// HasChanges reports whether the entities carry anything an update could apply.
func (e Entities) HasChanges() bool {
	return e.NewTitle != "" || e.Description != "" || e.Priority != "" || e.Status != "" ||
		e.DueDate != "" || e.StartTime != "" || e.EndTime != ""
}

// titleRule is one step of the title cascade. intents limits the rule to the
// listed intents; nil means every intent. verbatim captures skip boundary
// truncation and the length threshold.
type titleRule struct {
	name     string
	intents  []Intent
	pattern  *regexp.Regexp
	verbatim bool
}

func (r titleRule) appliesTo(intent Intent) bool {
	if r.intents == nil {
		return true
	}
	for _, i := range r.intents {
		if i == intent {
			return true
		}
	}
	return false
}

type valueRule struct {
	pattern *regexp.Regexp
	value   string
}

const (
	verbs      = `create|add|make|new|schedule|delete|remove|cancel|drop|update|edit|change|modify|mark|complete|finish|rename|set|move|reschedule`
	timeToken  = `(\d{1,2}:\d{2}(?:\s*[ap]\.?m\.?)?|\d{1,2}\s*[ap]\.?m\.?)`
	dayKeyword = `today|tonight|tomorrow|next\s+week|in\s+\d+\s+days?|(?:on\s+|next\s+|this\s+)?(?:mon|tues|wednes|thurs|fri|satur|sun)day`
)

var (
	writeIntents  = []Intent{IntentUpdateTask, IntentDeleteTask}
	createIntents = []Intent{IntentCreateTask}
)

// Extractor pulls Entities out of free text with ordered pattern cascades.
// It holds only compiled patterns and is safe for concurrent use.
type Extractor struct {
	titleRules []titleRule

	createBoundary *regexp.Regexp
	writeBoundary  *regexp.Regexp

	titlePrefixes []*regexp.Regexp
	titleSuffixes []*regexp.Regexp

	renamePatterns []*regexp.Regexp
	searchPattern  *regexp.Regexp

	priorityRules     []valueRule
	priorityTarget    *regexp.Regexp
	statusRules       []valueRule
	updateStatusRules []valueRule
	descriptionLabel  *regexp.Regexp
	sentenceBreak     *regexp.Regexp
	dueTrigger        *regexp.Regexp
	dueKeyword        *regexp.Regexp
	isoDate           *regexp.Regexp
	inDays            *regexp.Regexp
	startTrigger      *regexp.Regexp
	endTrigger        *regexp.Regexp
	endDash           *regexp.Regexp
	endsWithTime      *regexp.Regexp
	timeRange         *regexp.Regexp
}

// NewExtractor compiles the extraction cascades.
func NewExtractor() *Extractor {
	// Shared clause ends: punctuation, labels, times, day words, priority phrases.
	common := `|\s*[.!?;,](?:\s|$)` +
		`|\s*\b(?:description|desc|about)\s*:` +
		`|\s+(?:at|from|until|till|between|starting|start|begin|beginning|ending|end)\s+\d` +
		`|\s+\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?\b|\s+\d{1,2}:\d{2}` +
		`|\s+(?:` + dayKeyword + `)\b` +
		`|\s+(?:high|medium|low|normal)[\s-]+priority\b`

	return &Extractor{
		// First match with a usable result wins.
		titleRules: []titleRule{
			{name: "double-quoted", pattern: regexp.MustCompile(`["“]([^"“”]+)["”]`), verbatim: true},
			{name: "single-quoted", pattern: regexp.MustCompile(`(?:^|[\s:(])'([^']+)'(?:$|[\s.,!?;:)])`), verbatim: true},
			{name: "task-to-for", intents: createIntents, pattern: regexp.MustCompile(`(?i)\b(?:task|todo|to-do|reminder)\s+(?:to|for)\s+(.+)`)},
			{name: "remind-me", intents: createIntents, pattern: regexp.MustCompile(`(?i)\bremind\s+me\s+to\s+(.+)`)},
			{name: "named", pattern: regexp.MustCompile(`(?i)\b(?:called|named|titled)\s+(.+)`)},
			{name: "verb-the-x-task", intents: writeIntents, pattern: regexp.MustCompile(`(?i)\b(?:` + verbs + `)\s+(?:the\s+|my\s+|a\s+)?(.+?)\s+(?:task|todo|to-do)\b`)},
			{name: "task-x", intents: writeIntents, pattern: regexp.MustCompile(`(?i)\b(?:task|todo|to-do)\s+(.+)`)},
			{name: "verb-fallback", pattern: regexp.MustCompile(`(?i)\b(?:` + verbs + `)\s+(.+)`)},
		},

		createBoundary: regexp.MustCompile(`(?i)\s+(?:with|by|due|for|priority|status)\b` + common),
		writeBoundary:  regexp.MustCompile(`(?i)\s+(?:with|by|due|for|priority|status|to|as|into)\b` + common),

		titlePrefixes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:a|an|the|my|new|another|one)\s+`),
			regexp.MustCompile(`(?i)^(?:task|todo|to-do|reminder)s?\b\s*:?\s*`),
			regexp.MustCompile(`(?i)^(?:called|named|titled)\s+`),
			regexp.MustCompile(`(?i)^(?:to|for)\s+`),
			regexp.MustCompile(`(?i)^(?:the\s+)?(?:priority|status|due\s+date|deadline|title|name)\s+of\s+`),
		},
		titleSuffixes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\s+(?:to|on|in|into)\s+(?:my|the)\s+(?:tasks?|todos?|to-dos?|(?:task|todo|to-do)\s+list|list)$`),
			regexp.MustCompile(`(?i)\s+(?:task|todo|to-do)$`),
		},

		renamePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\brename\s+(?:the\s+)?(?:task\s+|todo\s+)?(.+?)\s+(?:to|as)\s+(.+)$`),
			regexp.MustCompile(`(?i)\bchange\s+the\s+(?:title|name)\s+of\s+(?:the\s+)?(?:task\s+)?(.+?)\s+to\s+(.+)$`),
		},
		searchPattern: regexp.MustCompile(`(?i)\b(?:about|containing|matching|named|called|with\s+title)\s+(.+)`),

		priorityRules: []valueRule{
			{regexp.MustCompile(`high[\s-]priority|priority\s*[:=]?\s*high|urgent|important`), domain.PriorityHigh},
			{regexp.MustCompile(`low[\s-]priority|priority\s*[:=]?\s*low|minor`), domain.PriorityLow},
			{regexp.MustCompile(`(?:medium|normal)[\s-]priority|priority\s*[:=]?\s*(?:medium|normal)`), domain.PriorityMedium},
		},
		priorityTarget: regexp.MustCompile(`\bpriority\b.*?\bto\s+(high|medium|normal|low)\b`),
		statusRules: []valueRule{
			{regexp.MustCompile(`\b(?:completed|done|finished)\b|\bas\s+complete\b`), domain.StatusCompleted},
			{regexp.MustCompile(`in[\s-]progress|working on`), domain.StatusInProgress},
			{regexp.MustCompile(`\b(?:pending|waiting)\b`), domain.StatusPending},
		},
		updateStatusRules: []valueRule{
			{regexp.MustCompile(`^(?:please\s+)?(?:complete|finish)\b`), domain.StatusCompleted},
			{regexp.MustCompile(`\b(?:reopen|undo)\b`), domain.StatusPending},
			{regexp.MustCompile(`\bstart(?:ed)?\s+(?:on|working)\b`), domain.StatusInProgress},
		},

		descriptionLabel: regexp.MustCompile(`(?i)\b(?:description|desc|about)\s*:\s*(.+)$`),
		sentenceBreak:    regexp.MustCompile(`[.!?]\s+`),

		dueTrigger: regexp.MustCompile(`\b(?:due(?:\s+(?:on|by|date))?|by|before|on)\s+(.+?)(?:\s+(?:at|from|with|priority|status|until|till|to|and)\b|[,;!?]|\.(?:\s|$)|$)`),
		dueKeyword: regexp.MustCompile(`\b(` + dayKeyword + `)\b`),
		isoDate:    regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		inDays:     regexp.MustCompile(`^in\s+(\d+)\s+days?$`),

		startTrigger: regexp.MustCompile(`\b(?:start(?:s|ing)?(?:\s+at)?|from|begin(?:s|ning)?(?:\s+at)?|at)\s+` + timeToken),
		endTrigger:   regexp.MustCompile(`\b(?:end(?:s|ing)?(?:\s+at)?|until|till|to|finish(?:es|ing)?(?:\s+at)?)\s+` + timeToken),
		endDash:      regexp.MustCompile(`-\s*` + timeToken),
		endsWithTime: regexp.MustCompile(`(?:\d{1,2}:\d{2}|\d\s*[ap]\.?m\.?)$`),
		timeRange:    regexp.MustCompile(`\b` + timeToken + `\s*(?:-|to|until|till)\s*` + timeToken),
	}
}

// Extract pulls entities for the given intent. It never fails: unmatched
// fields stay empty.
func (e *Extractor) Extract(text string, intent Intent, now time.Time) Entities {
	text = normalize(text)
	var ent Entities
	if text == "" {
		return ent
	}

	// Entities other than the title are read from the text with the quoted
	// title cut out, so words inside the title cannot set fields.
	rest := text
	switch intent {
	case IntentGetTasks:
		ent.SearchQuery = e.searchQuery(text)
	default:
		if intent == IntentUpdateTask {
			ent.Title, ent.NewTitle = e.rename(text)
		}
		if ent.Title == "" {
			var quoted string
			ent.Title, quoted = e.title(text, intent)
			if quoted != "" {
				rest = strings.Replace(text, quoted, " ", 1)
			}
		}
	}

	lower := strings.ToLower(rest)
	ent.Priority = e.priority(lower, intent)
	ent.Status = e.status(lower, intent)
	ent.DueDate = e.dueDate(lower, now)
	ent.StartTime, ent.EndTime = e.times(lower)
	if intent == IntentCreateTask || intent == IntentUpdateTask {
		ent.Description = e.description(rest)
	}
	return ent
}

// title runs the cascade. quoted is the raw matched span when a verbatim rule won.
func (e *Extractor) title(text string, intent Intent) (title, quoted string) {
	for _, rule := range e.titleRules {
		if !rule.appliesTo(intent) {
			continue
		}
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if rule.verbatim {
			if t := strings.TrimSpace(m[1]); t != "" {
				return t, m[0]
			}
			continue
		}
		if t := e.cleanTitle(e.truncate(m[1], intent)); len([]rune(t)) >= minTitleLen {
			return t, ""
		}
	}
	return "", ""
}

// truncate cuts s before the first clause boundary for the intent.
func (e *Extractor) truncate(s string, intent Intent) string {
	boundary := e.createBoundary
	if intent != IntentCreateTask {
		boundary = e.writeBoundary
	}
	if loc := boundary.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return s
}

func (e *Extractor) cleanTitle(s string) string {
	s = strings.Trim(s, " \t\"'“”:,-.")
	for changed := true; changed; {
		changed = false
		for _, p := range e.titlePrefixes {
			if loc := p.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				changed = true
			}
		}
	}
	for _, p := range e.titleSuffixes {
		s = p.ReplaceAllString(s, "")
	}
	return strings.Trim(s, " \t\"'“”:,-.")
}

func (e *Extractor) rename(text string) (from, to string) {
	for _, p := range e.renamePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			from = e.cleanTitle(m[1])
			to = strings.Trim(m[2], " \t\"'“”.!")
			if from != "" && to != "" {
				return from, to
			}
		}
	}
	return "", ""
}

func (e *Extractor) searchQuery(text string) string {
	m := e.searchPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return e.cleanTitle(e.truncate(m[1], IntentGetTasks))
}

func (e *Extractor) priority(lower string, intent Intent) string {
	if intent == IntentUpdateTask {
		if m := e.priorityTarget.FindStringSubmatch(lower); m != nil {
			if m[1] == "normal" {
				return domain.PriorityMedium
			}
			return m[1]
		}
	}
	for _, r := range e.priorityRules {
		if r.pattern.MatchString(lower) {
			return r.value
		}
	}
	return ""
}

func (e *Extractor) status(lower string, intent Intent) string {
	for _, r := range e.statusRules {
		if r.pattern.MatchString(lower) {
			return r.value
		}
	}
	if intent == IntentUpdateTask {
		for _, r := range e.updateStatusRules {
			if r.pattern.MatchString(lower) {
				return r.value
			}
		}
	}
	return ""
}

func (e *Extractor) dueDate(lower string, now time.Time) string {
	for _, m := range e.dueTrigger.FindAllStringSubmatch(lower, -1) {
		if d, ok := e.resolveDue(m[1], now); ok {
			return d
		}
	}
	if m := e.dueKeyword.FindStringSubmatch(lower); m != nil {
		if d, ok := e.resolveDue(m[1], now); ok {
			return d
		}
	}
	if m := e.isoDate.FindString(lower); m != "" {
		if d, ok := ResolveDate(m, now); ok {
			return d
		}
	}
	return ""
}

// resolveDue extends ResolveDate with the relative phrases only due dates use.
func (e *Extractor) resolveDue(phrase string, now time.Time) (string, bool) {
	p := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(phrase), "the "))
	if d, ok := ResolveDate(p, now); ok {
		return d, true
	}
	if strings.Contains(p, "next week") {
		return now.AddDate(0, 0, 7).Format(domain.DateLayout), true
	}
	if m := e.inDays.FindStringSubmatch(p); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n < 3660 {
			return now.AddDate(0, 0, n).Format(domain.DateLayout), true
		}
	}
	return "", false
}

// times extracts start and end. The combined range form is only consulted
// when neither end was found through its own trigger.
func (e *Extractor) times(lower string) (start, end string) {
	if m := e.startTrigger.FindStringSubmatch(lower); m != nil {
		start = ResolveTime(m[1])
	}
	if m := e.endTrigger.FindStringSubmatch(lower); m != nil {
		end = ResolveTime(m[1])
	}
	if end == "" {
		if loc := e.endDash.FindStringSubmatchIndex(lower); loc != nil {
			if !e.endsWithTime.MatchString(strings.TrimSpace(lower[:loc[0]])) {
				end = ResolveTime(lower[loc[2]:loc[3]])
			}
		}
	}
	if start == "" && end == "" {
		if m := e.timeRange.FindStringSubmatch(lower); m != nil {
			start, end = ResolveTime(m[1]), ResolveTime(m[2])
		}
	}
	return start, end
}

func (e *Extractor) description(text string) string {
	if m := e.descriptionLabel.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := e.sentenceBreak.FindStringIndex(text); loc != nil {
		if tail := strings.TrimSpace(text[loc[1]:]); len(tail) > 5 {
			return tail
		}
	}
	return ""
}

// ApplyCreateDefaults fills the fields a new task needs: the caller's default
// priority, pending status, today's due date, a start time of now and an end
// time one hour later. Title and description are never defaulted.
func ApplyCreateDefaults(ent *Entities, now time.Time, defaultPriority string) {
	if ent.Priority == "" {
		ent.Priority = defaultPriority
	}
	if ent.Status == "" {
		ent.Status = domain.StatusPending
	}
	if ent.DueDate == "" {
		ent.DueDate = now.Format(domain.DateLayout)
	}
	if ent.StartTime == "" {
		ent.StartTime = now.Format("15:04")
	}
	if ent.EndTime == "" {
		ent.EndTime = AddHour(ent.StartTime)
	}
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToValidUTF8(text, "")), " ")
}
