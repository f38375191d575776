package chat

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/nlp"
)

const (
	// MaxAmbiguous caps the candidates offered for disambiguation.
	MaxAmbiguous = 10
	// MaxListed caps the "your tasks are" listing after a failed match.
	MaxListed = 5
)

type ResolutionKind string

const (
	ResolutionUnique    ResolutionKind = "unique"
	ResolutionAmbiguous ResolutionKind = "ambiguous"
	ResolutionNotFound  ResolutionKind = "not_found"
	// ResolutionSkipped is returned for intents that do not target an
	// existing task.
	ResolutionSkipped ResolutionKind = "skipped"
)

type Resolution struct {
	Kind    ResolutionKind
	Task    *domain.Task
	Matches []domain.Task
}

// Resolve picks the task an update or delete refers to. An exact
// case-insensitive title match wins; otherwise either title containing the
// other counts as a match.
func Resolve(intent nlp.Intent, ent nlp.Entities, candidates []domain.Task) Resolution {
	if intent != nlp.IntentUpdateTask && intent != nlp.IntentDeleteTask {
		return Resolution{Kind: ResolutionSkipped}
	}

	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(ent.Title))
	if query == "" {
		return Resolution{Kind: ResolutionNotFound}
	}

	var exact []int
	titles := make([]string, len(candidates))
	for i := range candidates {
		titles[i] = fold.String(strings.TrimSpace(candidates[i].Title))
		if titles[i] == query {
			exact = append(exact, i)
		}
	}
	if len(exact) == 1 {
		return Resolution{Kind: ResolutionUnique, Task: &candidates[exact[0]]}
	}

	var matches []domain.Task
	for i, title := range titles {
		if title == "" {
			continue
		}
		if strings.Contains(title, query) || strings.Contains(query, title) {
			matches = append(matches, candidates[i])
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{Kind: ResolutionNotFound}
	case 1:
		return Resolution{Kind: ResolutionUnique, Task: &matches[0]}
	default:
		if len(matches) > MaxAmbiguous {
			matches = matches[:MaxAmbiguous]
		}
		return Resolution{Kind: ResolutionAmbiguous, Matches: matches}
	}
}

// NumberedList renders "1. Title" lines.
func NumberedList(tasks []domain.TaskSummary) string {
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
	}
	return b.String()
}

// ListTitles joins up to MaxListed titles and notes how many were left out.
func ListTitles(tasks []domain.Task) string {
	n := min(len(tasks), MaxListed)
	titles := make([]string, 0, n)
	for _, t := range tasks[:n] {
		titles = append(titles, fmt.Sprintf("%q", t.Title))
	}
	out := strings.Join(titles, ", ")
	if rest := len(tasks) - n; rest > 0 {
		out += fmt.Sprintf(" ...and %d more", rest)
	}
	return out
}

func summaries(tasks []domain.Task) []domain.TaskSummary {
	out := make([]domain.TaskSummary, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].Summary())
	}
	return out
}
