// Package chat runs parsed chat messages against the user's tasks and
// phrases the outcome as assistant replies.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/nlp"
	"github.com/planit/backend/repository"
	"github.com/planit/backend/usecase"
	"github.com/planit/backend/usecase/task"
)

const (
	failureReply  = "Sorry, I couldn't complete that action right now. Please try again."
	candidatePool = 100
	// maxCandidatePages bounds how many pages a title lookup reads.
	maxCandidatePages = 50
)

// TaskService is the slice of the task use case the assistant drives.
type TaskService interface {
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error)
	CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, userID, id string, changes task.Changes) (*domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// Response is what the client renders. Only TasksModified and the task ids
// are load-bearing; Text is for display.
type Response struct {
	Text          string               `json:"response_text"`
	Intent        nlp.Intent           `json:"intent"`
	ActionType    string               `json:"action_type,omitempty"`
	TasksModified bool                 `json:"tasks_modified"`
	Tasks         []domain.TaskSummary `json:"tasks,omitempty"`
}

type Config struct {
	// ListLimit caps how many tasks a list reply shows.
	ListLimit int
}

type request struct {
	userID string
	text   string
	parsed nlp.ParsedIntent
}

type Assistant struct {
	parser     *nlp.Parser
	tasks      TaskService
	convo      repository.ConversationRepository
	dispatcher *usecase.Dispatcher[request, *Response]
	cfg        Config
	now        func() time.Time
	logger     *zap.Logger
}

var (
	selectionPattern = regexp.MustCompile(`^#?\s*(\d{1,3})\.?$`)
	greetingPattern  = regexp.MustCompile(`\b(hi|hello|hey|good (morning|afternoon|evening))\b`)
	thanksPattern    = regexp.MustCompile(`\b(thanks|thank you|thx)\b`)
)

func NewAssistant(parser *nlp.Parser, tasks TaskService, convo repository.ConversationRepository, cfg Config, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 10
	}
	a := &Assistant{
		parser:     parser,
		tasks:      tasks,
		convo:      convo,
		dispatcher: usecase.NewDispatcher[request, *Response](),
		cfg:        cfg,
		now:        time.Now,
		logger:     logger.Named("assistant").With(zap.Stringer("policy", parser.Policy())),
	}

	a.register(nlp.IntentCreateTask, a.createTask)
	a.register(nlp.IntentUpdateTask, a.updateTask)
	a.register(nlp.IntentDeleteTask, a.deleteTask)
	a.register(nlp.IntentGetTasks, a.listTasks)
	a.register(nlp.IntentCalculator, a.calculate)
	a.register(nlp.IntentChat, a.chat)
	a.register(nlp.IntentNone, a.chat)
	return a
}

// WithClock replaces the time source. Intended for tests.
func (a *Assistant) WithClock(now func() time.Time) *Assistant {
	a.now = now
	return a
}

func (a *Assistant) register(intent nlp.Intent, fn usecase.Handler[request, *Response]) {
	a.dispatcher.Register(string(intent), fn)
}

// Interpret parses a message without acting on it.
func (a *Assistant) Interpret(message string) nlp.ParsedIntent {
	return a.parser.Parse(message, a.now())
}

// Handle answers one message. Failures of the task store are logged and
// turned into a retry reply; Handle itself never fails.
func (a *Assistant) Handle(ctx context.Context, userID, message string) Response {
	message = strings.TrimSpace(message)
	if message == "" {
		return Response{Text: helpText, Intent: nlp.IntentChat}
	}

	if n, ok := selection(message); ok {
		if resp, handled := a.followUp(ctx, userID, n); handled {
			return resp
		}
	}

	parsed := a.parser.Parse(message, a.now())
	resp, err := a.dispatcher.Execute(ctx, string(parsed.Intent), request{userID: userID, text: message, parsed: parsed})
	if err != nil {
		return a.failure(parsed.Intent, err)
	}
	resp.Intent = parsed.Intent
	return *resp
}

func (a *Assistant) failure(intent nlp.Intent, err error) Response {
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return Response{Text: "I couldn't find that task anymore. It may have been deleted.", Intent: intent}
	}
	if domain.IsDomainError(err, domain.ErrCodeInvalid) {
		var dErr *domain.Error
		errors.As(err, &dErr)
		return Response{Text: "I couldn't do that: " + dErr.Message + ".", Intent: intent}
	}
	a.logger.Error("assistant action failed", zap.String("intent", string(intent)), zap.Error(err))
	return Response{Text: failureReply, Intent: intent}
}

func selection(message string) (int, bool) {
	m := selectionPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// followUp answers a bare number: a pick from the pending disambiguation or,
// failing that, a lookup in the last list shown.
func (a *Assistant) followUp(ctx context.Context, userID string, n int) (Response, bool) {
	pending, err := a.convo.GetPending(ctx, userID)
	switch {
	case err == nil:
		return a.resolvePending(ctx, userID, pending, n), true
	case !errors.Is(err, domain.ErrNoPendingSelection):
		a.logger.Warn("load pending selection", zap.String("user_id", userID), zap.Error(err))
	}

	last, err := a.convo.GetLastList(ctx, userID)
	if err != nil {
		a.logger.Warn("load last list", zap.String("user_id", userID), zap.Error(err))
		return Response{}, false
	}
	if n < 1 || n > len(last) {
		return Response{}, false
	}
	t := last[n-1]
	return Response{
		Text:   fmt.Sprintf("#%d: %s", n, describe(t)),
		Intent: nlp.IntentGetTasks,
		Tasks:  []domain.TaskSummary{t},
	}, true
}

func (a *Assistant) resolvePending(ctx context.Context, userID string, pending *domain.PendingSelection, n int) Response {
	intent := nlp.Intent(pending.Action)
	if n < 1 || n > len(pending.Candidates) {
		return Response{
			Text:   fmt.Sprintf("Please reply with a number between 1 and %d.", len(pending.Candidates)),
			Intent: intent,
			Tasks:  pending.Candidates,
		}
	}
	if err := a.convo.ClearPending(ctx, userID); err != nil {
		a.logger.Warn("clear pending selection", zap.String("user_id", userID), zap.Error(err))
	}

	var ent nlp.Entities
	if len(pending.Entities) > 0 {
		if err := json.Unmarshal(pending.Entities, &ent); err != nil {
			a.logger.Warn("decode pending entities", zap.String("user_id", userID), zap.Error(err))
		}
	}

	target := pending.Candidates[n-1]
	var (
		resp *Response
		err  error
	)
	switch intent {
	case nlp.IntentUpdateTask:
		resp, err = a.applyUpdate(ctx, userID, target, ent)
	case nlp.IntentDeleteTask:
		resp, err = a.applyDelete(ctx, userID, target)
	default:
		return Response{Text: helpText, Intent: nlp.IntentChat}
	}
	if err != nil {
		return a.failure(intent, err)
	}
	resp.Intent = intent
	return *resp
}

func (a *Assistant) createTask(ctx context.Context, req request) (*Response, error) {
	ent := req.parsed.Entities
	if ent.Title == "" {
		return &Response{Text: "I need more details to create a task. What should I call it? " +
			`Try: create task "Buy milk" tomorrow at 5pm.`}, nil
	}

	t := &domain.Task{
		UserID:      req.userID,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    ent.Priority,
		Status:      ent.Status,
		DueDate:     parseDay(ent.DueDate),
		StartTime:   ent.StartTime,
		EndTime:     ent.EndTime,
	}
	created, err := a.tasks.CreateTask(ctx, t)
	if err != nil {
		return nil, err
	}

	summary := created.Summary()
	text := fmt.Sprintf("✅ Created task %q (%s priority", created.Title, created.Priority)
	if summary.DueDate != "" {
		text += ", due " + summary.DueDate
	}
	if created.StartTime != "" && created.EndTime != "" {
		text += fmt.Sprintf(", %s-%s", created.StartTime, created.EndTime)
	}
	text += ")."
	return &Response{Text: text, ActionType: "create", TasksModified: true, Tasks: []domain.TaskSummary{summary}}, nil
}

func (a *Assistant) updateTask(ctx context.Context, req request) (*Response, error) {
	return a.targeted(ctx, req, "update", a.applyUpdate)
}

func (a *Assistant) deleteTask(ctx context.Context, req request) (*Response, error) {
	return a.targeted(ctx, req, "delete", func(ctx context.Context, userID string, t domain.TaskSummary, _ nlp.Entities) (*Response, error) {
		return a.applyDelete(ctx, userID, t)
	})
}

type targetAction func(ctx context.Context, userID string, t domain.TaskSummary, ent nlp.Entities) (*Response, error)

// targeted resolves the task named in the message and runs act on it, or
// asks the user to pick when the name is ambiguous.
func (a *Assistant) targeted(ctx context.Context, req request, verb string, act targetAction) (*Response, error) {
	ent := req.parsed.Entities
	if ent.Title == "" {
		return &Response{Text: fmt.Sprintf(`Which task should I %s? Put the name in quotes, like %s "Buy milk".`, verb, verb)}, nil
	}

	candidates, err := a.candidates(ctx, req.userID)
	if err != nil {
		return nil, err
	}

	res := Resolve(req.parsed.Intent, ent, candidates)
	switch res.Kind {
	case ResolutionUnique:
		return act(ctx, req.userID, res.Task.Summary(), ent)

	case ResolutionAmbiguous:
		options := summaries(res.Matches)
		raw, err := json.Marshal(ent)
		if err != nil {
			return nil, err
		}
		pending := &domain.PendingSelection{
			Action:     string(req.parsed.Intent),
			Entities:   raw,
			Candidates: options,
			CreatedAt:  a.now(),
		}
		if err := a.convo.SavePending(ctx, req.userID, pending); err != nil {
			return nil, fmt.Errorf("save pending selection: %w", err)
		}
		text := fmt.Sprintf("I found %d tasks matching %q. Which one should I %s?\n%s\nReply with the number.",
			len(options), ent.Title, verb, NumberedList(options))
		return &Response{Text: text, ActionType: "disambiguate", Tasks: options}, nil

	default:
		if len(candidates) == 0 {
			return &Response{Text: fmt.Sprintf("I couldn't find a task matching %q. You don't have any tasks yet.", ent.Title)}, nil
		}
		return &Response{Text: fmt.Sprintf("I couldn't find a task matching %q. Your tasks are: %s.", ent.Title, ListTitles(candidates))}, nil
	}
}

func (a *Assistant) applyUpdate(ctx context.Context, userID string, target domain.TaskSummary, ent nlp.Entities) (*Response, error) {
	changes, details := changesFrom(ent)
	if changes.Empty() {
		text := fmt.Sprintf("What would you like to change about %q? You can set the status, priority, due date, times or description.", target.Title)
		return &Response{Text: text, Tasks: []domain.TaskSummary{target}}, nil
	}

	updated, err := a.tasks.UpdateTask(ctx, userID, target.ID, changes)
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:          fmt.Sprintf("✏️ Updated %q: %s.", target.Title, strings.Join(details, ", ")),
		ActionType:    "update",
		TasksModified: true,
		Tasks:         []domain.TaskSummary{updated.Summary()},
	}, nil
}

func (a *Assistant) applyDelete(ctx context.Context, userID string, target domain.TaskSummary) (*Response, error) {
	if err := a.tasks.DeleteTask(ctx, userID, target.ID); err != nil {
		return nil, err
	}
	return &Response{
		Text:          fmt.Sprintf("🗑️ Deleted task %q.", target.Title),
		ActionType:    "delete",
		TasksModified: true,
		Tasks:         []domain.TaskSummary{target},
	}, nil
}

func (a *Assistant) listTasks(ctx context.Context, req request) (*Response, error) {
	ent := req.parsed.Entities
	filter := repository.TaskFilter{
		UserID:   req.userID,
		Status:   ent.Status,
		Priority: ent.Priority,
		Search:   ent.SearchQuery,
		Limit:    candidatePool,
	}
	tasks, err := a.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		if filter.Status != "" || filter.Priority != "" || filter.Search != "" {
			return &Response{Text: "No tasks match that filter.", ActionType: "list"}, nil
		}
		return &Response{Text: "You don't have any tasks yet. Try: create task \"Buy milk\" tomorrow.", ActionType: "list"}, nil
	}

	shown := summaries(tasks[:min(len(tasks), a.cfg.ListLimit)])
	if err := a.convo.SaveLastList(ctx, req.userID, shown); err != nil {
		a.logger.Warn("cache last list", zap.String("user_id", req.userID), zap.Error(err))
	}

	lines := make([]string, 0, len(shown))
	for i, t := range shown {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, describe(t)))
	}
	text := fmt.Sprintf("📋 Your tasks (%d):\n%s", len(tasks), strings.Join(lines, "\n"))
	if rest := len(tasks) - len(shown); rest > 0 {
		text += fmt.Sprintf("\n...and %d more", rest)
	}
	return &Response{Text: text, ActionType: "list", Tasks: shown}, nil
}

func (a *Assistant) calculate(_ context.Context, req request) (*Response, error) {
	v, expr, err := nlp.Evaluate(req.text)
	switch {
	case errors.Is(err, nlp.ErrDivisionByZero):
		return &Response{Text: "I can't divide by zero. Try a different calculation.", ActionType: "calculator"}, nil
	case err != nil:
		return &Response{Text: "I couldn't work out that calculation. Try something like 12 * (3 + 4).", ActionType: "calculator"}, nil
	}
	return &Response{Text: fmt.Sprintf("🧮 %s = %s", expr, nlp.FormatNumber(v)), ActionType: "calculator"}, nil
}

const helpText = "I can manage your tasks. Try:\n" +
	"- create task \"Buy milk\" tomorrow at 5pm\n" +
	"- show my pending tasks\n" +
	"- mark \"Buy milk\" as done\n" +
	"- delete the \"Buy milk\" task\n" +
	"- what is 12 * (3 + 4)"

func (a *Assistant) chat(_ context.Context, req request) (*Response, error) {
	lower := strings.ToLower(req.text)
	switch {
	case thanksPattern.MatchString(lower):
		return &Response{Text: "You're welcome! Anything else I can help with?"}, nil
	case greetingPattern.MatchString(lower):
		return &Response{Text: "Hi! " + helpText}, nil
	default:
		return &Response{Text: helpText}, nil
	}
}

func changesFrom(ent nlp.Entities) (task.Changes, []string) {
	var (
		c       task.Changes
		details []string
	)
	set := func(dst **string, value, label string) {
		if value == "" {
			return
		}
		v := value
		*dst = &v
		details = append(details, label+" "+value)
	}
	set(&c.Title, ent.NewTitle, "renamed to")
	set(&c.Status, ent.Status, "status")
	set(&c.Priority, ent.Priority, "priority")
	set(&c.Description, ent.Description, "description")
	set(&c.StartTime, ent.StartTime, "start")
	set(&c.EndTime, ent.EndTime, "end")
	if due := parseDay(ent.DueDate); due != nil {
		c.DueDate = due
		details = append(details, "due "+ent.DueDate)
	}
	return c, details
}

func describe(t domain.TaskSummary) string {
	s := fmt.Sprintf("%s [%s, %s]", t.Title, t.Status, t.Priority)
	if t.DueDate != "" {
		s += " due " + t.DueDate
	}
	return s
}

func parseDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil
	}
	return &d
}

// candidates pages through the user's tasks so title lookups reach beyond
// the most recent page.
func (a *Assistant) candidates(ctx context.Context, userID string) ([]domain.Task, error) {
	var all []domain.Task
	for page := range maxCandidatePages {
		batch, err := a.tasks.ListTasks(ctx, repository.TaskFilter{
			UserID: userID,
			Limit:  candidatePool,
			Offset: page * candidatePool,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < candidatePool {
			break
		}
	}
	return all, nil
}
