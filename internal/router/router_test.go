package router_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/planit/backend/api/handler"
	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/infrastructure/monitor"
	"github.com/planit/backend/internal/middleware"
	"github.com/planit/backend/internal/nlp"
	"github.com/planit/backend/internal/router"
	"github.com/planit/backend/internal/testutil"
	"github.com/planit/backend/pkg/httpcontext"
	"github.com/planit/backend/usecase/analytics"
	"github.com/planit/backend/usecase/auth"
	"github.com/planit/backend/usecase/chat"
	"github.com/planit/backend/usecase/points"
	"github.com/planit/backend/usecase/profile"
	"github.com/planit/backend/usecase/task"
)

const secret = "router-secret"

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  any             `json:"error"`
}

type api struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func newAPI(t *testing.T, status monitor.Status) *api {
	t.Helper()
	logger := zaptest.NewLogger(t)

	users := testutil.NewUsers()
	tasks := testutil.NewTasks()
	activities := testutil.NewActivities()
	sessions := testutil.NewSessions()
	convo := testutil.NewConversations()

	engine := points.NewEngine(users, activities, testutil.NewGuard(), nil, points.DefaultAmounts, logger)
	taskUseCase := task.New(tasks, nil, engine, logger)
	authUseCase := auth.New(users, sessions, engine, auth.Config{
		Secret:       secret,
		Issuer:       "planit-test",
		TokenTTL:     time.Hour,
		SessionTTL:   24 * time.Hour,
		PasswordCost: bcrypt.MinCost,
	}, logger)

	chatParser := nlp.NewParser(nlp.Options{Policy: nlp.PolicyTaskContext, DefaultPriority: domain.PriorityLow})
	commandParser := nlp.NewParser(nlp.Options{Policy: nlp.PolicyUnconstrained, DefaultPriority: domain.PriorityMedium})

	adapter := httpcontext.NewAdapter(time.Second)
	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, adapter, logger),
		Profile:   apiHandler.NewProfileHandler(profile.New(users, nil, logger), adapter, logger),
		Task:      apiHandler.NewTaskHandler(taskUseCase, adapter, logger),
		Points:    apiHandler.NewPointsHandler(engine, adapter, logger),
		Analytics: apiHandler.NewAnalyticsHandler(analytics.New(tasks, users, logger), adapter, logger),
		Assistant: apiHandler.NewAssistantHandler(
			chat.NewAssistant(chatParser, taskUseCase, convo, chat.Config{}, logger),
			chat.NewAssistant(commandParser, taskUseCase, convo, chat.Config{}, logger),
			adapter, logger,
		),
		Health: apiHandler.NewHealthHandler(staticStatus(status), adapter, logger),
	}

	r := router.New(handlers, middleware.JWTAuth(secret, authUseCase, logger))
	return &api{t: t, handler: r.Handler}
}

func (a *api) do(method, path, token, body string, headers ...string) (int, envelope) {
	a.t.Helper()
	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI(path)
	if token != "" {
		rc.Request.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		rc.Request.Header.Set(headers[i], headers[i+1])
	}
	if body != "" {
		rc.Request.SetBodyString(body)
	}

	a.handler(&rc)

	var env envelope
	if raw := rc.Response.Body(); len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &env), string(raw))
	}
	return rc.Response.StatusCode(), env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type authResult struct {
	Token   string          `json:"token"`
	User    domain.User     `json:"user"`
	Session *domain.Session `json:"session"`
}

func (a *api) register(email string) authResult {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"`+email+`","name":"Ada","password":"correct horse"}`)
	require.Equal(a.t, http.StatusCreated, status)
	return decode[authResult](a.t, env.Data)
}

func TestRouter_AuthFlow(t *testing.T) {
	a := newAPI(t, monitor.Status{PostgreSQL: true, Redis: true})

	res := a.register("ada@example.com")
	assert.Equal(t, 100, res.User.Points)
	require.NotNil(t, res.Session)

	status, env := a.do(http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"ada@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Code)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@example.com","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = a.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, status)
	login := decode[authResult](t, env.Data)

	status, env = a.do(http.MethodPost, "/api/v1/auth/refresh", "", `{"session_id":"`+login.Session.ID+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[authResult](t, env.Data).Token)

	status, env = a.do(http.MethodGet, "/api/v1/profile", login.Token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", decode[domain.User](t, env.Data).Email)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/logout", login.Token, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env = a.do(http.MethodGet, "/api/v1/profile", login.Token, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestRouter_RejectsMissingAndSpoofedIdentity(t *testing.T) {
	a := newAPI(t, monitor.Status{PostgreSQL: true, Redis: true})

	status, _ := a.do(http.MethodGet, "/api/v1/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/api/v1/tasks", "", "", httpcontext.HeaderUserID, "u1")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/api/v1/tasks", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_TasksPointsAndAnalytics(t *testing.T) {
	a := newAPI(t, monitor.Status{PostgreSQL: true, Redis: true})
	token := a.register("grace@example.com").Token

	status, env := a.do(http.MethodPost, "/api/v1/tasks", token, `{"title":"Write report","priority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID", env.Code)

	status, env = a.do(http.MethodPost, "/api/v1/tasks", token,
		`{"title":"Write report","priority":"high","due_date":"2099-01-01","start_time":"09:00"}`)
	require.Equal(t, http.StatusCreated, status)
	created := decode[domain.Task](t, env.Data)
	assert.Equal(t, domain.StatusPending, created.Status)

	status, _ = a.do(http.MethodPut, "/api/v1/tasks/"+created.ID, token, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = a.do(http.MethodPut, "/api/v1/tasks/"+created.ID, token, `{"due_date":""}`)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[domain.Task](t, env.Data).DueDate)

	status, _ = a.do(http.MethodPut, "/api/v1/tasks/"+created.ID, token, `{"due_date":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = a.do(http.MethodPost, "/api/v1/tasks/"+created.ID+"/complete", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.StatusCompleted, decode[domain.Task](t, env.Data).Status)

	status, env = a.do(http.MethodPost, "/api/v1/points/checkin", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 130, decode[map[string]int](t, env.Data)["points"])

	status, env = a.do(http.MethodPost, "/api/v1/points/checkin", token, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Code)

	status, env = a.do(http.MethodGet, "/api/v1/points?limit=2", token, "")
	require.Equal(t, http.StatusOK, status)
	summary := decode[domain.PointsSummary](t, env.Data)
	assert.Equal(t, 130, summary.Points)
	assert.Len(t, summary.Activities, 2)

	status, env = a.do(http.MethodGet, "/api/v1/analytics/stats", token, "")
	require.Equal(t, http.StatusOK, status)
	stats := decode[domain.ActivityStats](t, env.Data)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Equal(t, 1, stats.CurrentStreak)

	status, _ = a.do(http.MethodGet, "/api/v1/analytics/overview", token, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(http.MethodDelete, "/api/v1/tasks/"+created.ID, token, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env = a.do(http.MethodDelete, "/api/v1/tasks/"+created.ID, token, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestRouter_Assistant(t *testing.T) {
	a := newAPI(t, monitor.Status{PostgreSQL: true, Redis: true})
	token := a.register("lin@example.com").Token

	status, env := a.do(http.MethodPost, "/api/v1/assistant/chat", token, `{"message":"create a task \"Buy milk\""}`)
	require.Equal(t, http.StatusOK, status)
	reply := decode[chat.Response](t, env.Data)
	assert.Equal(t, nlp.IntentCreateTask, reply.Intent)
	assert.True(t, reply.TasksModified)

	status, env = a.do(http.MethodPost, "/api/v1/assistant/command", token, `{"message":"show my tasks"}`)
	require.Equal(t, http.StatusOK, status)
	reply = decode[chat.Response](t, env.Data)
	assert.Equal(t, nlp.IntentGetTasks, reply.Intent)
	require.Len(t, reply.Tasks, 1)
	assert.Equal(t, "Buy milk", reply.Tasks[0].Title)

	status, env = a.do(http.MethodPost, "/api/v1/assistant/parse", token, `{"message":"create \"Pay rent\" high priority"}`)
	require.Equal(t, http.StatusOK, status)
	parsed := decode[nlp.ParsedIntent](t, env.Data)
	assert.Equal(t, nlp.IntentCreateTask, parsed.Intent)
	assert.Equal(t, "Pay rent", parsed.Entities.Title)

	status, _ = a.do(http.MethodPost, "/api/v1/assistant/chat", token, `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_Health(t *testing.T) {
	status, env := newAPI(t, monitor.Status{PostgreSQL: true, Redis: true}).do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env = newAPI(t, monitor.Status{PostgreSQL: false, Redis: true}).do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEGRADED", env.Code)
}
