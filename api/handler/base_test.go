package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/planit/backend/api/transport"
	"github.com/planit/backend/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrTitleRequired, http.StatusBadRequest, "INVALID"},
		{domain.ErrCheckinAlreadyClaimed, http.StatusConflict, "CONFLICT"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.NewError(domain.ErrCodeForbidden, "nope"), http.StatusForbidden, "FORBIDDEN"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := mapError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func readEnvelope(t *testing.T, rc *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &env))
	return env
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	h := newBaseHandler(nil, nil)
	var rc fasthttp.RequestCtx

	h.respondError(&rc, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rc.Response.StatusCode())
	assert.Equal(t, "internal error", readEnvelope(t, &rc).Error)
}

func TestDecode(t *testing.T) {
	h := newBaseHandler(nil, nil)

	var rc fasthttp.RequestCtx
	rc.Request.SetBodyString(`{"message":`)
	var req transport.AssistantRequest
	assert.False(t, h.decode(&rc, &req))
	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())

	var invalid fasthttp.RequestCtx
	invalid.Request.SetBodyString(`{"email":"a@b.co"}`)
	var login transport.LoginRequest
	assert.False(t, h.decode(&invalid, &login))
	env := readEnvelope(t, &invalid)
	assert.Equal(t, "INVALID", env.Code)
	assert.Contains(t, env.Error, "password (required)")

	var ok fasthttp.RequestCtx
	ok.Request.SetBodyString(`{"message":"hi"}`)
	assert.True(t, h.decode(&ok, &req))
	assert.Equal(t, "hi", req.Message)
}

func TestUserID_MissingAnswers401(t *testing.T) {
	h := newBaseHandler(nil, nil)
	var rc fasthttp.RequestCtx
	assert.Empty(t, h.userID(&rc))
	assert.Equal(t, http.StatusUnauthorized, rc.Response.StatusCode())
}
