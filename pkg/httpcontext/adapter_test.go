package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/planit/backend/pkg/logger"
)

func TestAdapter_Attach(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(HeaderRequestID, "req-42")
	rc.Request.Header.Set(HeaderUserID, "u1")

	a := NewAdapter(time.Second)
	ctx, cancel := a.Attach(&rc)
	defer cancel()

	assert.Equal(t, "req-42", appLogger.RequestID(ctx))
	assert.Equal(t, "u1", appLogger.UserID(ctx))
	assert.Equal(t, "req-42", string(rc.Response.Header.Peek(HeaderRequestID)))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 200*time.Millisecond)
}

func TestRequestID_GeneratedOnce(t *testing.T) {
	var rc fasthttp.RequestCtx
	first := RequestID(&rc)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&rc))
}

func TestNewAdapter_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewAdapter(0).Timeout())
}
