package httpkit

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realestate_ai_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func newTestEngine(buf *bytes.Buffer, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := &logger.Logger{Logger: slog.New(slog.NewJSONHandler(buf, nil))}
	engine := gin.New()
	engine.Use(RequestLogger(log))
	engine.GET("/x", handler)
	return engine
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	engine := newTestEngine(&buf, func(c *gin.Context) {
		seen, _ = c.Request.Context().Value(logger.RequestIDKey).(string)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	id := rec.Header().Get(HeaderRequestID)
	if id == "" || id != seen {
		t.Fatalf("expected generated request id in header and context, got %q and %q", id, seen)
	}
	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) {
		t.Fatalf("expected request log tagged with id, got %s", buf.String())
	}
}

func TestRequestLoggerKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	engine := newTestEngine(&buf, func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Header().Get(HeaderRequestID) != "req-123" {
		t.Fatalf("expected incoming request id echoed, got %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestHandleErrorLogsInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	engine := newTestEngine(&buf, func(c *gin.Context) {
		HandleError(c, errors.New("pool exhausted"))
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "pool exhausted") {
		t.Fatalf("expected error text not to leak, got %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), `"msg":"http_error"`) || !strings.Contains(buf.String(), "pool exhausted") {
		t.Fatalf("expected http_error log with the cause, got %s", buf.String())
	}
}
