package diag

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
)

type loggedEntry struct {
	ctx     context.Context
	msg     string
	msgData MsgData
}

type mockLogger struct {
	entries       []loggedEntry
	recentMsgData MsgData
}

func (l *mockLogger) log(ctx context.Context, msg string, args ...interface{}) {
	l.entries = append(l.entries, loggedEntry{
		ctx:     ctx,
		msg:     fmt.Sprintf(msg, args...),
		msgData: l.recentMsgData,
	})
	l.recentMsgData = nil
}

func (l *mockLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, msg, args...)
}

func (l *mockLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, msg, args...)
}

func (l *mockLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, msg, args...)
}

func (l *mockLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, msg, args...)
}

func (l *mockLogger) WithError(err error) Logger {
	panic("not implemented")
}

func (l *mockLogger) WithField(key string, value interface{}) Logger {
	panic("not implemented")
}

func (l *mockLogger) WithData(data MsgData) Logger {
	l.recentMsgData = data
	return l
}

func TestRequestIDMiddleware(t *testing.T) {
	type testCase struct {
		name  string
		req   *http.Request
		setup []requestIDMiddlewareSetup
		want  string
	}
	tests := []func() testCase{
		func() testCase {
			requestID := uuid.NewV4().String()
			req := httptest.NewRequest("GET", "/v1/transfers", nil)
			req.Header.Add("X-Request-ID", requestID)
			return testCase{name: "reuse requestID from header", req: req, want: requestID}
		},
		func() testCase {
			requestID := uuid.NewV4()
			return testCase{
				name: "generate a new requestID",
				req:  httptest.NewRequest("GET", "/v1/transfers", nil),
				setup: []requestIDMiddlewareSetup{
					func(cfg *requestIDMiddlewareCfg) {
						cfg.newUUID = func() uuid.UUID { return requestID }
					},
				},
				want: requestID.String(),
			}
		},
	}
	for _, ttFn := range tests {
		tt := ttFn()
		t.Run(tt.name, func(t *testing.T) {
			var gotCtxRequestID string
			w := httptest.NewRecorder()
			mw := NewRequestIDMiddleware(tt.setup...)
			mw(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				gotCtxRequestID = RequestIDValue(req.Context())
			})).ServeHTTP(w, tt.req)
			assert.Equal(t, tt.want, gotCtxRequestID)
			assert.Equal(t, tt.want, w.Header().Get(requestIDHeader))
		})
	}
}

func TestLogRequestsMiddleware(t *testing.T) {
	type testCase struct {
		name   string
		req    *http.Request
		opts   []LogRequestsMiddlewareOpt
		status int
		assert func(t *testing.T, logger *mockLogger)
	}
	tests := []func() testCase{
		func() testCase {
			path := "/v1/transfers/" + faker.Word()
			req := httptest.NewRequest("POST", path, nil)
			req.Header.Add("Authorization", "secret-token")
			return testCase{
				name:   "log begin and end",
				req:    req,
				status: http.StatusAccepted,
				assert: func(t *testing.T, logger *mockLogger) {
					if !assert.Len(t, logger.entries, 2) {
						return
					}
					begin := logger.entries[0]
					assert.Equal(t, "BEGIN REQ: POST "+path, begin.msg)
					headers := begin.msgData["headers"].(map[string]string)
					assert.Equal(t, "*obfuscated, length=12*", headers["Authorization"])

					end := logger.entries[1]
					assert.Equal(t, fmt.Sprintf("END REQ: %v - %v", http.StatusAccepted, path), end.msg)
					assert.Equal(t, http.StatusAccepted, end.msgData["statusCode"])
				},
			}
		},
		func() testCase {
			return testCase{
				name:   "skip healthcheck by default",
				req:    httptest.NewRequest("GET", "/v1/healthcheck/ping", nil),
				status: http.StatusOK,
				assert: func(t *testing.T, logger *mockLogger) {
					assert.Len(t, logger.entries, 0)
				},
			}
		},
		func() testCase {
			path := "/v1/" + faker.Word()
			return testCase{
				name:   "skip ignored path",
				req:    httptest.NewRequest("GET", path, nil),
				opts:   []LogRequestsMiddlewareOpt{IgnorePath(path)},
				status: http.StatusOK,
				assert: func(t *testing.T, logger *mockLogger) {
					assert.Len(t, logger.entries, 0)
				},
			}
		},
	}
	for _, ttFn := range tests {
		tt := ttFn()
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			now := time.Now()
			opts := append([]LogRequestsMiddlewareOpt{
				withRequestsLogger(logger),
				func(cfg *logRequestsMiddlewareCfg) { cfg.now = func() time.Time { return now } },
			}, tt.opts...)
			mw := NewLogRequestsMiddleware(opts...)
			mw(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
			})).ServeHTTP(httptest.NewRecorder(), tt.req)
			tt.assert(t, logger)
		})
	}
}
