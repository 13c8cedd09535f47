package main

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"audit-ingest/internal/config"
	"audit-ingest/internal/ingest"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/model"

	"github.com/aws/aws-lambda-go/events"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	events []*model.AuditEvent
	err    error
}

func (f *fakeStore) PutEvent(_ context.Context, ev *model.AuditEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func newTestService(st *fakeStore) *ingest.Service {
	cfg := config.Config{Environment: "prod"}
	return ingest.NewService(cfg, metrics.New(), st)
}

func proxyRequest(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Body:       body,
		Headers:    map[string]string{"user-agent": "lambda-client/2.1"},
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: "203.0.113.77"},
		},
	}
}

func TestHandleValidEvent(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	resp := handle(context.Background(), svc, proxyRequest(
		`{"eventType":"LOGIN","userId":"u1","action":"SIGN_IN","resource":"session"}`))

	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Headers["Content-Type"])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, ingest.MsgCreated, body["message"])
	assert.NotEmpty(t, body["eventId"])

	// metadata 는 request context 유래 (대소문자 무관 헤더 조회 포함)
	require.Len(t, st.events, 1)
	assert.Equal(t, "203.0.113.77", st.events[0].Metadata.IPAddress)
	assert.Equal(t, "lambda-client/2.1", st.events[0].Metadata.UserAgent)
	assert.Equal(t, "prod", st.events[0].Metadata.Environment)
}

func TestHandleBase64Body(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	req := proxyRequest(base64.StdEncoding.EncodeToString(
		[]byte(`{"eventType":"E","userId":"u","action":"A","resource":"r"}`)))
	req.IsBase64Encoded = true

	resp := handle(context.Background(), svc, req)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Len(t, st.events, 1)
}

func TestHandleMissingFields(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	resp := handle(context.Background(), svc, proxyRequest(`{"eventType":"LOGIN"}`))

	require.Equal(t, 400, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, ingest.MsgMissingFields, body["message"])
	assert.Empty(t, st.events)
}

func TestHandleStoreFailureNeverEscapesAsError(t *testing.T) {
	svc := newTestService(&fakeStore{err: errors.New("table gone")})

	resp := handle(context.Background(), svc, proxyRequest(
		`{"eventType":"E","userId":"u","action":"A","resource":"r"}`))

	// 오류는 500 응답으로만 표현되고 handler error 로는 올라가지 않는다
	require.Equal(t, 500, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, ingest.MsgInternalError, body["message"])
	assert.Contains(t, body["error"], "table gone")
}
