package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"audit-ingest/internal/config"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 는 쓰기 호출 횟수와 저장된 레코드를 기록하는 test double.
type fakeStore struct {
	mu     sync.Mutex
	events []*model.AuditEvent
	err    error
}

func (f *fakeStore) PutEvent(_ context.Context, ev *model.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestService(st *fakeStore) *Service {
	cfg := config.Config{Environment: "staging"}
	return NewService(cfg, metrics.New(), st)
}

func TestIngestValidEvent(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	body := []byte(`{"eventType":"LOGIN","userId":"u1","action":"SIGN_IN","resource":"session"}`)
	meta := RequestMeta{IPAddress: "203.0.113.9", UserAgent: "test-agent"}

	res := svc.Ingest(context.Background(), body, meta)

	require.Equal(t, 201, res.StatusCode)
	require.NotEmpty(t, res.EventID)
	require.Equal(t, 1, st.count())

	ev := st.events[0]
	assert.Equal(t, res.EventID, ev.ID)
	assert.Equal(t, "LOGIN", ev.EventType)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "SIGN_IN", ev.Action)
	assert.Equal(t, "session", ev.Resource)

	// details 생략 시 nil 이 아니라 빈 map 으로 저장되어야 한다
	require.NotNil(t, ev.Details)
	assert.Empty(t, ev.Details)

	// metadata 는 전부 서버 유래 값
	assert.Equal(t, "203.0.113.9", ev.Metadata.IPAddress)
	assert.Equal(t, "test-agent", ev.Metadata.UserAgent)
	assert.Equal(t, "staging", ev.Metadata.Environment)

	// timestamp 는 RFC3339Nano 로 파싱 가능해야 하고 sort key 와 동일 값
	_, err := time.Parse(time.RFC3339Nano, ev.Timestamp)
	assert.NoError(t, err)
}

func TestIngestMissingFieldsRejectedWithoutWrite(t *testing.T) {
	cases := map[string]string{
		"missing all but eventType": `{"eventType":"LOGIN"}`,
		"missing eventType":         `{"userId":"u1","action":"A","resource":"r"}`,
		"missing userId":            `{"eventType":"E","action":"A","resource":"r"}`,
		"missing action":            `{"eventType":"E","userId":"u1","resource":"r"}`,
		"missing resource":          `{"eventType":"E","userId":"u1","action":"A"}`,
		"empty string field":        `{"eventType":"E","userId":"  ","action":"A","resource":"r"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			st := &fakeStore{}
			svc := newTestService(st)

			res := svc.Ingest(context.Background(), []byte(body), RequestMeta{})

			assert.Equal(t, 400, res.StatusCode)
			assert.Equal(t, MsgMissingFields, res.Message)
			assert.Empty(t, res.EventID)
			// 검증 실패 시 쓰기 0회
			assert.Equal(t, 0, st.count())
		})
	}
}

func TestIngestBadBodyRejectedBeforeValidation(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	res := svc.Ingest(context.Background(), nil, RequestMeta{})
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, MsgBodyRequired, res.Message)

	res = svc.Ingest(context.Background(), []byte("   \n"), RequestMeta{})
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, MsgBodyRequired, res.Message)

	res = svc.Ingest(context.Background(), []byte(`{"eventType":`), RequestMeta{})
	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, MsgBodyNotJSON, res.Message)

	// object 가 아닌 JSON 은 missing-fields 가 아니라 invalid 로 분류
	for _, body := range []string{`null`, `[1,2]`, `"text"`, `42`} {
		res = svc.Ingest(context.Background(), []byte(body), RequestMeta{})
		assert.Equal(t, 400, res.StatusCode, body)
		assert.Equal(t, MsgBodyNotJSON, res.Message, body)
	}

	assert.Equal(t, 0, st.count())
}

func TestIngestStoreFailureMapsToServerError(t *testing.T) {
	st := &fakeStore{err: errors.New("dynamodb unavailable")}
	svc := newTestService(st)

	body := []byte(`{"eventType":"E","userId":"u","action":"A","resource":"r"}`)
	res := svc.Ingest(context.Background(), body, RequestMeta{})

	assert.Equal(t, 500, res.StatusCode)
	assert.Equal(t, MsgInternalError, res.Message)
	assert.Contains(t, res.Err, "dynamodb unavailable")
	assert.Empty(t, res.EventID)
}

func TestIngestDuplicatePayloadsProduceDistinctRecords(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	body := []byte(`{"eventType":"E","userId":"u","action":"A","resource":"r"}`)

	res1 := svc.Ingest(context.Background(), body, RequestMeta{})
	res2 := svc.Ingest(context.Background(), body, RequestMeta{})

	require.Equal(t, 201, res1.StatusCode)
	require.Equal(t, 201, res2.StatusCode)
	require.Equal(t, 2, st.count())

	// 동일 payload 라도 id 는 항상 새로 생성 → 덮어쓰기 불가
	assert.NotEqual(t, res1.EventID, res2.EventID)
	assert.NotEqual(t, st.events[0].ID, st.events[1].ID)
}

func TestIngestCallerCannotSpoofMetadata(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	// payload 가 ipAddress/environment/metadata 를 끼워 넣어도 전부 무시
	body := []byte(`{
		"eventType":"E","userId":"u","action":"A","resource":"r",
		"ipAddress":"6.6.6.6",
		"environment":"prod",
		"metadata":{"ipAddress":"6.6.6.6","environment":"prod"}
	}`)

	res := svc.Ingest(context.Background(), body, RequestMeta{IPAddress: "10.1.2.3", UserAgent: "ua"})
	require.Equal(t, 201, res.StatusCode)

	ev := st.events[0]
	assert.Equal(t, "10.1.2.3", ev.Metadata.IPAddress)
	assert.Equal(t, "staging", ev.Metadata.Environment)
	assert.NotContains(t, ev.Details, "ipAddress")
}

func TestIngestDetailsAndOutcomeFieldsPassThrough(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	body := []byte(`{
		"eventType":"EXPORT","userId":"u2","action":"DOWNLOAD","resource":"report/42",
		"details":{"format":"csv","rows":120,"dryRun":false},
		"status":"FAILED","errorMessage":"timeout"
	}`)

	res := svc.Ingest(context.Background(), body, RequestMeta{})
	require.Equal(t, 201, res.StatusCode)

	ev := st.events[0]
	assert.Equal(t, "csv", ev.Details["format"])
	assert.EqualValues(t, 120, ev.Details["rows"])
	assert.Equal(t, false, ev.Details["dryRun"])
	assert.Equal(t, "FAILED", ev.Status)
	assert.Equal(t, "timeout", ev.ErrorMessage)
}
