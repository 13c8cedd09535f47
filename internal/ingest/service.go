// internal/ingest/service.go
package ingest

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"audit-ingest/internal/config"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/model"
	"audit-ingest/internal/store"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestMeta 는 transport 레이어가 커넥션/요청 컨텍스트에서 추출해
// 넘겨주는 값들이다. payload 내용과 무관하게 서버가 결정한다.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Service 는 ingest 파이프라인의 코어다.
// 검증 → enrichment → 단일 쓰기까지를 담당하며,
// transport(HTTP/Lambda)와 스토어 사이에서 유일하게 도메인 규칙을 안다.
//
// 호출 간 공유 상태 없음: 유일한 장수명 의존성은 주입받은 EventStore
// (내부의 DynamoDB client) 뿐이며 동시 호출에 안전하다.
type Service struct {
	cfg     config.Config
	metrics *metrics.Metrics
	store   store.EventStore
}

func NewService(cfg config.Config, m *metrics.Metrics, st store.EventStore) *Service {
	return &Service{
		cfg:     cfg,
		metrics: m,
		store:   st,
	}
}

// Ingest
// ------
// 이벤트 1건의 수집 전체 흐름. 순서가 계약이다:
//
//  1. body 파싱 (없음/비JSON → 400, 필드 검증 이전에 거절)
//  2. 필수 4필드 공동 검증 (누락 → 400, 쓰기 0회)
//  3. enrichment:
//     - id: UUID v4 (서버 생성, caller 제공 불가)
//     - timestamp: RFC3339Nano UTC, 여기서 1회만 캡처
//       (sort key 와 저장 필드가 같은 값을 공유해야 하므로 재생성 금지)
//     - details: 없으면 빈 map
//     - metadata: RequestMeta + 설정된 environment 로 서버가 덮어씀
//  4. 스토어에 단일 쓰기 (실패 → 500, 재시도/버퍼링 없음)
//
// 모든 결과는 Result 값으로 반환되며 panic 은 경계를 넘지 않는다.
func (s *Service) Ingest(ctx context.Context, body []byte, meta RequestMeta) Result {

	// --- 1) body 파싱 ---
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		atomic.AddInt64(&s.metrics.EventsRejectedBadBodyTotal, 1)
		return BadRequest(MsgBodyRequired)
	}

	// JSON object 만 허용한다.
	// null/배열/스칼라는 struct 디코딩이 no-op 으로 성공하거나
	// missing-fields 로 잘못 분류될 수 있으므로 여기서 먼저 거른다.
	if trimmed[0] != '{' {
		atomic.AddInt64(&s.metrics.EventsRejectedBadBodyTotal, 1)
		return BadRequest(MsgBodyNotJSON)
	}

	var req model.IngestRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		atomic.AddInt64(&s.metrics.EventsRejectedBadBodyTotal, 1)
		return BadRequest(MsgBodyNotJSON)
	}

	// --- 2) 필수 필드 공동 검증 ---
	if !req.RequiredFieldsPresent() {
		atomic.AddInt64(&s.metrics.EventsRejectedMissingFieldsTotal, 1)
		return BadRequest(MsgMissingFields)
	}

	// --- 3) enrichment ---
	details := req.Details
	if details == nil {
		details = map[string]any{}
	}

	ev := &model.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),

		EventType: req.EventType,
		UserID:    req.UserID,
		Action:    req.Action,
		Resource:  req.Resource,
		Details:   details,

		Metadata: model.Metadata{
			IPAddress:   meta.IPAddress,
			UserAgent:   meta.UserAgent,
			Environment: s.cfg.Environment,
		},

		Status:       req.Status,
		ErrorMessage: req.ErrorMessage,
	}

	// --- 4) 단일 쓰기 ---
	if err := s.store.PutEvent(ctx, ev); err != nil {
		atomic.AddInt64(&s.metrics.InternalErrorsTotal, 1)
		log.Error().
			Err(err).
			Str("eventType", ev.EventType).
			Str("userId", ev.UserID).
			Msg("audit event write failed")
		return ServerError(err)
	}

	atomic.AddInt64(&s.metrics.EventsStoredTotal, 1)

	log.Debug().
		Str("id", ev.ID).
		Str("eventType", ev.EventType).
		Msg("audit event stored")

	return Created(ev.ID)
}
