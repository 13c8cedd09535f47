// internal/metrics/metrics.go
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 감사 파이프라인 상태를 나타내는 카운터 모음이다.
// Prometheus 용이 아니라 운영자가 장애 원인 분석할 때 보는 내부 카운터로,
// /metrics 엔드포인트에서 plaintext 로 그대로 노출된다.
//
// 모든 필드는 atomic 연산으로만 갱신한다.
type Metrics struct {
	// ======================
	// HTTP 레벨 지표
	// ======================

	// HTTPRequestsTotal
	// - 이벤트 수집 엔드포인트로 들어온 "모든" 요청 수 (시도 기준).
	// - 메서드/성공/실패 여부와 관계없이 진입마다 1씩 증가.
	HTTPRequestsTotal int64

	// HTTPRequestsRejectedBodyTooLargeTotal
	// - 요청 Body 가 MaxBodySize 를 초과해 413 으로 거절된 요청 수.
	// - upstream 이 비정상적으로 큰 payload 를 보내는지 감시하는 용도.
	HTTPRequestsRejectedBodyTooLargeTotal int64

	// ======================
	// 검증 레벨 지표
	// ======================

	// EventsRejectedBadBodyTotal
	// - body 없음 / JSON 파싱 불가로 400 반환된 요청 수.
	// - 이 단계에서 거절되면 DynamoDB 쓰기는 시도조차 하지 않는다.
	EventsRejectedBadBodyTotal int64

	// EventsRejectedMissingFieldsTotal
	// - 필수 필드(eventType, userId, action, resource) 누락으로
	//   400 반환된 요청 수. 마찬가지로 쓰기 0회.
	EventsRejectedMissingFieldsTotal int64

	// ======================
	// DynamoDB 레벨 지표
	// ======================

	// EventsStoredTotal
	// - 최종적으로 테이블에 저장 성공한 이벤트 수.
	// - 이 값이 증가하는지/멈췄는지로 파이프라인이 실제로
	//   레코드를 쌓고 있는지 판단할 수 있다.
	EventsStoredTotal int64

	// DynamoPutErrorsTotal
	// - PutItem 호출 실패 횟수 (네트워크, throttle, 조건 위반 포함).
	// - 파이프라인은 재시도하지 않으므로 실패 1건 = 유실 이벤트 1건.
	//   이 값이 튀면 즉시 원인 분석이 필요하다.
	DynamoPutErrorsTotal int64

	// InternalErrorsTotal
	// - 500 으로 응답한 요청 수. DynamoPutErrorsTotal 과 거의 일치하지만
	//   마샬링 실패 등 스토어 호출 이전의 내부 오류도 포함한다.
	InternalErrorsTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "http_requests_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_body_too_large_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedBodyTooLargeTotal))

	fmt.Fprintf(&sb, "events_rejected_bad_body_total=%d\n", atomic.LoadInt64(&m.EventsRejectedBadBodyTotal))
	fmt.Fprintf(&sb, "events_rejected_missing_fields_total=%d\n", atomic.LoadInt64(&m.EventsRejectedMissingFieldsTotal))

	fmt.Fprintf(&sb, "events_stored_total=%d\n", atomic.LoadInt64(&m.EventsStoredTotal))
	fmt.Fprintf(&sb, "dynamo_put_errors_total=%d\n", atomic.LoadInt64(&m.DynamoPutErrorsTotal))
	fmt.Fprintf(&sb, "internal_errors_total=%d\n", atomic.LoadInt64(&m.InternalErrorsTotal))

	return sb.String()
}
