// internal/model/event.go
package model

import "strings"

// AuditEvent
// ------------------------------------------------------------
// "누가(userId) 무엇을(action) 어떤 대상에(resource) 언제(timestamp)"
// 수행했는지를 나타내는 불변 감사 레코드.
// ingestion 파이프라인에서 모든 데이터의 "기본 단위"가 된다.
// Handler → Ingest Service → DynamoDB 저장까지 그대로 전달된다.
//
// 키 구조:
//   - ID        : partition key (서버가 생성하는 UUID, 클라이언트 제공 불가)
//   - Timestamp : sort key (RFC3339Nano UTC, ingestion 시점에 1회만 캡처)
//
// (ID, Timestamp) 조합이 레코드의 복합 키이며,
// 저장 이후 수정/삭제되지 않는다 (보존 정책은 스토어 레벨 외부 책임).
type AuditEvent struct {
	ID        string `json:"id" dynamodbav:"id"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`

	// 클라이언트 제공 필수 필드 (4개 모두 non-empty 여야 저장됨)
	EventType string `json:"eventType" dynamodbav:"eventType"`
	UserID    string `json:"userId" dynamodbav:"userId"`
	Action    string `json:"action" dynamodbav:"action"`
	Resource  string `json:"resource" dynamodbav:"resource"`

	// 선택 필드. Details 는 임의 key/value (JSON object) 이며
	// 비어 있으면 빈 map 으로 저장된다 (null 금지).
	Details map[string]any `json:"details" dynamodbav:"details"`

	// 서버가 전적으로 채우는 블록. 클라이언트 payload 에 무엇이 들어있든
	// 파싱 단계에서 버려지고 항상 서버 값으로 덮어쓴다.
	Metadata Metadata `json:"metadata" dynamodbav:"metadata"`

	// 처리 결과를 기록하는 변형 이벤트용 (예: 비동기 작업 감사)
	Status       string `json:"status,omitempty" dynamodbav:"status,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty" dynamodbav:"errorMessage,omitempty"`
}

// Metadata
// ------------------------------------------------------------
// transport 레이어에서 추출한 요청 컨텍스트.
// ipAddress / userAgent 는 커넥션 기반, environment 는 프로세스 설정 기반.
// 세 값 모두 caller 가 위조할 수 없다.
type Metadata struct {
	IPAddress   string `json:"ipAddress" dynamodbav:"ipAddress"`
	UserAgent   string `json:"userAgent" dynamodbav:"userAgent"`
	Environment string `json:"environment" dynamodbav:"environment"`
}

// IngestRequest
// ------------------------------------------------------------
// 클라이언트가 전송하는 inbound payload.
// metadata / ipAddress / environment 류의 필드는 구조체에 아예 없으므로
// 디코딩 시점에 자연스럽게 무시된다 (spoofing 차단의 1차 지점).
//
// resource 는 단일 문자열만 받는다.
// resourceType/resourceId 로 나눠 보내던 구버전 클라이언트는
// "<type>/<id>" 형태로 합쳐 보내야 한다 (호환 노트는 DESIGN.md 참고).
type IngestRequest struct {
	EventType    string         `json:"eventType"`
	UserID       string         `json:"userId"`
	Action       string         `json:"action"`
	Resource     string         `json:"resource"`
	Details      map[string]any `json:"details"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"errorMessage"`
}

// RequiredFieldsPresent 는 필수 4개 필드가 모두 non-empty 인지 검사한다.
// 어느 필드가 빠졌는지 개별 보고하지 않고 4개를 묶어서 한 번에 판단한다.
// (응답 메시지도 항상 4개 필드명을 모두 나열 — API 계약 고정값)
func (r *IngestRequest) RequiredFieldsPresent() bool {
	return strings.TrimSpace(r.EventType) != "" &&
		strings.TrimSpace(r.UserID) != "" &&
		strings.TrimSpace(r.Action) != "" &&
		strings.TrimSpace(r.Resource) != ""
}
