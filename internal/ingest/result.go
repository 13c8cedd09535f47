// internal/ingest/result.go
package ingest

import "net/http"

// API 계약상 고정된 응답 메시지들.
// 필드 누락 메시지는 어떤 필드가 빠졌든 항상 4개를 모두 나열한다.
const (
	MsgCreated       = "Audit event recorded"
	MsgBodyRequired  = "Request body is required"
	MsgBodyNotJSON   = "Request body must be valid JSON"
	MsgMissingFields = "Missing required fields: eventType, userId, action, resource"
	MsgInternalError = "Internal server error"
)

// Result
// ------------------------------------------------------------
// ingestion 1회의 결과를 나타내는 명시적 값 타입.
//
// 파이프라인 내부에서는 예외/panic 으로 흐름을 제어하지 않고
// 항상 이 타입을 위로 반환하며, HTTP/Lambda boundary 만이
// Result → transport 응답 변환을 책임진다.
// 두 배포 형태(hosted/Lambda)가 동일 입력에 대해 bit 단위로 같은
// body 를 반환해야 하므로 직렬화 가능한 형태로 둔다.
type Result struct {
	StatusCode int `json:"-"` // HTTP status (201 / 400 / 500)

	Message string `json:"message"`
	EventID string `json:"eventId,omitempty"` // 성공 시에만 설정
	Err     string `json:"error,omitempty"`   // 500 진단용 텍스트
}

// Created 는 저장 성공 결과 (201 + 생성된 이벤트 ID).
func Created(eventID string) Result {
	return Result{
		StatusCode: http.StatusCreated,
		Message:    MsgCreated,
		EventID:    eventID,
	}
}

// BadRequest 는 검증 실패 결과 (400). 쓰기는 시도되지 않았음을 의미한다.
func BadRequest(msg string) Result {
	return Result{
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	}
}

// ServerError 는 저장 실패 등 내부 오류 결과 (500).
// 원인 메시지는 진단용으로 응답 body 에 포함한다.
func ServerError(err error) Result {
	return Result{
		StatusCode: http.StatusInternalServerError,
		Message:    MsgInternalError,
		Err:        err.Error(),
	}
}
