// internal/server/handler.go
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"audit-ingest/internal/config"
	"audit-ingest/internal/ingest"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/pool"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

type Handler struct {
	cfg     config.Config
	metrics *metrics.Metrics
	svc     *ingest.Service
}

func NewHandler(cfg config.Config, m *metrics.Metrics, svc *ingest.Service) *Handler {
	return &Handler{
		cfg:     cfg,
		metrics: m,
		svc:     svc,
	}
}

// HandleEvents
//
// 감사 이벤트 수집 엔드포인트 (POST /events).
//
// 공통 동작:
//  1. 요청 길이 제한(MaxBodySize)
//  2. BodyPool 기반 메모리 재사용, gzip body 지원
//  3. transport 컨텍스트(IP/UA) 추출 → ingest 파이프라인 위임
//  4. Result → HTTP 응답 매핑 + metrics 증가
//
// 검증/enrichment/쓰기 규칙은 전부 ingest.Service 가 담당하고,
// 이 함수는 transport 변환만 책임진다 (Lambda handler 와 대칭).
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	// OPTIONS 요청은 CORS preflight 로 가정 → 즉시 204
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// 수집은 POST 단일 계약
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// --------------------------------------------------------------------
	// 요청 Body 최대 크기 강제 제한.
	// Body 가 커서 메모리가 과도하게 사용되는 것을 방지.
	// --------------------------------------------------------------------
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	defer r.Body.Close()

	buf := pool.BodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutBody(buf, h.cfg.MaxBodySize*2)

	var src io.Reader = r.Body

	// Content-Encoding: gzip 지원 (모바일 SDK 등 압축 전송 클라이언트)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz := pool.GzipReaderPool.Get().(*gzip.Reader)
		if err := gz.Reset(r.Body); err != nil {
			pool.PutGzipReader(gz)
			atomic.AddInt64(&h.metrics.EventsRejectedBadBodyTotal, 1)
			h.writeResult(w, ingest.BadRequest(ingest.MsgBodyNotJSON))
			return
		}
		defer func() {
			_ = gz.Close()
			pool.PutGzipReader(gz)
		}()
		src = gz
	}

	if _, err := io.Copy(buf, src); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBodyTooLargeTotal, 1)
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		// 크기 초과 외의 read 실패 (gzip 스트림 손상/checksum 불일치 등)
		// → Reset 실패와 같은 invalid body 클래스로 응답
		atomic.AddInt64(&h.metrics.EventsRejectedBadBodyTotal, 1)
		h.writeResult(w, ingest.BadRequest(ingest.MsgBodyNotJSON))
		return
	}

	// --------------------------------------------------------------------
	// transport 컨텍스트 추출 후 코어 파이프라인 위임.
	// metadata 는 여기서 뽑은 값 + 서버 설정만으로 채워진다.
	// --------------------------------------------------------------------
	meta := ingest.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	res := h.svc.Ingest(r.Context(), buf.Bytes(), meta)
	h.writeResult(w, res)
}

// writeResult 는 Result 를 JSON 응답으로 직렬화한다.
// 같은 Result 에 대해 Lambda handler 와 byte 단위로 동일한 body 를 만든다.
func (h *Handler) writeResult(w http.ResponseWriter, res ingest.Result) {
	body, err := json.Marshal(res)
	if err != nil {
		// Marshal 실패 시에도 빈 body 는 내보내지 않는다
		body = []byte(`{"message":"` + ingest.MsgInternalError + `"}`)
		res.StatusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(body)
}

// HandleMetrics
//
// 파이프라인 상태 카운터 출력. Prometheus pull 방식으로도 쉽게 전환 가능.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}
