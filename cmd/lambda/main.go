// cmd/lambda/main.go
package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"audit-ingest/internal/config"
	"audit-ingest/internal/ingest"
	"audit-ingest/internal/logger"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/store"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	json "github.com/goccy/go-json"
	zlog "github.com/rs/zerolog/log"
)

// function 형태의 entry point (API Gateway proxy 통합).
// hosted 형태(cmd/server)와 같은 ingest.Service 를 사용하며,
// 같은 입력에 대해 동일한 응답 body 를 반환해야 한다.
//
// cold start 마다 config → store → provisioning 순서로 초기화되고,
// provisioning 실패 시 handler 를 등록하지 않고 즉시 종료한다
// (스토어 없이 이벤트를 받기 시작하면 안 되기 때문).
func main() {
	cfg := config.Load()
	logger.Init(cfg)
	m := metrics.New()

	st := store.NewDynamoStore(cfg, m)

	provCtx, provCancel := context.WithTimeout(context.Background(), 3*time.Minute)
	if err := st.EnsureTable(provCtx); err != nil {
		provCancel()
		zlog.Fatal().Err(err).Str("table", cfg.TableName).Msg("table provisioning failed")
	}
	provCancel()

	svc := ingest.NewService(cfg, m, st)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return handle(ctx, svc, req), nil
	})
}

// handle 은 API Gateway 요청을 ingest 파이프라인 입력으로 변환하고
// Result 를 proxy 응답으로 되돌린다.
// 항상 (response, nil) 을 반환한다 — 오류를 error 로 올리면
// API Gateway 가 자체 502 body 를 만들어 응답 계약이 깨진다.
func handle(ctx context.Context, svc *ingest.Service, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return toResponse(ingest.BadRequest(ingest.MsgBodyNotJSON))
		}
		body = decoded
	}

	// API Gateway 는 원 호출자 IP 를 request context 로 전달한다.
	// payload 의 어떤 필드도 이 값에 영향을 주지 못한다.
	meta := ingest.RequestMeta{
		IPAddress: req.RequestContext.Identity.SourceIP,
		UserAgent: header(req.Headers, "User-Agent"),
	}

	return toResponse(svc.Ingest(ctx, body, meta))
}

// toResponse 는 Result 를 proxy 응답으로 직렬화한다.
// hosted 형태의 writeResult 와 byte 단위로 같은 body 를 만든다.
func toResponse(res ingest.Result) events.APIGatewayProxyResponse {
	body, err := json.Marshal(res)
	if err != nil {
		body = []byte(`{"message":"` + ingest.MsgInternalError + `"}`)
		res.StatusCode = http.StatusInternalServerError
	}

	return events.APIGatewayProxyResponse{
		StatusCode: res.StatusCode,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
		Body: string(body),
	}
}

// header 는 API Gateway 헤더 map 에서 대소문자 무관 조회를 한다.
// (HTTP API 와 REST API 가 헤더 케이스를 다르게 전달한다)
func header(h map[string]string, key string) string {
	if v, ok := h[key]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
