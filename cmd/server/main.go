// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"audit-ingest/internal/config"
	"audit-ingest/internal/ingest"
	"audit-ingest/internal/logger"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/server"
	"audit-ingest/internal/store"

	zlog "github.com/rs/zerolog/log"
)

// hosted 형태의 entry point.
// Lambda 형태(cmd/lambda)와 동일한 ingest.Service 를 사용하며,
// 같은 입력에 대해 동일한 응답 body 를 반환해야 한다.
func main() {

	// ====================================================================
	// CPU 설정 (Fargate vCPU 특성 대응)
	// ====================================================================
	//
	// Fargate 는 vCPU 단위로 CPU share 가 제한되는데
	// Go 런타임은 기본적으로 호스트의 모든 논리 코어를 GOMAXPROCS 로 잡는다.
	// 0.25 vCPU task 에서 default 로 두면 busy-loop scheduling 으로
	// 성능이 떨어지므로, 운영에서는 Task Definition 환경변수로
	// GOMAXPROCS 를 vCPU 수에 맞춰 지정하는 것을 권장.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1) // default: 1 logical CPU
	}

	// ====================================================================
	// Config / Logger / Metrics 초기화
	// ====================================================================
	cfg := config.Load()
	logger.Init(cfg)
	m := metrics.New()

	// ====================================================================
	// 스토어 초기화 + 테이블 provisioning
	// ====================================================================
	//
	// DynamoDB client 는 프로세스 전역 1개를 재사용한다.
	// EnsureTable 이 실패하면 (스키마 확인/생성 불가) 여기서 기동을 멈춘다 —
	// 쓸 수 있는 스토어 없이 ingestion 을 받기 시작하면 안 되기 때문.
	// ====================================================================
	st := store.NewDynamoStore(cfg, m)

	provCtx, provCancel := context.WithTimeout(context.Background(), 3*time.Minute)
	if err := st.EnsureTable(provCtx); err != nil {
		provCancel()
		zlog.Fatal().Err(err).Str("table", cfg.TableName).Msg("table provisioning failed")
	}
	provCancel()

	// ====================================================================
	// HTTP Handler 설정
	// ====================================================================
	//
	// 엔드포인트:
	//  - /events  : 감사 이벤트 수집 (핵심, POST)
	//  - /metrics : 운영 지표 확인
	//  - /health  : ALB Target Group health check 용
	// ====================================================================
	svc := ingest.NewService(cfg, m, st)
	h := server.NewHandler(cfg, m, svc)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.HandleEvents)
	mux.HandleFunc("/metrics", h.HandleMetrics)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		// ALB 는 단순 문자열로도 health 판단 가능
		w.Write([]byte("ok"))
	})

	// ====================================================================
	// HTTP 서버 설정
	// ====================================================================
	//
	// 감사 이벤트 payload 는 매우 짧은 JSON 이므로
	// Read/Write timeout 을 짧게 잡아 비정상 커넥션의 리소스 점유를 막는다.
	// IdleTimeout 은 ALB keep-alive 연결 관리 목적.
	// ====================================================================
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 8 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ====================================================================
	// Graceful Shutdown (ECS/Fargate scale-in 대응)
	// ====================================================================
	//
	// SIGTERM 수신 시 HTTP 서버만 정리하면 된다.
	// 파이프라인은 요청당 동기 처리라 내부 큐/배치가 없고,
	// in-flight 쓰기는 Shutdown 의 대기 구간에서 자연스럽게 끝난다.
	// ====================================================================
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		sig := <-sigCh
		zlog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("http shutdown")
		}
		cancel()
	}()

	// ====================================================================
	// 서버 시작
	// ====================================================================
	zlog.Info().
		Str("addr", cfg.HTTPAddr).
		Str("table", cfg.TableName).
		Msg("audit ingest server listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal().Err(err).Msg("http server terminated")
	}

	zlog.Info().Msg("shutdown complete")
}
