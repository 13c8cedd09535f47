// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"audit-ingest/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 애플리케이션 시작 시 한 번만 호출되는 로거 초기화 함수.
//
//  1. 로그 포맷 자동 전환:
//     - LOG_PRETTY=true  : 컬러 텍스트 (로컬 개발, 가독성 위주)
//     - LOG_PRETTY=false : JSON (CloudWatch 등 검색/분석 위주)
//
//  2. 공통 필드 자동 추가:
//     - 모든 로그에 "service", "instance", "env" 가 붙는다.
//     - 어느 배포의 어느 프로세스가 남긴 로그인지 즉시 식별 가능.
//
//  3. 로그 샘플링 (비용 절감):
//     - Debug/Info 는 LOG_SAMPLE_N 설정에 따라 N개 중 1개만 기록.
//     - Warn/Error 는 절대 버리지 않고 100% 기록.
func Init(cfg config.Config) {

	// 설정된 레벨보다 낮은 중요도의 로그는 출력하지 않는다.
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil {
		level = l
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.LogPretty {
		// 로컬 개발: 날짜 없이 시간만 보여도 충분
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	} else {
		// 운영: 가공 없이 표준 JSON 을 stdout 으로
		w = os.Stdout
	}

	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Str("env", cfg.Environment).
		Logger()

	logger := base
	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
			// Warn/Error 는 샘플링하지 않음 (nil) — 장애 로그는 전량 보존
		})
	}

	zlog.Logger = logger

	// 표준 라이브러리 log 를 쓰는 코드도 zerolog 설정을 따르게 연결
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}
