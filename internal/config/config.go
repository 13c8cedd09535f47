// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config
//
// 서비스 실행 시 필요한 모든 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
type Config struct {

	// ---------------------------
	// AWS / DynamoDB 기본 환경
	// ---------------------------

	AWSRegion string // AWS 리전. 비어 있으면 SDK 기본 체인에 위임 (Lambda 는 자동 주입)

	TableName string // 감사 이벤트 테이블 이름

	// 테이블 신규 생성 시 적용할 용량 값 (배포 tier 별 설정값).
	// 둘 다 0 이면 on-demand(PAY_PER_REQUEST) — 기본이자 권장 모드.
	// 코어 로직은 이 값을 강제하지 않고 provisioning 시에만 사용한다.
	ReadCapacity  int64
	WriteCapacity int64

	// ---------------------------
	// 배포 환경 태그
	// ---------------------------

	Environment string // 모든 이벤트 metadata.environment 에 기록됨 (dev/staging/prod)

	// ---------------------------
	// 서버 식별자 / 네트워크
	// ---------------------------

	ServiceName string // 로그 공통 필드 (service=...)
	InstanceID  string // 프로세스 고유 ID (호스트명 기반, 실패 시 랜덤 hex)
	HTTPAddr    string // HTTP 서버 bind 주소 (hosted 형태에서만 사용)

	// ---------------------------
	// 요청 처리 파라미터
	// ---------------------------

	MaxBodySize int64         // 단일 HTTP 요청 body 최대 크기 (바이트)
	DDBTimeout  time.Duration // PutItem 1회 호출당 timeout

	// ---------------------------
	// 로깅
	// ---------------------------

	LogLevel   string // zerolog 레벨 문자열 (debug/info/warn/error)
	LogPretty  bool   // true: 개발용 컬러 콘솔 / false: 운영용 JSON
	LogSampleN uint32 // Debug/Info 샘플링 비율 (N개 중 1개 기록, 0/1 = 전량)
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 감사 파이프라인은 Lambda 에도 배포되므로 대부분의 값에 기본값을 두고,
// 형식이 잘못된 값만 즉시 프로세스를 종료(fail-fast)시킨다.
func Load() Config {
	return Config{
		AWSRegion: os.Getenv("AWS_REGION"),

		TableName:     envOr("AUDIT_TABLE", "audit-events"),
		ReadCapacity:  envInt64("DDB_READ_CAPACITY", 0),
		WriteCapacity: envInt64("DDB_WRITE_CAPACITY", 0),

		Environment: envOr("APP_ENV", "dev"),

		ServiceName: envOr("SERVICE_NAME", "audit-ingest"),
		InstanceID:  fallbackInstanceID(),
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),

		MaxBodySize: envInt64("MAX_BODY_SIZE", 1<<20), // 1MiB
		DDBTimeout:  envDur("DDB_TIMEOUT", 5*time.Second),

		LogLevel:   envOr("LOG_LEVEL", "info"),
		LogPretty:  envBool("LOG_PRETTY", false),
		LogSampleN: uint32(envInt64("LOG_SAMPLE_N", 0)),
	}
}

// envOr / envInt64 / envDur / envBool
//
// 공통 패턴.
// 값이 없으면 기본값을 쓰고, 값이 있는데 형식이 잘못되면
// 즉시 로그 출력 후 종료(fail-fast).
// 런타임 중 설정 오류를 겪지 않도록 하기 위한 보호 전략.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool env %s=%q: %v", key, v, err)
	}
	return b
}

// fallbackInstanceID
//
// 이 프로세스를 식별하는 고유 값.
//   - 기본: hostname (ECS/Fargate 에서는 task-id 형태로 고유)
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
