// internal/store/dynamo.go
package store

import (
	"context"
	"log"
	"sync/atomic"

	"audit-ingest/internal/config"
	"audit-ingest/internal/metrics"
	"audit-ingest/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// 복합 키 속성명. 테이블 스키마와 PutItem 조건식이 공유한다.
const (
	attrID        = "id"
	attrTimestamp = "timestamp"
)

// EventStore 는 ingest 파이프라인이 의존하는 저장 계약이다.
// 구현체는 append-only: 쓰기 1회, 수정/삭제 없음.
type EventStore interface {
	PutEvent(ctx context.Context, ev *model.AuditEvent) error
}

// dynamoAPI 는 DynamoStore 가 실제로 호출하는 SDK 표면.
// 테스트에서 fake 로 대체하기 위한 최소 인터페이스이며,
// *dynamodb.Client 가 그대로 만족한다.
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoStore 는 감사 이벤트 1건을 DynamoDB 테이블에 기록하는 구성 요소이다.
// - client 는 프로세스 전역에서 1개만 생성해 재사용 (goroutine-safe)
// - 모든 호출은 컨텍스트 기반(1회 호출당 timeout)
// - 재시도 없음: SDK retry 도 0 으로 고정 (at-most-once 계약)
type DynamoStore struct {
	cfg     config.Config
	metrics *metrics.Metrics
	api     dynamoAPI
}

// NewDynamoStore 는 AWS SDK Config 를 초기화하고 DynamoDB client 를 생성한다.
func NewDynamoStore(cfg config.Config, m *metrics.Metrics) *DynamoStore {
	return &DynamoStore{
		cfg:     cfg,
		metrics: m,
		api:     newDynamoClient(cfg),
	}
}

// newDynamoClient 는 AWS 리전과 retry 설정 등 기본 옵션을 로드한다.
// 실패 시 fatal 로그 후 즉시 종료한다 (운영 환경에서는 필수).
func newDynamoClient(cfg config.Config) *dynamodb.Client {
	opts := []func(*awsCfgLib.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		opts = append(opts, awsCfgLib.WithRegion(cfg.AWSRegion))
	}

	awsCfg, err := awsCfgLib.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		log.Fatalf("[FATAL] failed to load AWS config: %v", err)
	}

	return dynamodb.NewFromConfig(awsCfg, withNoRetry)
}

// withNoRetry
// --------------------------------------------
// Retry 정책 단일화.
// 파이프라인 계약은 "이벤트당 쓰기 시도 1회" 이다.
// SDK 기본 retry(standard retryer, 최대 3회)가 살아 있으면 동일 이벤트가
// 여러 번 전송될 수 있고, 응답 유실 케이스에서는 중복 레코드까지 생긴다.
//
// 주의: RetryMaxAttempts = 0 은 "미설정" 으로 해석되어 기본 retryer 가
// 그대로 동작한다. retry 를 실제로 끄려면 NopRetryer 를 직접 꽂아야 한다.
// --------------------------------------------
func withNoRetry(o *dynamodb.Options) {
	o.Retryer = aws.NopRetryer{}
}

// PutEvent
// --------
// 완성된 AuditEvent 1건을 테이블에 기록한다.
// - 1회 호출당 cfg.DDBTimeout 적용
// - 조건식 attribute_not_exists 로 (id, timestamp) 충돌 시
//   스토어가 직접 거부한다 (silent overwrite 불가).
//   조건부 put 도 단일 원자 호출이며 check-then-write 가 아니다.
// - 실패는 그대로 반환: 재시도/버퍼링 없음. 에러 매핑은 boundary 책임.
func (s *DynamoStore) PutEvent(ctx context.Context, ev *model.AuditEvent) error {
	item, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return err
	}

	ctx2, cancel := context.WithTimeout(ctx, s.cfg.DDBTimeout)
	defer cancel()

	_, err = s.api.PutItem(ctx2, &dynamodb.PutItemInput{
		TableName:           aws.String(s.cfg.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id) AND attribute_not_exists(#ts)"),
		ExpressionAttributeNames: map[string]string{
			"#id": attrID,
			"#ts": attrTimestamp, // timestamp 는 DynamoDB 예약어
		},
	})
	if err != nil {
		atomic.AddInt64(&s.metrics.DynamoPutErrorsTotal, 1)
		return err
	}

	return nil
}
