// internal/store/provision.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	zlog "github.com/rs/zerolog/log"
)

// EnsureTable
// -----------
// cold start 시점에 1회 호출되어, 첫 쓰기 이전에 테이블이
// 기대하는 키 스키마(partition=id, sort=timestamp)로 존재함을 보장한다.
//
// 동작:
//  1. DescribeTable
//     - 존재하면 키 스키마 검증 (스키마 불일치는 fatal),
//       아직 CREATING 상태면 ACTIVE 까지 대기 후 종료
//     - ResourceNotFound 면 CreateTable 로 진행
//     - 그 외 오류는 그대로 반환 → 서비스는 기동하면 안 된다
//  2. CreateTable
//     - 기본 on-demand(PAY_PER_REQUEST), 용량 값이 설정된 tier 는 provisioned
//     - ResourceInUse 는 "다른 cold start 가 먼저 만들었음" 으로 보고 성공 처리
//  3. 테이블이 ACTIVE 상태가 될 때까지 대기
//
// 이 함수가 에러를 반환하면 caller(main)는 ingestion 을 시작하지 않는다.
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	out, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.cfg.TableName),
	})

	if err == nil {
		// 이미 존재 → 키 스키마가 기대와 같은지 확인
		if err := verifyKeySchema(out.Table); err != nil {
			return fmt.Errorf("table %s exists with unexpected schema: %w", s.cfg.TableName, err)
		}
		// 다른 cold start 가 방금 만든 테이블은 아직 CREATING 일 수 있다.
		// ACTIVE 이전에 쓰기를 시작하면 안 되므로 여기서도 대기한다.
		if out.Table.TableStatus != types.TableStatusActive {
			return s.waitActive(ctx)
		}
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		// "없음" 이외의 조회 실패는 전부 기동 중단 사유
		return fmt.Errorf("describe table %s: %w", s.cfg.TableName, err)
	}

	zlog.Info().Str("table", s.cfg.TableName).Msg("audit table not found, creating")

	if err := s.createTable(ctx); err != nil {
		return err
	}

	return s.waitActive(ctx)
}

// createTable 은 복합 키 (id HASH, timestamp RANGE) 스키마로 테이블을 생성한다.
func (s *DynamoStore) createTable(ctx context.Context) error {
	in := &dynamodb.CreateTableInput{
		TableName: aws.String(s.cfg.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrTimestamp), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrTimestamp), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	}

	// tier 별 용량 값이 둘 다 지정된 경우에만 provisioned 모드.
	// 코어 로직은 이 값을 강제하지 않는다 (설정값 전달 용도).
	if s.cfg.ReadCapacity > 0 && s.cfg.WriteCapacity > 0 {
		in.BillingMode = types.BillingModeProvisioned
		in.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(s.cfg.ReadCapacity),
			WriteCapacityUnits: aws.Int64(s.cfg.WriteCapacity),
		}
	}

	_, err := s.api.CreateTable(ctx, in)
	if err != nil {
		// 동시 cold start 끼리의 create 경합:
		// 먼저 만든 쪽이 이기고, 진 쪽은 성공으로 간주한다.
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			zlog.Info().Str("table", s.cfg.TableName).Msg("table already being created, treating as success")
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.cfg.TableName, err)
	}

	return nil
}

// waitActive 는 테이블이 ACTIVE 가 될 때까지 SDK waiter 로 대기한다.
// CreateTable 직후 바로 PutItem 하면 ResourceNotFound 가 나므로 필수.
func (s *DynamoStore) waitActive(ctx context.Context) error {
	waiter := dynamodb.NewTableExistsWaiter(s.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.cfg.TableName),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s active: %w", s.cfg.TableName, err)
	}
	return nil
}

// verifyKeySchema 는 기존 테이블의 키 스키마가
// (id HASH, timestamp RANGE) 와 일치하는지 검사한다.
func verifyKeySchema(t *types.TableDescription) error {
	if t == nil {
		return errors.New("empty table description")
	}

	want := map[string]types.KeyType{
		attrID:        types.KeyTypeHash,
		attrTimestamp: types.KeyTypeRange,
	}

	if len(t.KeySchema) != len(want) {
		return fmt.Errorf("key schema has %d elements, want %d", len(t.KeySchema), len(want))
	}
	for _, ks := range t.KeySchema {
		name := aws.ToString(ks.AttributeName)
		kt, ok := want[name]
		if !ok || kt != ks.KeyType {
			return fmt.Errorf("unexpected key element %s/%s", name, ks.KeyType)
		}
	}
	return nil
}
