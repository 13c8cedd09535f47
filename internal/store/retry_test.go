package store

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDoer 는 HTTP 레이어에 실제로 도달한 시도 횟수를 센다.
// SDK retryer 가 살아 있으면 재시도마다 Do 가 다시 불린다.
type countingDoer struct {
	calls int64
}

func (d *countingDoer) Do(_ *http.Request) (*http.Response, error) {
	atomic.AddInt64(&d.calls, 1)
	// standard retryer 기준 retryable 로 분류되는 응답 (5xx)
	return &http.Response{
		StatusCode: http.StatusInternalServerError,
		Header:     http.Header{"Content-Type": []string{"application/x-amz-json-1.0"}},
		Body:       io.NopCloser(strings.NewReader(`{"__type":"InternalServerError"}`)),
	}, nil
}

// 쓰기 경로의 at-most-once 보장:
// retryable 실패(5xx/throttle)라도 PutItem 1회 호출은
// 네트워크 시도 정확히 1회여야 한다. SDK 기본 retryer 가 남아 있으면
// 이 테스트는 시도 3회로 깨진다.
func TestClientNeverRetriesWrites(t *testing.T) {
	doer := &countingDoer{}

	client := dynamodb.NewFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("test", "test", ""),
		HTTPClient:  doer,
	}, withNoRetry) // newDynamoClient 가 쓰는 것과 동일한 옵션

	_, err := client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String("audit-events-test"),
		Item: map[string]types.AttributeValue{
			"id":        &types.AttributeValueMemberS{Value: "evt-1"},
			"timestamp": &types.AttributeValueMemberS{Value: "2026-08-29T00:00:00Z"},
		},
	})

	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&doer.calls))
}
