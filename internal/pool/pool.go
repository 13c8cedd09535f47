// internal/pool/pool.go
package pool

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// 감사 이벤트는 payload 가 작지만 호출 빈도가 높다.
// 매 요청마다 body 버퍼와 gzip.Reader 를 새로 할당하면
// GC pressure 가 커지므로 hot path 객체는 풀에서 재사용한다.
// ---------------------------------------------------------------

var (
	// BodyPool:
	//   - 요청 body 를 임시 저장하는 버퍼
	//   - 초기 용량 4KB (감사 이벤트 대부분은 여기에 수용됨)
	//   - 너무 큰 버퍼는 caller(maxCap 조건)에서 재사용하지 않음
	BodyPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 4*1024))
		},
	}

	// GzipReaderPool:
	//   - Content-Encoding: gzip 요청 해제용 reader 재사용
	//   - zero value gzip.Reader 는 Reset() 으로 초기화해서 쓴다
	GzipReaderPool = sync.Pool{
		New: func() any { return new(gzip.Reader) },
	}
)

// PutBody:
//   - BodyPool 에 buf 를 반환할지 결정.
//   - maxCap(보통 MaxBodySize*2)보다 크면 버려서 GC 로.
//   - 초대형 body 가 들어왔을 때 메모리를 계속 보유하지 않도록 함.
func PutBody(buf *bytes.Buffer, maxCap int64) {
	if int64(buf.Cap()) <= maxCap {
		buf.Reset()
		BodyPool.Put(buf)
	}
	// 그 외는 반환하지 않고 자연스럽게 GC 처리
}

// PutGzipReader:
//   - 사용 끝난 gzip.Reader 를 풀로 반환.
//   - Close 는 caller 책임 (여기서는 반환만 담당).
func PutGzipReader(r *gzip.Reader) {
	GzipReaderPool.Put(r)
}
