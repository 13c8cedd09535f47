package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPPrefersPublicForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.RemoteAddr = "10.0.1.24:4312"
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.1.24")

	assert.Equal(t, "203.0.113.1", clientIP(r))
}

func TestClientIPSkipsPrivateHopsInChain(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.3, 203.0.113.50")

	assert.Equal(t, "203.0.113.50", clientIP(r))
}

func TestClientIPFallsBackToFirstValidWhenAllPrivate(t *testing.T) {
	// VPC 내부 서비스 간 호출: 체인 전체가 private 이어도 IP 는 기록한다
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")

	assert.Equal(t, "10.0.0.3", clientIP(r))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.RemoteAddr = "192.0.2.9:55001"

	assert.Equal(t, "192.0.2.9", clientIP(r))
}

func TestClientIPIgnoresGarbageHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.RemoteAddr = "192.0.2.9:55001"
	r.Header.Set("X-Forwarded-For", "not-an-ip,, ")

	assert.Equal(t, "192.0.2.9", clientIP(r))
}
