// internal/server/ip.go
package server

import (
	"net"
	"net/http"
	"strings"
)

// ------------------------------------------------------------
// Client IP 추출
//
// 이 서버는 ALB / API Gateway 뒤에 배치되므로 RemoteAddr 만으로는
// 실제 호출자 IP 를 알 수 없다. 감사 레코드의 metadata.ipAddress 는
// 여기서 추출한 값이 그대로 들어가며, payload 의 어떤 필드도
// 이 값에 영향을 주지 못한다.
//
// 우선순위:
//  1. X-Forwarded-For 의 첫 번째 public IP
//  2. X-Forwarded-For 의 첫 번째 유효 IP (내부망 호출 대응)
//  3. RemoteAddr
// ------------------------------------------------------------

// clientIP 는 요청을 보낸 호출자의 IP 문자열을 반환한다.
// 판별 불가능하면 빈 문자열 (metadata.ipAddress 도 빈 값으로 기록됨).
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// 예: "203.0.113.1, 10.0.1.24" — 왼쪽일수록 원 호출자에 가깝다
		var firstValid net.IP
		for _, part := range strings.Split(xff, ",") {
			ip := parseIP(part)
			if ip == nil {
				continue
			}
			if isPublicIP(ip) {
				return ip.String()
			}
			if firstValid == nil {
				firstValid = ip
			}
		}
		// 전부 private 이면 (VPC 내부 서비스 간 호출) 첫 유효 IP 를 기록
		if firstValid != nil {
			return firstValid.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

// parseIP 는 공백/빈 값/비정상 값에 안전한 net.ParseIP 래퍼.
func parseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return net.ParseIP(s)
}

// isPublicIP 는 private / loopback / link-local 을 제외한다.
// X-Forwarded-For 체인에서 중간 프록시(내부 IP)를 걸러내기 위해 필요.
func isPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}
