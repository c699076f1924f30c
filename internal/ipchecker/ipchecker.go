// Package ipchecker extracts the client IP of an HTTP request and checks
// it against the trusted subnet allowed to call the test-support routes.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

type IPChecker struct {
	trustedSubnet     *net.IPNet
	trustProxyHeaders bool
}

type InitOption func(*IPChecker)

// WithTrustProxyHeaders makes GetClientIP honour X-Real-IP and
// X-Forwarded-For. Enable it only behind a reverse proxy that overwrites
// those headers, otherwise any client can pick its own address.
func WithTrustProxyHeaders(trust bool) InitOption {
	return func(checker *IPChecker) {
		checker.trustProxyHeaders = trust
	}
}

// New parses trustedSubnet in CIDR notation (e.g. "192.168.1.0/24").
// An empty string yields a checker without a subnet, see IsTrustedSubnetEmpty.
func New(trustedSubnet string, optionsProto ...InitOption) (*IPChecker, error) {
	checker := &IPChecker{
		trustedSubnet:     nil,
		trustProxyHeaders: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(checker)
	}

	if trustedSubnet == "" {
		return checker, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	checker.trustedSubnet = allowedNet

	return checker, nil
}

// Check reports whether clientIP is inside the trusted subnet.
// Without a subnet it always returns false.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP returns the peer address of the connection. With
// WithTrustProxyHeaders it looks at X-Real-IP, then the first
// X-Forwarded-For entry, before falling back to RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if checker.trustProxyHeaders {
		if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
			return ip, nil
		}
		if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip, nil
			}
		}
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	return net.ParseIP(host), nil
}

func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}

// TrustedOnly lets the request through when no subnet is configured or the
// client is inside it, and answers 403 Forbidden otherwise.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if checker.IsTrustedSubnetEmpty() {
			h.ServeHTTP(response, request)
			return
		}

		clientIP, err := checker.GetClientIP(request)
		if err != nil || !checker.Check(clientIP) {
			response.WriteHeader(http.StatusForbidden)
			return
		}

		h.ServeHTTP(response, request)
	})
}
