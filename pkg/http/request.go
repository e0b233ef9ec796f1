package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 1 << 20

// IPConfig holds the proxies whose forwarding headers are trusted
type IPConfig struct {
	trusted []*net.IPNet
}

// NewIPConfig parses CIDR ranges; invalid entries are skipped
func NewIPConfig(cidrs []string) *IPConfig {
	cfg := &IPConfig{}
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			cfg.trusted = append(cfg.trusted, ipNet)
		}
	}
	return cfg
}

func (c *IPConfig) trusts(ip string) bool {
	if c == nil || len(c.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range c.trusted {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the caller's address for audit logging.
// X-Forwarded-For and X-Real-IP are honored only when the direct peer is a
// trusted proxy, otherwise RemoteAddr wins.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := remoteAddr(r)

	if config.trusts(remoteIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, ip := range strings.Split(xff, ",") {
				ip = strings.TrimSpace(ip)
				if net.ParseIP(ip) != nil {
					return ip
				}
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
			return xri
		}
	}

	return remoteIP
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

// DecodeJSON reads a single JSON object from the request body into dst
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return errors.New("request body is not valid JSON")
		}
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
