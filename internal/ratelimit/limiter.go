// Package ratelimit provides rate limiting for reservation attempts. Counts
// live in Redis so the limit holds across replicas; on Redis failure the
// limiter fails open rather than blocking bookings.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	MaxPerWindow int           // Max reserve attempts per IP per window (default: 10)
	Window       time.Duration // Fixed window length (default: 1m)
	Prefix       string        // Redis key prefix (default: "reservalo:rl")

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPerWindow: 10,
		Window:       time.Minute,
		Prefix:       "reservalo:rl",
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts reservation attempts per client IP in fixed windows.
type Limiter struct {
	rdb    *redis.Client
	config *Config
	clock  Clock
}

// New creates a limiter backed by rdb. A nil client disables limiting.
func New(rdb *redis.Client, cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		rdb:    rdb,
		config: cfg,
		clock:  clock,
	}
}

// CheckReserve counts one reservation attempt for ip and reports whether it
// is allowed. The count is recorded before the reservation runs, so rejected
// reservations still consume budget.
func (l *Limiter) CheckReserve(ctx context.Context, ip string) LimitResult {
	if l == nil || l.rdb == nil {
		return LimitResult{Allowed: true}
	}

	now := l.clock.Now()
	windowSecs := int64(l.config.Window / time.Second)
	if windowSecs <= 0 {
		windowSecs = 60
	}
	windowIdx := now.Unix() / windowSecs
	key := fmt.Sprintf("%s:reserve:ip:%s:%d", l.config.Prefix, ip, windowIdx)

	pipe := l.rdb.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.config.Window+l.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit check failed, allowing request")
		return LimitResult{Allowed: true}
	}

	used := int(count.Val())
	if used > l.config.MaxPerWindow {
		windowEnd := time.Unix((windowIdx+1)*windowSecs, 0)
		return LimitResult{
			Allowed:    false,
			RetryAfter: windowEnd.Sub(now),
		}
	}
	return LimitResult{
		Allowed:   true,
		Remaining: l.config.MaxPerWindow - used,
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
