package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests from this IP, please try again later"

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter ограничивает запросы с одного IP: max за window, с бёрстом на весь max.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter запускает фоновую чистку; maxRequests <= 0 выключает лимит.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		burst:    maxRequests,
		window:   window,
		now:      time.Now,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	if maxRequests > 0 && window > 0 {
		rl.limit = rate.Limit(float64(maxRequests) / window.Seconds())
		go rl.cleanupLoop()
	}
	return rl
}

func (rl *RateLimiter) enabled() bool { return rl.burst > 0 && rl.limit > 0 }

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.get(ip).Allow() {
			logger.WithCtx(r.Context()).Warn("Превышен лимит запросов", zap.String("ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			helpers.Error(w, http.StatusTooManyRequests, rateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len: число отслеживаемых IP.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[ip]; ok {
		l.lastAccess = rl.now()
		return l.limiter
	}
	l := &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: rl.now()}
	rl.limiters[ip] = l
	return l.limiter
}

func (rl *RateLimiter) retryAfterSeconds() int {
	sec := int(math.Ceil(1.0 / float64(rl.limit)))
	if sec < 1 {
		sec = 1
	}
	return sec
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup удаляет IP, не появлявшиеся дольше окна: их бакет к этому времени уже полон.
func (rl *RateLimiter) cleanup() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, l := range rl.limiters {
		if now.Sub(l.lastAccess) > rl.window {
			delete(rl.limiters, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
