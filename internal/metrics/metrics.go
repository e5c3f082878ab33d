// Package metrics: Prometheus-метрики сервиса авторизации.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder нужен сервисам. Реализация на Prometheus ниже, Nop для тестов.
type Recorder interface {
	Signup()
	Signin(ok bool)
	SessionsRevoked(n int)
	PasswordReset(stage string)
	ProtectRejected(reason string)
}

type Collector struct {
	signups         prometheus.Counter
	signins         *prometheus.CounterVec
	sessionsRevoked prometheus.Counter
	passwordResets  *prometheus.CounterVec
	protectRejected *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_signup_total",
			Help: "Number of successful signups.",
		}),
		signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signin_total",
			Help: "Signin attempts by result.",
		}, []string{"result"}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Number of sessions deactivated.",
		}),
		passwordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_resets_total",
			Help: "Password reset flow events by stage.",
		}, []string{"stage"}),
		protectRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_protect_rejections_total",
			Help: "Requests rejected by route protection, by internal reason.",
		}, []string{"reason"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		c.signups,
		c.signins,
		c.sessionsRevoked,
		c.passwordResets,
		c.protectRejected,
		c.httpDuration,
	)
	return c
}

func (c *Collector) Signup() { c.signups.Inc() }

func (c *Collector) Signin(ok bool) {
	result := "fail"
	if ok {
		result = "ok"
	}
	c.signins.WithLabelValues(result).Inc()
}

func (c *Collector) SessionsRevoked(n int) {
	if n > 0 {
		c.sessionsRevoked.Add(float64(n))
	}
}

func (c *Collector) PasswordReset(stage string) { c.passwordResets.WithLabelValues(stage).Inc() }

func (c *Collector) ProtectRejected(reason string) { c.protectRejected.WithLabelValues(reason).Inc() }

func (c *Collector) ObserveHTTP(route, method string, status int, d time.Duration) {
	c.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler отдаёт метрики из переданного реестра.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) Signup()                {}
func (Nop) Signin(bool)            {}
func (Nop) SessionsRevoked(int)    {}
func (Nop) PasswordReset(string)   {}
func (Nop) ProtectRejected(string) {}
