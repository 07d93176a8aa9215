// Package metrics 定义服务暴露的 Prometheus 指标。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal 按方法、路由和状态码统计的请求数。
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration 请求耗时分布（秒）。
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskmanager_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthFailuresTotal 认证失败次数，reason 标明原因。
	AuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_auth_failures_total",
		Help: "Authentication and registration failures by reason.",
	}, []string{"reason"})

	// TaskOperationsTotal 任务写操作次数，op: create / update / delete，result: ok / not_found / error。
	TaskOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_task_operations_total",
		Help: "Task write operations by operation and result.",
	}, []string{"op", "result"})

	// UsersRegisteredTotal 注册成功的用户数。
	UsersRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmanager_users_registered_total",
		Help: "Number of successfully registered users.",
	})
)

var initOnce sync.Once

// InitMetrics 将所有指标注册到默认 Registry，可重复调用。
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthFailuresTotal,
			TaskOperationsTotal,
			UsersRegisteredTotal,
		)
	})
}
