package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 子节点抓取延迟（毫秒）
	ChildFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timeline_child_fetch_latency_ms",
			Help:    "Child list fetch latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"entity", "endpoint", "status"},
	)

	// 布局计算耗时（秒）
	LayoutBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_layout_build_duration_seconds",
			Help:    "Time spent flattening rows and placing bars for one layout",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		},
	)

	// 每次布局的行数
	LayoutRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_layout_rows",
			Help:    "Rows emitted per layout",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// 依赖连线计数
	EdgesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_edges_emitted_total",
			Help: "Dependency edges emitted with both anchors resolved",
		},
	)
	EdgesOmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_edges_omitted_total",
			Help: "Dependency edges dropped because an anchor was missing",
		},
	)

	// 懒加载缓存命中
	LoaderCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_loader_cache_hits_total",
			Help: "Child fetches answered from the loader cache",
		},
		[]string{"entity"},
	)
	LoaderCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_loader_cache_misses_total",
			Help: "Child fetches that went to a data source",
		},
		[]string{"entity"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordChildFetchLatency 记录子节点抓取延迟
func RecordChildFetchLatency(entity, endpoint, status string, duration time.Duration) {
	ChildFetchLatency.WithLabelValues(entity, endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordLayoutBuild 记录一次布局计算
func RecordLayoutBuild(rows int, duration time.Duration) {
	LayoutBuildDuration.Observe(duration.Seconds())
	LayoutRows.Observe(float64(rows))
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
