// Package metrics — Prometheus-метрики articles-service.
// Группы: HTTP-запросы, доменные события статей, фоновый пересчёт trending.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "articles"

var (
	// HTTP: объём и латентность запросов.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Доменные события.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Status transitions by action",
		},
		[]string{"action"},
	)

	LikesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "likes_total",
			Help:      "Like toggles by target (article|comment) and result (liked|unliked)",
		},
		[]string{"target", "result"},
	)

	CommentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "comments_total",
			Help:      "Comment operations by kind (add|edit|delete)",
		},
		[]string{"kind"},
	)

	ViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "views_total",
			Help:      "Article views by result (counted|duplicate)",
		},
		[]string{"result"},
	)

	// Фоновый пересчёт trending_score.
	TrendingSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trending",
			Name:      "sweep_duration_seconds",
			Help:      "Trending sweep duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	TrendingSweepArticles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trending",
			Name:      "articles_scored_total",
			Help:      "Articles whose trending score was recomputed",
		},
	)
)

// ObserveTransition учитывает переход статуса.
func ObserveTransition(action string) {
	TransitionsTotal.WithLabelValues(action).Inc()
}

// ObserveLike учитывает переключение лайка.
func ObserveLike(target string, liked bool) {
	result := "unliked"
	if liked {
		result = "liked"
	}

	LikesTotal.WithLabelValues(target, result).Inc()
}

// ObserveComment учитывает операцию над комментарием.
func ObserveComment(kind string) {
	CommentsTotal.WithLabelValues(kind).Inc()
}

// ObserveView учитывает просмотр; counted == false — повтор, отсечённый дедупликацией.
func ObserveView(counted bool) {
	result := "duplicate"
	if counted {
		result = "counted"
	}

	ViewsTotal.WithLabelValues(result).Inc()
}

// ObserveSweep фиксирует один проход пересчёта trending.
func ObserveSweep(d time.Duration, scored int) {
	TrendingSweepDuration.Observe(d.Seconds())
	if scored > 0 {
		TrendingSweepArticles.Add(float64(scored))
	}
}
