package services

import "github.com/prometheus/client_golang/prometheus"

var (
	previewPushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "profile_builder",
		Name:      "preview_push_total",
		Help:      "Debounced preview pushes by result.",
	}, []string{"result"})

	submitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "profile_builder",
		Name:      "submit_total",
		Help:      "Wizard submissions by outcome.",
	}, []string{"outcome"})

	resumeParseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "profile_builder",
		Name:      "resume_parse_total",
		Help:      "Resume parse attempts by result.",
	}, []string{"result"})

	indexJobTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "profile_builder",
		Name:      "index_job_total",
		Help:      "Profile index jobs by final status.",
	}, []string{"status"})

	sessionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "profile_builder",
		Name:      "sessions_expired_total",
		Help:      "Wizard sessions closed after going idle.",
	})

	generateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "profile_builder",
		Name:      "resume_generate_seconds",
		Help:      "Resume document generation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"generator"})
)

func init() {
	prometheus.MustRegister(previewPushTotal, submitTotal, resumeParseTotal, indexJobTotal, sessionsExpired, generateDuration)
}
