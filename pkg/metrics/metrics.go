package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinote"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// AIGenerations counts generate-and-save outcomes: success, malformed, failed, conflict.
	AIGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_generations_total", Help: "Note generation requests by outcome."},
		[]string{"outcome"},
	)
	AIRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_retries_total", Help: "Retried AI provider calls after a transient failure."},
	)
	AIRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Wall time of AI generation including retries.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)
	// NoteUpserts counts saved generated notes by result: created or updated.
	NoteUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "note_upserts_total", Help: "Generated notes persisted by result."},
		[]string{"result"},
	)
	AudioUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "audio_uploads_total", Help: "Audio uploads by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AIGenerations)
	reg.MustRegister(AIRetries)
	reg.MustRegister(AIRequestDuration)
	reg.MustRegister(NoteUpserts)
	reg.MustRegister(AudioUploads)
}
