package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_http_requests_total",
		Help: "The total number of API requests by endpoint and status code",
	}, []string{"endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutrimatch_http_request_duration_seconds",
		Help:    "Duration of API requests",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"endpoint"})

	PubMedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_pubmed_requests_total",
		Help: "The total number of E-utilities calls by operation and outcome",
	}, []string{"operation", "status"})

	PubMedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutrimatch_pubmed_request_duration_seconds",
		Help:    "Duration of E-utilities calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutrimatch_llm_request_duration_seconds",
		Help:    "Duration of generative gateway requests",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_llm_requests_total",
		Help: "The total number of generative gateway requests by task and outcome",
	}, []string{"task", "status"})

	CitationCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_citation_cache_lookups_total",
		Help: "Citation cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	RelevanceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_relevance_fallbacks_total",
		Help: "Times the deterministic citation fallback replaced the relevance filter",
	}, []string{"reason"})

	DraftEnrichments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrimatch_draft_enrichments_total",
		Help: "Draft enrichment outcomes (cited, reused, placeholder)",
	}, []string{"outcome"})
)
