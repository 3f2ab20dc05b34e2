package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AnalysisRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_requests_total",
		Help: "Общее количество запусков анализа треда",
	})
	AnalysisBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_build_seconds",
		Help:    "Время полного конвейера анализа треда",
		Buckets: prometheus.DefBuckets,
	})
	AnalysisErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_errors_total",
		Help: "Ошибки конвейера анализа по стадиям",
	}, []string{"stage"})
	AnalysisStaleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_stale_results_total",
		Help: "Анализы, завершённые после ухода с треда",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180, 240, 300},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AnalysisRequestsTotal,
		AnalysisBuildSeconds,
		AnalysisErrorsTotal,
		AnalysisStaleTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// IncAnalysisError увеличивает счётчик ошибок для стадии конвейера.
func IncAnalysisError(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	AnalysisErrorsTotal.WithLabelValues(stage).Inc()
}
