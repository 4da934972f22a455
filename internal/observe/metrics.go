// Package observe предоставляет метрики OpenTelemetry для цикла запись -> распознавание.
//
// Тесты создают Metrics через NewMetrics с собственным MeterProvider,
// приложение использует DefaultMetrics поверх otel.GetMeterProvider.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "voicesnip"

// Результаты задания распознавания (атрибут result).
const (
	ResultText         = "text"
	ResultEmpty        = "empty"
	ResultConfigError  = "config_error"
	ResultRuntimeError = "runtime_error"
	ResultError        = "error"
	ResultDropped      = "dropped"
)

// Metrics - инструменты приложения. Безопасны для конкурентного использования.
type Metrics struct {
	// Jobs считает задания распознавания, атрибут result.
	Jobs metric.Int64Counter
	// TranscriptionDuration - длительность вызова провайдера, атрибут provider.
	TranscriptionDuration metric.Float64Histogram
	// Recordings считает начатые записи.
	Recordings metric.Int64Counter
}

// Границы гистограммы в секундах: от облачных ответов до локального large-v3 на CPU.
var durationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

// NewMetrics создаёт инструменты на заданном MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Jobs, err = m.Int64Counter("voicesnip.jobs",
		metric.WithDescription("Transcription jobs by result."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("voicesnip.transcription.duration",
		metric.WithDescription("Latency of speech-to-text providers."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Recordings, err = m.Int64Counter("voicesnip.recordings",
		metric.WithDescription("Recordings started."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics возвращает общий экземпляр на otel.GetMeterProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordJob увеличивает счётчик заданий с результатом.
func (m *Metrics) RecordJob(ctx context.Context, result string) {
	m.Jobs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordTranscription записывает длительность вызова провайдера.
func (m *Metrics) RecordTranscription(ctx context.Context, provider string, d time.Duration) {
	m.TranscriptionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordRecording увеличивает счётчик записей.
func (m *Metrics) RecordRecording(ctx context.Context) {
	m.Recordings.Add(ctx, 1)
}
