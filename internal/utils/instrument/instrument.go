package instrument

import (
	"context"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/coinbase/chaingov/internal/utils/log"
	"github.com/coinbase/chaingov/internal/utils/retry"
	"github.com/coinbase/chaingov/internal/utils/timesource"
)

type (
	// Instrument reports the outcome of an operation as tally counters, a latency timer,
	// a Datadog span and a log line.
	Instrument struct {
		name              string
		err               tally.Counter
		success           tally.Counter
		successWithFilter tally.Counter
		latency           tally.Timer
		retry             *retry.Policy
		filter            FilterFn
		timeSource        timesource.TimeSource
		logger            *zap.Logger
		loggerMsg         string
		tracerMsg         string
		tracerTags        map[string]string
	}

	OperationFn                  func(ctx context.Context) error
	OperationWithResultFn[T any] func(ctx context.Context) (T, error)

	// FilterFn reports whether err is expected and should be counted as a success.
	FilterFn func(err error) bool

	Option func(i *Instrument)
)

const (
	resultTypeTag     = "result_type"
	resultTypeError   = "error"
	resultTypeSuccess = "success"
	latencySuffix     = "latency"
	durationTag       = "duration"
	filteredTag       = "filtered"
)

var (
	errTags = map[string]string{
		resultTypeTag: resultTypeError,
	}

	successTags = map[string]string{
		resultTypeTag: resultTypeSuccess,
	}

	successWithFilterTags = map[string]string{
		resultTypeTag: resultTypeSuccess,
		filteredTag:   "true",
	}
)

func New(scope tally.Scope, name string, opts ...Option) *Instrument {
	i := &Instrument{
		name:              name,
		err:               scope.Tagged(errTags).Counter(name),
		success:           scope.Tagged(successTags).Counter(name),
		successWithFilter: scope.Tagged(successWithFilterTags).Counter(name),
		latency:           scope.SubScope(name).Timer(latencySuffix),
		timeSource:        timesource.NewRealTimeSource(),
		logger:            zap.NewNop(),
		loggerMsg:         name,
		tracerMsg:         name,
		tracerTags:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

func WithFilter(filter FilterFn) Option {
	return func(i *Instrument) {
		i.filter = filter
	}
}

func WithLogger(logger *zap.Logger, msg string) Option {
	return func(i *Instrument) {
		i.logger = logger
		i.loggerMsg = msg
	}
}

func WithTracer(msg string, tags map[string]string) Option {
	return func(i *Instrument) {
		i.tracerMsg = msg
		for k, v := range tags {
			i.tracerTags[k] = v
		}
	}
}

func WithTimeSource(timeSource timesource.TimeSource) Option {
	return func(i *Instrument) {
		i.timeSource = timeSource
	}
}

// WithRetry retries the operation with the given policy. Metrics and the span cover all attempts.
func WithRetry(policy *retry.Policy) Option {
	return func(i *Instrument) {
		i.retry = policy
	}
}

func (i *Instrument) Name() string {
	return i.name
}

func (i *Instrument) Instrument(ctx context.Context, operation OperationFn, fields ...zap.Field) error {
	_, err := WithResult(ctx, i, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	}, fields...)
	return err
}

// WithResult instruments an operation producing a value.
func WithResult[T any](ctx context.Context, i *Instrument, operation OperationWithResultFn[T], fields ...zap.Field) (T, error) {
	startTime := i.timeSource.Now()
	span, ctx := i.startSpan(ctx, startTime)

	res, err := retry.DoWithResult(ctx, i.retry, retry.OperationWithResultFn[T](operation))

	finishTime := i.timeSource.Now()
	duration := finishTime.Sub(startTime)
	i.latency.Record(duration)

	logger := log.WithSpan(ctx, i.logger).With(zap.String(durationTag, duration.String()))
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	switch {
	case err == nil:
		i.success.Inc(1)
		logger.Debug(i.loggerMsg)
		span.Finish(tracer.FinishTime(finishTime))
	case i.filter != nil && i.filter(err):
		i.successWithFilter.Inc(1)
		logger.Debug(i.loggerMsg, zap.Error(err))
		span.Finish(tracer.FinishTime(finishTime), tracer.WithError(err))
	default:
		i.err.Inc(1)
		logger.Warn(i.loggerMsg, zap.Error(err))
		span.Finish(tracer.FinishTime(finishTime), tracer.WithError(err))
	}

	return res, err
}

func (i *Instrument) startSpan(ctx context.Context, startTime time.Time) (tracer.Span, context.Context) {
	opts := []tracer.StartSpanOption{
		tracer.SpanType("custom"),
		tracer.StartTime(startTime),
	}
	for k, v := range i.tracerTags {
		opts = append(opts, tracer.Tag(k, v))
	}
	return tracer.StartSpanFromContext(ctx, i.tracerMsg, opts...)
}
