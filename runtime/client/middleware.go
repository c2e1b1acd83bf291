package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/tsqlgen/telemetry"
)

// QueryEvent represents a query execution event
type QueryEvent struct {
	Query    string
	Args     []any
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware is a function that intercepts queries
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use adds a middleware to the chain. It is not safe to call while queries
// are running.
func (c *Client) Use(middleware Middleware) {
	c.middlewares = append(c.middlewares, middleware)
}

// execute runs exec through the middleware chain
func (c *Client) execute(ctx context.Context, query string, args []any, exec func() error) error {
	if len(c.middlewares) == 0 {
		return exec()
	}

	event := &QueryEvent{
		Query: query,
		Args:  args,
		Start: time.Now(),
	}

	index := 0
	var next func() error
	next = func() error {
		if index >= len(c.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := c.middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs each query and its outcome. Parameter values are
// logged only at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		logger.DebugContext(ctx, "executing query", "sql", event.Query, "args", event.Args)
		err := next()
		if err != nil {
			logger.ErrorContext(ctx, "query failed", "sql", event.Query, "error", err)
		} else {
			logger.InfoContext(ctx, "query completed", "sql", event.Query, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware creates a middleware that measures query execution time
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware creates a middleware that handles errors
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}

// TelemetryMiddleware records each execution on the collector.
func TelemetryMiddleware(collector *telemetry.Collector) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		collector.RecordExecute(event.Duration, err)
		return err
	}
}
