// Package client executes compiled queries through database/sql.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/satishbabariya/tsqlgen/config"
	"github.com/satishbabariya/tsqlgen/internal/debug"
	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/cache"
	"github.com/satishbabariya/tsqlgen/query/compiler"
	"github.com/satishbabariya/tsqlgen/query/normalize"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
	"github.com/satishbabariya/tsqlgen/telemetry"
)

// ErrNoCompiler is returned when a client is used without a compiler.
var ErrNoCompiler = errors.New("client has no compiler")

// Client binds compiled queries to a database connection
type Client struct {
	db          *sql.DB
	compiler    atomic.Pointer[compiler.Compiler]
	middlewares []Middleware
	normalizer  *normalize.Normalizer
	normalized  *cache.LRU[string, string]
	telemetry   *telemetry.Collector
	logger      *slog.Logger

	mu      sync.Mutex
	watcher *config.Watcher
}

// Option configures a Client.
type Option func(*Client)

// WithMiddleware appends middlewares to the execution chain.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, m...) }
}

// NormalizeCacheSize bounds the number of rewritten statements kept by Raw.
const NormalizeCacheSize = 256

// WithNormalizer rewrites raw SQL passed to Raw before it is executed.
// Rewritten text is cached per input.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(c *Client) {
		c.normalizer = n
		c.normalized = cache.NewLRU[string, string](NormalizeCacheSize, 0)
	}
}

// WithTelemetry records compile events on t.
func WithTelemetry(t *telemetry.Collector) Option {
	return func(c *Client) { c.telemetry = t }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client over db using c to compile pipelines.
func New(db *sql.DB, c *compiler.Compiler, opts ...Option) *Client {
	cl := &Client{
		db:     db,
		logger: debug.Logger(),
	}
	cl.compiler.Store(c)
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// NewFromConfig creates a client from a loaded configuration. It sets up the
// debug logger, the legacy normalizer and telemetry as configured.
func NewFromConfig(db *sql.DB, cfg *config.Config, opts ...Option) (*Client, error) {
	debug.Init(cfg.Debug)

	cc, err := cfg.NewCompiler()
	if err != nil {
		return nil, err
	}

	var base []Option
	if cfg.LegacyNormalize {
		base = append(base, WithNormalizer(normalize.Default()))
	}
	if cfg.Telemetry.Enabled {
		collector := telemetry.New(true, telemetry.WithEndpoint(cfg.Telemetry.Endpoint))
		base = append(base, WithTelemetry(collector), WithMiddleware(TelemetryMiddleware(collector)))
	}
	return New(db, cc, append(base, opts...)...), nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Compiler returns the compiler currently in use.
func (c *Client) Compiler() *compiler.Compiler {
	return c.compiler.Load()
}

// SetCompiler swaps the compiler. Queries already compiled are unaffected.
func (c *Client) SetCompiler(cc *compiler.Compiler) {
	c.compiler.Store(cc)
}

// Telemetry returns the collector, or nil when telemetry is off.
func (c *Client) Telemetry() *telemetry.Collector {
	return c.telemetry
}

// Compile compiles p with the current compiler.
func (c *Client) Compile(p *ast.Pipeline) (*sqlgen.Query, error) {
	return c.compileWith(c.compiler.Load(), p)
}

func (c *Client) compileWith(cc *compiler.Compiler, p *ast.Pipeline) (*sqlgen.Query, error) {
	if cc == nil {
		return nil, ErrNoCompiler
	}

	start := time.Now()
	q, err := cc.Compile(p)
	if c.telemetry != nil {
		table := ""
		if p != nil {
			table = p.Table.Name
		}
		c.telemetry.RecordCompile(table, cc.Paging().String(), time.Since(start), err)
	}
	return q, err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Query compiles p and runs it, returning the result rows.
func (c *Client) Query(ctx context.Context, p *ast.Pipeline) (*sql.Rows, error) {
	return c.queryPipeline(ctx, c.db, p)
}

// QueryRow compiles p and runs it, returning at most one row.
func (c *Client) QueryRow(ctx context.Context, p *ast.Pipeline) (*sql.Row, error) {
	return c.queryRow(ctx, c.db, p)
}

// Exists runs a pipeline ending in Any and reports its result.
func (c *Client) Exists(ctx context.Context, p *ast.Pipeline) (bool, error) {
	return c.exists(ctx, c.db, p)
}

// Count runs a pipeline ending in Count and returns the count.
func (c *Client) Count(ctx context.Context, p *ast.Pipeline) (int64, error) {
	return c.count(ctx, c.db, p)
}

// Raw runs hand-written SQL. When the client has a normalizer the text is
// rewritten first.
func (c *Client) Raw(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.raw(ctx, c.db, query, args)
}

func (c *Client) queryPipeline(ctx context.Context, db querier, p *ast.Pipeline) (*sql.Rows, error) {
	q, err := c.Compile(p)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, db, q.SQL, q.Args())
}

func (c *Client) queryRow(ctx context.Context, db querier, p *ast.Pipeline) (*sql.Row, error) {
	q, err := c.Compile(p)
	if err != nil {
		return nil, err
	}

	var row *sql.Row
	err = c.execute(ctx, q.SQL, q.Args(), func() error {
		row = db.QueryRowContext(ctx, q.SQL, q.Args()...)
		return row.Err()
	})
	return row, err
}

func (c *Client) exists(ctx context.Context, db querier, p *ast.Pipeline) (bool, error) {
	var found int
	if err := c.scalar(ctx, db, p, &found); err != nil {
		return false, err
	}
	return found == 1, nil
}

func (c *Client) count(ctx context.Context, db querier, p *ast.Pipeline) (int64, error) {
	var n int64
	if err := c.scalar(ctx, db, p, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) scalar(ctx context.Context, db querier, p *ast.Pipeline, dest any) error {
	q, err := c.Compile(p)
	if err != nil {
		return err
	}
	return c.execute(ctx, q.SQL, q.Args(), func() error {
		return db.QueryRowContext(ctx, q.SQL, q.Args()...).Scan(dest)
	})
}

func (c *Client) raw(ctx context.Context, db querier, query string, args []any) (*sql.Rows, error) {
	if c.normalizer != nil {
		normalized, err := c.normalized.GetOrCompute(query, func() (string, error) {
			return c.normalizer.Apply(query)
		})
		if err != nil {
			return nil, err
		}
		query = normalized
	}
	return c.query(ctx, db, query, args)
}

func (c *Client) query(ctx context.Context, db querier, query string, args []any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := c.execute(ctx, query, args, func() error {
		var err error
		rows, err = db.QueryContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WatchConfig reloads the configuration when path changes and swaps in a
// compiler built from it. A reload that fails keeps the current compiler.
func (c *Client) WatchConfig(path string) error {
	dir := filepath.Dir(path)
	w, err := config.Watch(path, func() error {
		cfg, err := config.LoadFrom(config.AppFs, dir)
		if err != nil {
			return err
		}
		cc, err := cfg.NewCompiler()
		if err != nil {
			return err
		}
		c.SetCompiler(cc)
		c.logger.Info("compiler reloaded", "paging", cc.Paging().String(), "file", cfg.File)
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
	c.watcher = w
	w.Start()
	return nil
}

// Close stops watching the configuration and flushes telemetry. It does not
// close the database.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Stop())
	}
	if c.telemetry != nil {
		errs = append(errs, c.telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
