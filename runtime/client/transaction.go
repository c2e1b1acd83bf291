package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
)

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (default)
	ReadCommitted IsolationLevel = iota
	ReadUncommitted
	RepeatableRead
	// Snapshot reads a consistent version as of the start of the transaction.
	Snapshot
	Serializable
)

// ToSQLIsolationLevel converts IsolationLevel to sql.IsolationLevel
func (level IsolationLevel) ToSQLIsolationLevel() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Snapshot:
		return sql.LevelSnapshot
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// NewTxOptions creates sql.TxOptions from isolation level
func NewTxOptions(isolation IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: isolation.ToSQLIsolationLevel(),
		ReadOnly:  readOnly,
	}
}

// Tx runs compiled pipelines inside a transaction. It uses the client's
// compiler, middleware and normalizer.
type Tx struct {
	*sql.Tx
	client *Client
	depth  int
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Tx) error

// Transaction runs fn in a transaction. It commits when fn returns nil and
// rolls back otherwise, including on panic.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithIsolation runs fn at the given isolation level.
func (c *Client) TransactionWithIsolation(ctx context.Context, isolation IsolationLevel, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, NewTxOptions(isolation, false), fn)
}

// TransactionWithOptions runs fn in a transaction started with opts.
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) error {
	sqlTx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{Tx: sqlTx, client: c}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Compile compiles p with the client's current compiler.
func (tx *Tx) Compile(p *ast.Pipeline) (*sqlgen.Query, error) {
	return tx.client.Compile(p)
}

// Query compiles p and runs it in the transaction.
func (tx *Tx) Query(ctx context.Context, p *ast.Pipeline) (*sql.Rows, error) {
	return tx.client.queryPipeline(ctx, tx.Tx, p)
}

// QueryRow compiles p and runs it in the transaction, returning at most one row.
func (tx *Tx) QueryRow(ctx context.Context, p *ast.Pipeline) (*sql.Row, error) {
	return tx.client.queryRow(ctx, tx.Tx, p)
}

// Exists runs a pipeline ending in Any in the transaction.
func (tx *Tx) Exists(ctx context.Context, p *ast.Pipeline) (bool, error) {
	return tx.client.exists(ctx, tx.Tx, p)
}

// Count runs a pipeline ending in Count in the transaction.
func (tx *Tx) Count(ctx context.Context, p *ast.Pipeline) (int64, error) {
	return tx.client.count(ctx, tx.Tx, p)
}

// Raw runs hand-written SQL in the transaction.
func (tx *Tx) Raw(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.client.raw(ctx, tx.Tx, query, args)
}

// NestedTransaction runs fn behind a savepoint. An error from fn rolls back
// to the savepoint and leaves the outer transaction usable. SQL Server has
// no savepoint release, so a successful fn needs no further statement.
func (tx *Tx) NestedTransaction(ctx context.Context, fn TransactionFunc) error {
	tx.depth++
	defer func() { tx.depth-- }()
	savepoint := fmt.Sprintf("sp_%d", tx.depth)

	if _, err := tx.ExecContext(ctx, "SAVE TRANSACTION "+savepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_, _ = tx.ExecContext(ctx, "ROLLBACK TRANSACTION "+savepoint)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TRANSACTION "+savepoint); rbErr != nil {
			return fmt.Errorf("nested transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return nil
}
