package compiler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
)

// CompileAll compiles independent pipelines concurrently. Results are in
// input order. The first failure cancels the remaining work and is returned.
func (c *Compiler) CompileAll(ctx context.Context, pipelines []*ast.Pipeline) ([]*sqlgen.Query, error) {
	results := make([]*sqlgen.Query, len(pipelines))

	eg, egctx := errgroup.WithContext(ctx)
	for i, p := range pipelines {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			q, err := c.Compile(p)
			if err != nil {
				return fmt.Errorf("pipeline %d: %w", i, err)
			}
			results[i] = q
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
