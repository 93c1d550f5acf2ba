package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seijikohara/db-tester-sub006/internal/metrics"
	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// Executor applies datasets to one database.
type Executor struct {
	// Access is the database the dataset is applied to.
	Access dbaccess.Access

	// Logger receives per-table progress. Nil discards.
	Logger *slog.Logger

	// Metrics receives per-table observations. Nil discards.
	Metrics metrics.Recorder
}

// Apply writes ds to the database under op. Tables are visited in the
// given order, forward for writes and reversed for deletion-type
// operations; a nil order means dataset order. The first failing table
// aborts the run and its error reports the table, and where known the row.
func (e *Executor) Apply(ctx context.Context, ds *dataset.Dataset, op Operation, order *ordering.Order) error {
	if order == nil {
		order = ordering.NewOrder(ds.TableNames())
	}
	seq := order.Forward()
	if op.reversed() {
		seq = order.Reverse()
	}

	log := e.logger()
	rec := e.recorder()
	for _, name := range seq {
		tbl, ok := ds.Table(name)
		if !ok {
			continue
		}
		start := time.Now()
		err := e.applyTable(ctx, tbl, op)
		rec.Observe(ctx, op.String(), err == nil, time.Since(start))
		if err != nil {
			return e.wrap(name, op, err)
		}
		log.Debug("applied fixture table",
			"table", name,
			"operation", op.String(),
			"rows", len(tbl.Rows))
	}
	return nil
}

func (e *Executor) applyTable(ctx context.Context, t *dataset.Table, op Operation) error {
	switch op {
	case None:
		return nil
	case Update:
		return e.Access.UpdateRows(ctx, t)
	case Insert:
		return e.Access.InsertRows(ctx, t)
	case Refresh:
		return e.Access.MergeRows(ctx, t)
	case Delete:
		return e.Access.DeleteRows(ctx, t)
	case DeleteAll:
		return e.Access.DeleteAll(ctx, t.Name)
	case TruncateTable:
		return e.Access.Truncate(ctx, t.Name)
	case CleanInsert:
		if err := e.Access.DeleteAll(ctx, t.Name); err != nil {
			return err
		}
		return e.Access.InsertRows(ctx, t)
	case TruncateInsert:
		if err := e.Access.Truncate(ctx, t.Name); err != nil {
			return err
		}
		return e.Access.InsertRows(ctx, t)
	default:
		return fmt.Errorf("unknown operation %d", int(op))
	}
}

// wrap turns an access failure into the operation error model, keeping the
// row position when the access layer reported one.
func (e *Executor) wrap(table string, op Operation, err error) error {
	var rerr *dbaccess.RowError
	if errors.As(err, &rerr) {
		if errors.Is(rerr, dbaccess.ErrNoMatchingRow) {
			return &RowNotFoundError{Table: table, Row: rerr.Index}
		}
		return &ExecutionError{Table: table, Row: rerr.Index, Op: op, Err: rerr.Err}
	}
	return &ExecutionError{Table: table, Row: -1, Op: op, Err: err}
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Executor) recorder() metrics.Recorder {
	if e.Metrics != nil {
		return e.Metrics
	}
	return metrics.Nop()
}
