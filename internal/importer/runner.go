package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emrflow/emrflow/internal/platform/telemetry"
)

// Runner is the batch driver: it fans rows out across a small worker pool,
// one Persist call per row, and aggregates the Results. Rows are
// independent; no ordering is guaranteed across them, but the report lists
// results in input order.
type Runner struct {
	persister *Persister
	workers   int
	log       zerolog.Logger
	metrics   *telemetry.Metrics
}

func NewRunner(persister *Persister, workers int, log zerolog.Logger, metrics *telemetry.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		persister: persister,
		workers:   workers,
		log:       log,
		metrics:   metrics,
	}
}

// Report aggregates one batch's outcomes.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []*Result
}

// Run processes every row and always returns a complete report; a failing
// row never stops the batch.
func (r *Runner) Run(ctx context.Context, rows []*Row) *Report {
	started := time.Now()
	results := make([]*Result, len(rows))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = r.persistOne(ctx, rows[i])
			}
		}()
	}
	for i := range rows {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	report := &Report{Total: len(rows), Results: results}
	for _, res := range results {
		if res.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	r.log.Info().
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("import batch finished")

	return report
}

// persistOne runs one row and records its metrics. The recover is a second
// barrier behind the persister's own: a panic in a worker goroutine would
// otherwise take down the whole process, not just the batch.
func (r *Runner) persistOne(ctx context.Context, row *Row) (result *Result) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			if row == nil {
				row = &Row{}
			}
			result = &Result{Row: row, Err: fmt.Errorf("unexpected fault processing row %q: %v", row.PatientIdentifier, rec)}
		}
		if r.metrics != nil {
			outcome := "success"
			if !result.Succeeded() {
				outcome = "failure"
			}
			r.metrics.RowsProcessed.WithLabelValues(outcome).Inc()
			r.metrics.RowDuration.Observe(time.Since(started).Seconds())
		}
	}()

	return r.persister.Persist(ctx, row)
}
