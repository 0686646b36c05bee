package feeschedule

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/db"
	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

const readBatchSize = 1024

// PipelineError wraps an error with the ingest phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Summary captures metrics from a single fee-schedule ingest run.
type Summary struct {
	FilePath       string
	FileSHA256     string
	IngestBatchID  string
	RowsRead       int64
	RowsStaged     int64
	RowsRejected   int64
	RowsUpserted   int64
	AlreadyLoaded  bool
	DurationStage  time.Duration
	DurationMerge  time.Duration
	DurationTotal  time.Duration
}

// Ingest runs the full pipeline: preflight -> stage -> merge -> register ->
// cleanup. Re-ingesting a file whose SHA-256 is already recorded is a no-op
// unless force is set.
func Ingest(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, path string, force bool) (*Summary, error) {
	totalStart := time.Now()

	// Preflight: hash, dedup check, schema validation.
	sha, err := normalize.FileHash(path)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	var loaded bool
	err = pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM billing.fee_schedule_files WHERE source_file_sha256 = $1)",
		sha,
	).Scan(&loaded)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: fmt.Errorf("dedup check: %w", err)}
	}
	if loaded && !force {
		log.Info().Str("sha256", sha).Msg("file already ingested, skipping (use --force to re-ingest)")
		return &Summary{
			FilePath:      path,
			FileSHA256:    sha,
			AlreadyLoaded: true,
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	reader, err := Open(path)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}
	defer reader.Close()

	if err := ValidateSchema(reader.Schema()); err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	batchID := uuid.New()
	log.Info().
		Str("file", filepath.Base(path)).
		Str("sha256", sha).
		Int64("rows", reader.NumRows()).
		Str("batch", batchID.String()).
		Msg("preflight complete")

	// Stage: stream Parquet -> normalize -> COPY via channel-backed source.
	stageStart := time.Now()
	ch := make(chan *model.StageFeeRate, readBatchSize)
	errCh := make(chan error, 1)

	var rowsRead, rowsRejected int64

	go func() {
		defer close(ch)
		buf := make([]Row, readBatchSize)
		var rowNum int64

		for {
			n, readErr := reader.Read(buf)
			for i := 0; i < n; i++ {
				rowNum++
				rowsRead++

				staged, normErr := ToStageRow(&buf[i], batchID, rowNum)
				if normErr != nil {
					rowsRejected++
					log.Warn().Err(normErr).Int64("row", rowNum).Msg("row rejected")
					continue
				}

				select {
				case ch <- staged:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- fmt.Errorf("read parquet at row %d: %w", rowNum, readErr)
				return
			}
		}
		errCh <- nil
	}()

	source := db.NewChannelSource(ch)
	rowsStaged, copyErr := pool.CopyFrom(ctx,
		pgx.Identifier{"billing", "stage_fee_rates"},
		model.StageColumns(),
		source,
	)

	prodErr := <-errCh
	if prodErr != nil {
		return nil, &PipelineError{Phase: "stage", Err: prodErr}
	}
	if copyErr != nil {
		return nil, &PipelineError{Phase: "stage", Err: copyErr}
	}
	stageDur := time.Since(stageStart)

	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_staged", rowsStaged).
		Int64("rows_rejected", rowsRejected).
		Str("duration", stageDur.String()).
		Msg("staging complete")

	// Merge: upsert staged rows into payer_rates. Last write per key wins.
	mergeStart := time.Now()
	rowsUpserted, err := merge(ctx, pool, batchID)
	if err != nil {
		_ = cleanup(ctx, pool, batchID)
		return nil, &PipelineError{Phase: "merge", Err: err}
	}
	mergeDur := time.Since(mergeStart)

	log.Info().
		Int64("rows_upserted", rowsUpserted).
		Str("duration", mergeDur.String()).
		Msg("merge complete")

	// Register the file for dedup.
	firstPayer, _ := firstStagedPayer(ctx, pool, batchID)
	_, err = pool.Exec(ctx, `
		INSERT INTO billing.fee_schedule_files (source_file_name, source_file_sha256, payer_display, rows_loaded)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_file_sha256) DO UPDATE SET rows_loaded = EXCLUDED.rows_loaded, loaded_at = now()`,
		filepath.Base(path), sha, firstPayer, rowsUpserted,
	)
	if err != nil {
		return nil, &PipelineError{Phase: "register", Err: err}
	}

	if err := cleanup(ctx, pool, batchID); err != nil {
		log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
	}

	summary := &Summary{
		FilePath:      path,
		FileSHA256:    sha,
		IngestBatchID: batchID.String(),
		RowsRead:      rowsRead,
		RowsStaged:    rowsStaged,
		RowsRejected:  rowsRejected,
		RowsUpserted:  rowsUpserted,
		DurationStage: stageDur,
		DurationMerge: mergeDur,
		DurationTotal: time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("rows_upserted", summary.RowsUpserted).
		Int64("rows_rejected", summary.RowsRejected).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("fee-schedule ingest complete")

	return summary, nil
}

// merge upserts one batch of staged rows into billing.payer_rates. Within a
// batch, the highest source_row_number per (payer, code) wins, matching the
// newer-overwrites-older contract.
func merge(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (int64, error) {
	tag, err := pool.Exec(ctx, `
		INSERT INTO billing.payer_rates
		  (payer_norm, payer_display, code, in_network_cents, out_network_cents,
		   coinsurance_bps, copay_cents, deductible_applies, effective_date, updated_at)
		SELECT DISTINCT ON (payer_norm, code)
		  payer_norm, payer_display, code, in_network_cents, out_network_cents,
		  coinsurance_bps, copay_cents, deductible_applies, effective_date, now()
		FROM billing.stage_fee_rates
		WHERE ingest_batch_id = $1
		ORDER BY payer_norm, code, source_row_number DESC
		ON CONFLICT (payer_norm, code) DO UPDATE SET
		  payer_display      = EXCLUDED.payer_display,
		  in_network_cents   = EXCLUDED.in_network_cents,
		  out_network_cents  = EXCLUDED.out_network_cents,
		  coinsurance_bps    = EXCLUDED.coinsurance_bps,
		  copay_cents        = EXCLUDED.copay_cents,
		  deductible_applies = EXCLUDED.deductible_applies,
		  effective_date     = EXCLUDED.effective_date,
		  updated_at         = now()`,
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("merge staged rates: %w", err)
	}
	return tag.RowsAffected(), nil
}

func firstStagedPayer(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (*string, error) {
	var payer *string
	err := pool.QueryRow(ctx,
		"SELECT payer_display FROM billing.stage_fee_rates WHERE ingest_batch_id = $1 ORDER BY source_row_number LIMIT 1",
		batchID,
	).Scan(&payer)
	if err != nil {
		return nil, err
	}
	return payer, nil
}

func cleanup(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) error {
	_, err := pool.Exec(ctx,
		"DELETE FROM billing.stage_fee_rates WHERE ingest_batch_id = $1",
		batchID,
	)
	return err
}
