// Package loader imports the MovieLens CSV files into the catalog.
//
// Each file is read once, rows that fail to parse are skipped and counted,
// and accepted rows are copied in batches that commit independently. After
// every committed batch the number of consumed records is saved as a
// checkpoint, which a resumed run skips over.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/actuallystonmai/movie-search-service/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize     = 5000
	DefaultProgressEvery = 1000
	DefaultConcurrency   = 2
)

// Sink receives parsed rows. Implemented by repository.BulkWriter.
type Sink interface {
	Truncate(ctx context.Context, tables []string) error
	CopyBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// Checkpoints records how many records of a file are committed.
type Checkpoints interface {
	Get(ctx context.Context, file string) (int64, error)
	Set(ctx context.Context, file string, offset int64) error
	Clear(ctx context.Context) error
}

type Options struct {
	Dir           string
	Truncate      bool
	Resume        bool
	BatchSize     int
	ProgressEvery int
	Concurrency   int
	Tables        []Table
}

// Result summarises the import of one file.
type Result struct {
	Table    string
	Inserted int64
	Skipped  int64
	Resumed  int64
	Missing  bool
	Duration time.Duration
}

type Loader struct {
	sink        Sink
	checkpoints Checkpoints
	opts        Options
	log         zerolog.Logger
}

func New(sink Sink, checkpoints Checkpoints, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Tables == nil {
		opts.Tables = Tables
	}
	return &Loader{
		sink:        sink,
		checkpoints: checkpoints,
		opts:        opts,
		log:         logging.With("loader"),
	}
}

// Run imports every configured table. A failing table does not stop the
// others; the first error is returned once all imports have finished.
func (l *Loader) Run(ctx context.Context) ([]Result, error) {
	if l.opts.Truncate && l.opts.Resume {
		return nil, errors.New("truncate and resume cannot be combined")
	}

	if l.opts.Truncate {
		names := TableNames(l.opts.Tables)
		for _, name := range names {
			l.log.Info().Str("table", name).Msg("clearing table")
		}
		if err := l.sink.Truncate(ctx, names); err != nil {
			return nil, err
		}
		if err := l.checkpoints.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear checkpoints: %w", err)
		}
	}

	var (
		mu      sync.Mutex
		results = make([]Result, len(l.opts.Tables))
		g       errgroup.Group
	)
	g.SetLimit(l.opts.Concurrency)

	for i, table := range l.opts.Tables {
		g.Go(func() error {
			res, err := l.importTable(ctx, table)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			if err != nil {
				l.log.Error().Err(err).Str("table", table.Name).Msg("import failed")
				return fmt.Errorf("import %s: %w", table.File, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		l.log.Info().Msg("all data imported successfully")
	}
	return results, err
}

func (l *Loader) importTable(ctx context.Context, table Table) (Result, error) {
	path := filepath.Join(l.opts.Dir, table.File)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		l.log.Warn().Str("path", path).Msg("file not found")
		return Result{Table: table.Name, Missing: true}, nil
	}
	if err != nil {
		return Result{Table: table.Name}, err
	}
	defer f.Close()

	var offset int64
	if l.opts.Resume {
		if offset, err = l.checkpoints.Get(ctx, table.File); err != nil {
			return Result{Table: table.Name}, err
		}
	}

	l.log.Info().Str("file", table.File).Str("table", table.Name).Int64("resume_from", offset).Msg("importing")
	return l.ImportFile(ctx, table, f, offset)
}

// ImportFile reads a CSV stream with a header line, skipping the first
// offset records, and copies the remaining rows into the table.
func (l *Loader) ImportFile(ctx context.Context, table Table, r io.Reader, offset int64) (Result, error) {
	start := time.Now()
	res := Result{Table: table.Name, Resumed: offset}
	log := l.log.With().Str("table", table.Name).Logger()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		log.Warn().Msg("no header found, skipping")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(table.Columns) {
		return res, fmt.Errorf("header has %d columns, want %d", len(header), len(table.Columns))
	}

	var (
		consumed int64
		batch    = make([][]any, 0, l.opts.BatchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.sink.CopyBatch(ctx, table.Name, table.Columns, batch)
		if err != nil {
			return err
		}
		res.Inserted += n
		metrics.LoaderRowsInserted.WithLabelValues(table.Name).Add(float64(n))
		batch = batch[:0]

		if err := l.checkpoints.Set(ctx, table.File, consumed); err != nil {
			log.Warn().Err(err).Msg("failed to save checkpoint")
		}
		log.Info().Int64("rows", res.Inserted).Msg("committed rows so far")
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return res, fmt.Errorf("read record: %w", err)
		}

		consumed++
		if consumed <= offset {
			continue
		}

		if err == nil {
			var row []any
			if len(rec) != len(table.Columns) {
				err = fmt.Errorf("record has %d fields, want %d", len(rec), len(table.Columns))
			} else {
				row, err = table.Parse(rec)
			}
			if err == nil {
				batch = append(batch, row)
				if n := res.Inserted + int64(len(batch)); n%int64(l.opts.ProgressEvery) == 0 {
					log.Info().Int64("rows", n).Msg("rows parsed")
				}
			}
		}

		if err != nil {
			res.Skipped++
			metrics.LoaderRowsSkipped.WithLabelValues(table.Name).Inc()
			log.Warn().Err(err).Int64("record", consumed).Msg("skipping row")
			continue
		}

		if len(batch) >= l.opts.BatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}

	if err := flush(); err != nil {
		return res, err
	}
	if err := l.checkpoints.Set(ctx, table.File, consumed); err != nil {
		log.Warn().Err(err).Msg("failed to save checkpoint")
	}

	res.Duration = time.Since(start)
	log.Info().
		Int64("inserted", res.Inserted).
		Int64("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("finished importing")
	return res, nil
}
