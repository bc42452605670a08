// Package report collects bench results as Arrow records and exports them
// to Parquet.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"

	afcerrors "github.com/dzidzitop/libafc/internal/errors"
)

// Result is one worker's outcome for one growth policy. It doubles as the
// Parquet row type.
type Result struct {
	RunID         string `parquet:"run_id"`
	Worker        int32  `parquet:"worker"`
	Policy        string `parquet:"policy"`
	Records       int64  `parquet:"records"`
	Bytes         int64  `parquet:"bytes"`
	Grows         int64  `parquet:"grows"`
	DurationNanos int64  `parquet:"duration_ns"`
	Checksum      uint64 `parquet:"checksum"`
}

// Schema is the Arrow layout of a results record.
var Schema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "run_id", Type: arrow.BinaryTypes.String},
		{Name: "worker", Type: arrow.PrimitiveTypes.Int32},
		{Name: "policy", Type: arrow.BinaryTypes.String},
		{Name: "records", Type: arrow.PrimitiveTypes.Int64},
		{Name: "bytes", Type: arrow.PrimitiveTypes.Int64},
		{Name: "grows", Type: arrow.PrimitiveTypes.Int64},
		{Name: "duration_ns", Type: arrow.PrimitiveTypes.Int64},
		{Name: "checksum", Type: arrow.PrimitiveTypes.Uint64},
	},
	nil,
)

// Builder accumulates results into an Arrow record. It is not safe for
// concurrent use.
type Builder struct {
	b *array.RecordBuilder
}

// NewBuilder returns a Builder allocating from mem.
func NewBuilder(mem memory.Allocator) *Builder {
	return &Builder{b: array.NewRecordBuilder(mem, Schema)}
}

// Append adds one result row.
func (b *Builder) Append(r Result) {
	b.b.Field(0).(*array.StringBuilder).Append(r.RunID)
	b.b.Field(1).(*array.Int32Builder).Append(r.Worker)
	b.b.Field(2).(*array.StringBuilder).Append(r.Policy)
	b.b.Field(3).(*array.Int64Builder).Append(r.Records)
	b.b.Field(4).(*array.Int64Builder).Append(r.Bytes)
	b.b.Field(5).(*array.Int64Builder).Append(r.Grows)
	b.b.Field(6).(*array.Int64Builder).Append(r.DurationNanos)
	b.b.Field(7).(*array.Uint64Builder).Append(r.Checksum)
}

// NewRecord returns the rows appended so far and resets the builder.
func (b *Builder) NewRecord() arrow.Record {
	return b.b.NewRecord()
}

// Release frees the builder's memory.
func (b *Builder) Release() {
	b.b.Release()
}

// Rows converts a results record back to rows.
func Rows(rec arrow.Record) ([]Result, error) {
	if !rec.Schema().Equal(Schema) {
		return nil, fmt.Errorf("unexpected schema: %s", rec.Schema())
	}
	runIDs := rec.Column(0).(*array.String)
	workers := rec.Column(1).(*array.Int32)
	policies := rec.Column(2).(*array.String)
	records := rec.Column(3).(*array.Int64)
	sizes := rec.Column(4).(*array.Int64)
	grows := rec.Column(5).(*array.Int64)
	durations := rec.Column(6).(*array.Int64)
	checksums := rec.Column(7).(*array.Uint64)

	rows := make([]Result, rec.NumRows())
	for i := range rows {
		rows[i] = Result{
			RunID:         runIDs.Value(i),
			Worker:        workers.Value(i),
			Policy:        policies.Value(i),
			Records:       records.Value(i),
			Bytes:         sizes.Value(i),
			Grows:         grows.Value(i),
			DurationNanos: durations.Value(i),
			Checksum:      checksums.Value(i),
		}
	}
	return rows, nil
}

// WriteParquet writes one or more results records to w as a single
// Zstd-compressed Parquet file.
func WriteParquet(w io.Writer, recs ...arrow.Record) error {
	pw := parquet.NewGenericWriter[Result](w, parquet.Compression(&parquet.Zstd))
	defer func() {
		// Best effort close on early return
		_ = pw.Close()
	}()

	for _, rec := range recs {
		if rec.NumRows() == 0 {
			continue
		}
		rows, err := Rows(rec)
		if err != nil {
			return err
		}
		if _, err := pw.Write(rows); err != nil {
			return err
		}
	}
	return pw.Close()
}

// WriteFile writes recs to a Parquet file at path.
func WriteFile(path string, recs ...arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return afcerrors.WrapStorageError(err, "write_report", "creating report file")
	}
	if err := WriteParquet(f, recs...); err != nil {
		_ = f.Close()
		return afcerrors.WrapStorageError(err, "write_report", "writing parquet").
			WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return afcerrors.WrapStorageError(err, "write_report", "closing report file")
	}
	return nil
}

// ReadFile reads a Parquet report back into a results record allocated
// from mem.
func ReadFile(path string, mem memory.Allocator) (arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, afcerrors.WrapStorageError(err, "read_report", "opening report file")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, afcerrors.WrapStorageError(err, "read_report", "stat report file")
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, afcerrors.WrapStorageError(err, "read_report", "opening parquet")
	}

	pr := parquet.NewGenericReader[Result](pf)
	defer pr.Close()
	rows := make([]Result, pr.NumRows())
	n, err := pr.Read(rows)
	if err != nil && err != io.EOF {
		return nil, afcerrors.WrapStorageError(err, "read_report", "reading rows")
	}
	rows = rows[:n]

	b := NewBuilder(mem)
	defer b.Release()
	for _, r := range rows {
		b.Append(r)
	}
	return b.NewRecord(), nil
}
