package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dzidzitop/libafc/internal/conststr"
	"github.com/dzidzitop/libafc/internal/fastbuf"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/metrics"
	"github.com/dzidzitop/libafc/internal/numfmt"
	"github.com/dzidzitop/libafc/internal/pool"
	"github.com/dzidzitop/libafc/internal/report"
)

// flushThreshold is the batch size, in bytes, at which a batch is hashed
// and cleared.
const flushThreshold = 64 << 10

var (
	keyID    = conststr.Of("id=")
	keySeq   = conststr.Of(",seq=")
	keyValue = conststr.Of(",value=")
	keyOK    = conststr.Of(",ok=")
	keyTag   = conststr.Of(",tag=")
	tags     = []conststr.Ref{conststr.Of("alpha"), conststr.Of("beta"), conststr.Of("gamma")}
)

// benchNamespace seeds the record identifiers so every policy sees the
// same records.
var benchNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// record is one synthetic row of the workload.
type record struct {
	id    uuid.UUID
	seq   int64
	value float64
	ok    bool
	tag   conststr.Ref
}

// newWorkerRand returns the record generator of a worker. Every policy run
// by the worker starts from the same seed.
func newWorkerRand(worker int) *rand.Rand {
	return rand.New(rand.NewSource(int64(worker)))
}

func makeRecord(rng *rand.Rand, worker, seq int) record {
	var key [16]byte
	key[0], key[1] = byte(worker), byte(worker>>8)
	for i := 0; i < 8; i++ {
		key[8+i] = byte(seq >> (8 * i))
	}
	return record{
		id:    uuid.NewSHA1(benchNamespace, key[:]),
		seq:   int64(seq),
		value: rng.NormFloat64() * 1e6,
		ok:    rng.Intn(2) == 0,
		tag:   tags[rng.Intn(len(tags))],
	}
}

// workload serializes the same records under one growth policy.
type workload struct {
	runID   string
	worker  int
	records int
	initial int
	alloc   memory.Allocator
	logger  zerolog.Logger
}

// runPolicy serializes w.records records into a batch buffer of policy P and
// returns the result row. Records are assembled in pooled scratch buffers
// and copied into the batch, which is hashed every flushThreshold bytes.
func runPolicy[P growth.Policy](ctx context.Context, w *workload, lines *pool.BufferPool[byte, P]) (report.Result, error) {
	batch, err := fastbuf.NewWithCapacity[byte, P](w.initial,
		fastbuf.WithAllocator(w.alloc), fastbuf.WithLogger(w.logger))
	if err != nil {
		return report.Result{}, err
	}
	defer batch.Release()

	policy := batch.Policy()
	digest := xxhash.New()
	rng := newWorkerRand(w.worker)
	start := time.Now()

	var grows, written int64
	done := 0
	for ; done < w.records; done++ {
		if done%256 == 0 && ctx.Err() != nil {
			break
		}

		line := lines.Get()
		err := encodeRecord(line, makeRecord(rng, w.worker, done))
		if err == nil {
			before := batch.Cap()
			if err = batch.Grow(line.Len()); err == nil {
				err = batch.Append(line.View()...)
			}
			if batch.Cap() != before {
				grows++
			}
		}
		lines.Put(line)
		if err != nil {
			return report.Result{}, err
		}

		if batch.Len() >= flushThreshold {
			written += int64(batch.Len())
			_, _ = digest.Write(batch.View())
			batch.Clear()
		}
	}

	// Hand the last batch block over instead of copying it out.
	tail, err := batch.Detach()
	if err != nil {
		return report.Result{}, err
	}
	written += int64(tail.Len())
	_, _ = digest.Write(tail.Elements())
	tail.Release()

	metrics.BenchRecordsTotal.WithLabelValues(policy).Add(float64(done))
	metrics.BenchBytesTotal.WithLabelValues(policy).Add(float64(written))

	return report.Result{
		RunID:         w.runID,
		Worker:        int32(w.worker),
		Policy:        policy,
		Records:       int64(done),
		Bytes:         written,
		Grows:         grows,
		DurationNanos: time.Since(start).Nanoseconds(),
		Checksum:      digest.Sum64(),
	}, nil
}

// encodeRecord writes r as a single line:
//
//	id=<uuid>,seq=<n>,value=<float>,ok=<bool>,tag=<name>\n
func encodeRecord[P growth.Policy](b *fastbuf.Buffer[byte, P], r record) error {
	// Fixed-width parts first; numbers grow the buffer themselves.
	if err := b.Grow(keyID.Size() + 36 + keySeq.Size()); err != nil {
		return err
	}
	if err := fastbuf.AppendLiteral(b, keyID); err != nil {
		return err
	}
	if err := b.Produce(36, func(dst []byte) int {
		return copy(dst, r.id.String())
	}); err != nil {
		return err
	}
	if err := fastbuf.AppendLiteral(b, keySeq); err != nil {
		return err
	}
	if err := numfmt.AppendInt(b, r.seq, 10); err != nil {
		return err
	}
	if err := appendLiteral(b, keyValue); err != nil {
		return err
	}
	if err := numfmt.AppendFloat(b, r.value, 'g', -1, 64); err != nil {
		return err
	}
	if err := appendLiteral(b, keyOK); err != nil {
		return err
	}
	if err := numfmt.AppendBool(b, r.ok); err != nil {
		return err
	}
	if err := appendLiteral(b, keyTag); err != nil {
		return err
	}
	if err := appendLiteral(b, r.tag); err != nil {
		return err
	}
	if err := b.ReserveForOne(); err != nil {
		return err
	}
	return b.AppendOne('\n')
}

func appendLiteral[P growth.Policy](b *fastbuf.Buffer[byte, P], lit conststr.Ref) error {
	if err := b.Grow(lit.Size()); err != nil {
		return err
	}
	return fastbuf.AppendLiteral(b, lit)
}
