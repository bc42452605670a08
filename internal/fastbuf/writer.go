package fastbuf

import (
	"bytes"
	"io"

	"github.com/dzidzitop/libafc/internal/growth"
)

// Writer adapts a byte buffer to the io writer interfaces. Unlike the
// buffer's own appends it grows the buffer as needed.
type Writer[P growth.Policy] struct {
	buf *Buffer[byte, P]
}

var (
	_ io.Writer       = (*Writer[growth.Pow2])(nil)
	_ io.StringWriter = (*Writer[growth.Pow2])(nil)
	_ io.ByteWriter   = (*Writer[growth.Exact])(nil)
)

// NewWriter returns a Writer appending to buf.
func NewWriter[P growth.Policy](buf *Buffer[byte, P]) *Writer[P] {
	return &Writer[P]{buf: buf}
}

// Buffer returns the underlying buffer.
func (w *Writer[P]) Buffer() *Buffer[byte, P] { return w.buf }

func (w *Writer[P]) Write(p []byte) (int, error) {
	if len(p) > w.buf.Available() && w.buf.owns(p) {
		// Growing frees the block p points into.
		p = bytes.Clone(p)
	}
	if err := w.buf.Grow(len(p)); err != nil {
		return 0, err
	}
	if err := w.buf.Append(p...); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *Writer[P]) WriteString(s string) (int, error) {
	if err := w.buf.Grow(len(s)); err != nil {
		return 0, err
	}
	if err := AppendString(w.buf, s); err != nil {
		return 0, err
	}
	return len(s), nil
}

func (w *Writer[P]) WriteByte(c byte) error {
	if err := w.buf.ReserveForOne(); err != nil {
		return err
	}
	return w.buf.AppendOne(c)
}
