// Package numfmt formats numbers straight into a buffer's borrowed tail.
//
// Unlike the buffer's own appends these helpers grow the buffer (by its
// policy) when the text does not fit.
package numfmt

import (
	"math/bits"
	"strconv"

	"github.com/dzidzitop/libafc/internal/errors"
	"github.com/dzidzitop/libafc/internal/fastbuf"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/metrics"
)

const smallsString = "00010203040506070809" +
	"10111213141516171819" +
	"20212223242526272829" +
	"30313233343536373839" +
	"40414243444546474849" +
	"50515253545556575859" +
	"60616263646566676869" +
	"70717273747576777879" +
	"80818283848586878889" +
	"90919293949596979899"

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// AppendInt appends v in the given base, 2 to 36, lower-case digits.
func AppendInt[T fastbuf.Char, P growth.Policy](b *fastbuf.Buffer[T, P], v int64, base int) error {
	u := uint64(v)
	neg := v < 0
	if neg {
		u = -u
	}
	return appendBits(b, "append_int", u, base, neg)
}

// AppendUint appends v in the given base, 2 to 36, lower-case digits.
func AppendUint[T fastbuf.Char, P growth.Policy](b *fastbuf.Buffer[T, P], v uint64, base int) error {
	return appendBits(b, "append_uint", v, base, false)
}

// AppendBool appends "true" or "false".
func AppendBool[T fastbuf.Char, P growth.Policy](b *fastbuf.Buffer[T, P], v bool) error {
	s := "false"
	if v {
		s = "true"
	}
	return b.Produce(len(s), func(dst []T) int {
		for i := 0; i < len(s); i++ {
			dst[i] = T(s[i])
		}
		return len(s)
	})
}

// AppendFloat appends f as formatted by strconv.AppendFloat. The text is
// produced in place when it fits the current tail; otherwise the buffer
// grows and the text is copied in.
func AppendFloat[P growth.Policy](b *fastbuf.Buffer[byte, P], f float64, fmt byte, prec, bitSize int) error {
	tail, err := b.BorrowTail()
	if err != nil {
		return err
	}
	out := strconv.AppendFloat(tail[:0], f, fmt, prec, bitSize)
	if len(out) <= cap(tail) {
		return b.ReturnTail(out)
	}

	// The producer outgrew the tail and allocated its own slice.
	if err := b.ReturnTail(nil); err != nil {
		return err
	}
	if err := b.Grow(len(out)); err != nil {
		return err
	}
	return b.Append(out...)
}

func appendBits[T fastbuf.Char, P growth.Policy](b *fastbuf.Buffer[T, P], op string, u uint64, base int, neg bool) error {
	if base < 2 || base > len(digits) {
		metrics.BufferContractViolationsTotal.WithLabelValues(op).Inc()
		return errors.Contract(errors.ErrOutOfRange, op, "base outside [2, 36]").
			WithContext("base", base)
	}

	n := digitCount(u, base)
	if neg {
		n++
	}
	return b.Produce(n, func(dst []T) int {
		i := n
		switch {
		case base == 10:
			for u >= 100 {
				is := u % 100 * 2
				u /= 100
				i -= 2
				dst[i+1] = T(smallsString[is+1])
				dst[i] = T(smallsString[is])
			}
			is := u * 2
			i--
			dst[i] = T(smallsString[is+1])
			if u >= 10 {
				i--
				dst[i] = T(smallsString[is])
			}
		case growth.IsPow2(base):
			shift := uint(bits.TrailingZeros(uint(base)))
			m := uint64(base) - 1
			for u >= uint64(base) {
				i--
				dst[i] = T(digits[u&m])
				u >>= shift
			}
			i--
			dst[i] = T(digits[u])
		default:
			d := uint64(base)
			for u >= d {
				i--
				q := u / d
				dst[i] = T(digits[u-q*d])
				u = q
			}
			i--
			dst[i] = T(digits[u])
		}
		if neg {
			i--
			dst[i] = '-'
		}
		return n
	})
}

// digitCount returns the number of digits of u in base.
func digitCount(u uint64, base int) int {
	if base == 10 {
		n := 1
		for u >= 100 {
			u /= 100
			n += 2
		}
		if u >= 10 {
			n++
		}
		return n
	}
	n := 1
	for b := uint64(base); u >= b; u /= b {
		n++
	}
	return n
}
