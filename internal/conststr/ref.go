// Package conststr wraps string literals whose length is known up front so
// they can be appended without recomputing anything.
package conststr

// Ref pairs a string with its length. It never allocates or copies.
type Ref struct {
	s string
}

// Of wraps s.
func Of(s string) Ref { return Ref{s: s} }

func (r Ref) Value() string  { return r.s }
func (r Ref) Size() int      { return len(r.s) }
func (r Ref) String() string { return r.s }
