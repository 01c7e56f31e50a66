package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/tensor"
	"github.com/google/btree"
)

// cell is one stored value keyed by its coordinate along the grouping axis
// (primary) and the other axis (secondary).
type cell struct {
	primary   int64
	secondary int64
	offset    int // position of the value in the source tensor
}

func lessCell(a, b cell) bool {
	if a.primary != b.primary {
		return a.primary < b.primary
	}
	return a.secondary < b.secondary
}

// regrouper orders coordinates by (primary, secondary) as they are inserted,
// so iteration yields CSR order along the primary axis without a separate sort.
// A coordinate can be inserted once; a repeat is ErrDuplicateCoordinate.
type regrouper struct {
	tree *btree.BTreeG[cell]
}

func newRegrouper() *regrouper {
	return &regrouper{tree: btree.NewG(32, lessCell)}
}

func (g *regrouper) insert(primary, secondary int64, offset int) error {
	c := cell{primary: primary, secondary: secondary, offset: offset}
	if old, replaced := g.tree.ReplaceOrInsert(c); replaced {
		return fmt.Errorf("%w: (%d, %d) held by values %d and %d",
			tensor.ErrDuplicateCoordinate, primary, secondary, old.offset, offset)
	}
	return nil
}

// build emits CSR indices grouped by the primary axis, which has extent
// entries, plus the value mapping: position i of the result holds the source
// value at mapping[i].
func (g *regrouper) build(extent int) (inner, outer []int64, mapping []int) {
	n := g.tree.Len()
	inner = make([]int64, 0, n)
	mapping = make([]int, 0, n)
	outer = make([]int64, extent+1)
	g.tree.Ascend(func(c cell) bool {
		outer[c.primary+1]++
		inner = append(inner, c.secondary)
		mapping = append(mapping, c.offset)
		return true
	})
	for i := 1; i <= extent; i++ {
		outer[i] += outer[i-1]
	}
	return inner, outer, mapping
}

// forEachCoordinate calls fn with the (row, col) of every value of a validated
// host tensor, in storage order.
func forEachCoordinate(s *tensor.Sparse, cols int, fn func(row, col int64, offset int) error) error {
	switch s.Format() {
	case tensor.COO:
		indices := s.COOIndices()
		for i := range s.NumValues() {
			var row, col int64
			if s.LinearIndices() {
				row, col = indices[i]/int64(cols), indices[i]%int64(cols)
			} else {
				row, col = indices[2*i], indices[2*i+1]
			}
			if err := fn(row, col, i); err != nil {
				return err
			}
		}
	case tensor.CSR:
		inner, outer := s.InnerIndices(), s.OuterIndices()
		if len(inner) == 0 {
			return nil
		}
		for r := 0; r+1 < len(outer); r++ {
			for i := outer[r]; i < outer[r+1]; i++ {
				if err := fn(int64(r), inner[i], int(i)); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("%w: %s", tensor.ErrUnsupportedFormat, s.Format())
	}
	return nil
}
