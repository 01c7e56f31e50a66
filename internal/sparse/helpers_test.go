package sparse

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// codecTypes covers every supported element width plus strings.
var codecTypes = []tensor.DataType{
	tensor.Bool, tensor.Int8, tensor.Uint8,
	tensor.Int16, tensor.Float16, tensor.BFloat16,
	tensor.Int32, tensor.Float32,
	tensor.Int64, tensor.Float64, tensor.Complex64,
	tensor.String,
}

func hostConverter() (*Converter, memory.Allocator) {
	return New(DefaultConfig()), memory.NewHostAllocator()
}

// randomDense fills a host tensor so that roughly density of its elements are non-zero.
func randomDense(t *testing.T, rng *rand.Rand, shape tensor.Shape, dt tensor.DataType, density float64) *tensor.Dense {
	t.Helper()
	d, err := tensor.Zeros(shape, dt)
	require.NoError(t, err)
	n := d.NumElements()
	if dt.IsString() {
		strs := d.Strings()
		for i := range n {
			if rng.Float64() < density {
				strs[i] = string(rune('a'+rng.Intn(26))) + string(rune('a'+rng.Intn(26)))
			}
		}
		return d
	}
	size := dt.Size()
	raw := d.Bytes()
	for i := range n {
		if rng.Float64() < density {
			elem := raw[i*size : (i+1)*size]
			rng.Read(elem)
			elem[0] |= 1
		}
	}
	return d
}

// countNonZero counts non-zero elements bitwise.
func countNonZero(d *tensor.Dense) int {
	if d.DType().IsString() {
		n := 0
		for _, s := range d.Strings() {
			if s != "" {
				n++
			}
		}
		return n
	}
	size := d.DType().Size()
	zero := make([]byte, size)
	raw := d.Bytes()
	n := 0
	for i := range d.NumElements() {
		if !bytes.Equal(raw[i*size:(i+1)*size], zero) {
			n++
		}
	}
	return n
}

func assertDenseEqual(t *testing.T, want, got *tensor.Dense) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	require.Equal(t, want.DType(), got.DType())
	if want.DType().IsString() {
		assert.Equal(t, want.Strings(), got.Strings())
		return
	}
	assert.Equal(t, want.Bytes(), got.Bytes())
}

// assertCSRInvariant checks outer has rows+1 entries, starts at 0, ends at nnz
// and never decreases.
func assertCSRInvariant(t *testing.T, s *tensor.Sparse) {
	t.Helper()
	rows, _, err := s.Shape().Matrix()
	require.NoError(t, err)
	outer := s.OuterIndices()
	require.Len(t, outer, rows+1)
	assert.Equal(t, int64(0), outer[0])
	assert.Equal(t, int64(s.NumValues()), outer[rows])
	for r := 1; r <= rows; r++ {
		assert.GreaterOrEqual(t, outer[r], outer[r-1], "outer[%d]", r)
	}
}

// cellKey is a coordinate plus the raw bytes of its value.
type cellKey struct {
	row, col int64
	value    string
}

// cells returns the (row, col, value) set of a host sparse tensor.
func cells(t *testing.T, s *tensor.Sparse) map[cellKey]bool {
	t.Helper()
	_, cols, err := s.Shape().Matrix()
	require.NoError(t, err)
	out := make(map[cellKey]bool, s.NumValues())
	err = forEachCoordinate(s, cols, func(row, col int64, offset int) error {
		out[cellKey{row: row, col: col, value: valueAt(s.Values(), offset)}] = true
		return nil
	})
	require.NoError(t, err)
	return out
}

func valueAt(b *tensor.Buffer, i int) string {
	if b.DType().IsString() {
		return b.Strings()[i]
	}
	size := b.DType().Size()
	return string(b.Bytes()[i*size : (i+1)*size])
}

func float32Values(s *tensor.Sparse) []float32 {
	return tensor.View[float32](s.Values())
}
