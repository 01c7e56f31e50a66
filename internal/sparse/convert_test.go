package sparse

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/born-ml/sparse/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCOOToCSR_Sorted(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{3, 3}, []float32{1, 2, 3}, []int64{1, 5, 6}, true)
	require.NoError(t, err)

	csr, err := c.COOToCSR(coo, host)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 0}, csr.InnerIndices())
	assert.Equal(t, []int64{0, 1, 2, 3}, csr.OuterIndices())
	assert.NotSame(t, coo.Values(), csr.Values())
}

func TestCOOToCSR_Unsorted(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{2, 3}, []float32{30, 10, 20}, []int64{1, 0, 0, 2, 0, 0}, false)
	require.NoError(t, err)

	csr, err := c.COOToCSR(coo, host)
	require.NoError(t, err)
	assert.Equal(t, []float32{20, 10, 30}, float32Values(csr))
	assert.Equal(t, []int64{0, 2, 0}, csr.InnerIndices())
	assert.Equal(t, []int64{0, 2, 3}, csr.OuterIndices())
	assertCSRInvariant(t, csr)
}

func TestCOOToCSR_Duplicate(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{1, 2}, []int64{3, 3}, true)
	require.NoError(t, err)

	_, err = c.COOToCSR(coo, host)
	require.ErrorIs(t, err, tensor.ErrDuplicateCoordinate)
}

func TestCOOToCSR_ColumnVector(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{4, 1}, []int32{7, 9}, []int64{1, 3}, true)
	require.NoError(t, err)

	csr, err := c.COOToCSR(coo, host)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0}, csr.InnerIndices())
	assert.Equal(t, []int64{0, 0, 1, 1, 2}, csr.OuterIndices())

	back, err := c.ToDense(csr, host)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 7, 0, 9}, back.AsInt32())
}

func TestCSRToCOO(t *testing.T) {
	c, host := hostConverter()
	csr, err := tensor.CSRFromSlices(tensor.Shape{3, 2}, []float32{4, 5, 6}, []int64{1, 0, 1}, []int64{0, 1, 1, 3})
	require.NoError(t, err)

	linear, err := c.CSRToCOO(csr, host, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 5}, linear.COOIndices())
	assert.NotSame(t, csr.Values(), linear.Values())

	pairs, err := c.CSRToCOO(csr, host, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 0, 2, 1}, pairs.COOIndices())

	oneD, err := tensor.CSRFromSlices(tensor.Shape{3}, []float32{1}, []int64{2}, []int64{0, 1})
	require.NoError(t, err)
	_, err = c.CSRToCOO(oneD, host, false)
	require.ErrorIs(t, err, tensor.ErrInvalidIndexMode)
}

func TestConversions_DoNotAliasInputValues(t *testing.T) {
	c, host := hostConverter()
	newCSR := func() *tensor.Sparse {
		s, err := tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, []int64{1, 0}, []int64{0, 1, 2})
		require.NoError(t, err)
		return s
	}
	newCOO := func(linear bool) *tensor.Sparse {
		indices := []int64{1, 2}
		if !linear {
			indices = []int64{0, 1, 1, 0}
		}
		s, err := tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, indices, linear)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name    string
		src     *tensor.Sparse
		convert func(*tensor.Sparse) (*tensor.Sparse, error)
	}{
		{"CSRToCOO/linear", newCSR(), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.CSRToCOO(s, host, true) }},
		{"CSRToCOO/2d", newCSR(), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.CSRToCOO(s, host, false) }},
		{"COOToCSR", newCOO(true), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.COOToCSR(s, host) }},
		{"ConvertCOOIndicesTo1D", newCOO(false), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.ConvertCOOIndicesTo1D(s, host) }},
		{"CopyCOO", newCOO(true), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.CopyCOO(s, host) }},
		{"Transpose/vector", func() *tensor.Sparse {
			s, err := tensor.COOFromSlices(tensor.Shape{1, 4}, []float32{5, 3}, []int64{1, 2}, true)
			require.NoError(t, err)
			return s
		}(), func(s *tensor.Sparse) (*tensor.Sparse, error) { return c.Transpose(s, host) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.convert(tt.src)
			require.NoError(t, err)
			defer out.Release()

			tensor.View[float32](out.Values())[0] = 99
			assert.Equal(t, []float32{5, 3}, float32Values(tt.src))
			assert.True(t, tt.src.Values().IsUnique(), "result must not hold a reference to the input values")
		})
	}
}

func TestInterconversion(t *testing.T) {
	c, host := hostConverter()
	rng := rand.New(rand.NewSource(11))

	for _, shape := range []tensor.Shape{{6, 6}, {3, 10}, {10, 3}, {1, 8}, {8, 1}, {7}} {
		d := randomDense(t, rng, shape, tensor.Float32, 0.4)

		coo, err := c.DenseToCOO(d, host, true)
		require.NoError(t, err)
		csr, err := c.DenseToCSR(d, host)
		require.NoError(t, err)

		fromCOO, err := c.COOToCSR(coo, host)
		require.NoError(t, err)
		assert.Equal(t, csr.InnerIndices(), fromCOO.InnerIndices(), "%v", shape)
		assert.Equal(t, csr.OuterIndices(), fromCOO.OuterIndices(), "%v", shape)
		assert.Equal(t, cells(t, coo), cells(t, fromCOO))

		fromCSR, err := c.CSRToCOO(csr, host, true)
		require.NoError(t, err)
		assert.Equal(t, coo.COOIndices(), fromCSR.COOIndices(), "%v", shape)
		assert.Equal(t, cells(t, csr), cells(t, fromCSR))
	}
}

func TestInterconversion_Shuffled(t *testing.T) {
	c, host := hostConverter()
	rng := rand.New(rand.NewSource(5))
	d := randomDense(t, rng, tensor.Shape{9, 5}, tensor.Int16, 0.5)

	sorted, err := c.DenseToCOO(d, host, false)
	require.NoError(t, err)
	n := sorted.NumValues()
	values := tensor.View[int16](sorted.Values())
	indices := sorted.COOIndices()

	perm := rng.Perm(n)
	shuffledValues := make([]int16, n)
	shuffledIndices := make([]int64, 2*n)
	for i, p := range perm {
		shuffledValues[i] = values[p]
		shuffledIndices[2*i], shuffledIndices[2*i+1] = indices[2*p], indices[2*p+1]
	}
	shuffled, err := tensor.COOFromSlices(tensor.Shape{9, 5}, shuffledValues, shuffledIndices, false)
	require.NoError(t, err)

	csr, err := c.COOToCSR(shuffled, host)
	require.NoError(t, err)
	want, err := c.DenseToCSR(d, host)
	require.NoError(t, err)
	assert.Equal(t, want.InnerIndices(), csr.InnerIndices())
	assert.Equal(t, want.OuterIndices(), csr.OuterIndices())
	assert.Equal(t, tensor.View[int16](want.Values()), tensor.View[int16](csr.Values()))
}

func TestTranspose(t *testing.T) {
	c, host := hostConverter()
	d, err := tensor.FromSlice([]float32{
		1, 0, 2,
		0, 3, 0,
	}, tensor.Shape{2, 3})
	require.NoError(t, err)
	csr, err := c.DenseToCSR(d, host)
	require.NoError(t, err)

	tr, err := c.Transpose(csr, host)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 3, 2}, float32Values(tr))
	assert.Equal(t, []int64{0, 1, 0}, tr.InnerIndices())
	assert.Equal(t, []int64{0, 1, 2, 3}, tr.OuterIndices())
	assertCSRInvariant(t, tr)

	dense, err := c.ToDense(tr, host)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 3, 2, 0}, dense.AsFloat32())

	again, err := c.Transpose(tr, host)
	require.NoError(t, err)
	assert.Equal(t, csr.Shape(), again.Shape())
	assert.Equal(t, csr.InnerIndices(), again.InnerIndices())
	assert.Equal(t, csr.OuterIndices(), again.OuterIndices())
	assert.Equal(t, float32Values(csr), float32Values(again))
}

func TestTranspose_Random(t *testing.T) {
	c, host := hostConverter()
	rng := rand.New(rand.NewSource(3))

	for _, dt := range []tensor.DataType{tensor.Uint8, tensor.Float16, tensor.Float32, tensor.Int64, tensor.String} {
		for _, shape := range []tensor.Shape{{4, 7}, {7, 4}, {1, 5}, {5, 1}, {6}} {
			d := randomDense(t, rng, shape, dt, 0.35)
			coo, err := c.DenseToCOO(d, host, true)
			require.NoError(t, err)

			tr, err := c.Transpose(coo, host)
			require.NoError(t, err)
			rows, cols, err := shape.Matrix()
			require.NoError(t, err)
			require.Equal(t, tensor.Shape{cols, rows}, tr.Shape())
			assertCSRInvariant(t, tr)

			want := make(map[cellKey]bool)
			for k := range cells(t, coo) {
				want[cellKey{row: k.col, col: k.row, value: k.value}] = true
			}
			assert.Equal(t, want, cells(t, tr), "%s %v", dt, shape)

			back, err := c.Transpose(tr, host)
			require.NoError(t, err)
			restored, err := c.ToDense(back, host)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{rows, cols}, restored.Shape())
			if dt.IsString() {
				assert.Equal(t, d.Strings(), restored.Strings())
			} else {
				assert.Equal(t, d.Bytes(), restored.Bytes())
			}
		}
	}
}

func TestTranspose_Duplicate(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{1, 2}, []int64{0, 1, 0, 1}, false)
	require.NoError(t, err)

	_, err = c.Transpose(coo, host)
	require.ErrorIs(t, err, tensor.ErrDuplicateCoordinate)
}

func TestTranspose_Empty(t *testing.T) {
	c, host := hostConverter()
	csr, err := tensor.CSRFromSlices[float32](tensor.Shape{2, 4}, nil, nil, []int64{0})
	require.NoError(t, err)

	tr, err := c.Transpose(csr, host)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 2}, tr.Shape())
	assert.Equal(t, []int64{0, 0, 0, 0, 0}, tr.OuterIndices())
}

func TestCopyCOO(t *testing.T) {
	c, host := hostConverter()
	src, err := tensor.COOFromStrings(tensor.Shape{2, 2}, []string{"x", "y"}, []int64{0, 3}, true)
	require.NoError(t, err)

	cp, err := c.CopyCOO(src, host)
	require.NoError(t, err)
	assert.NotSame(t, src.Values(), cp.Values())
	assert.Equal(t, []string{"x", "y"}, cp.Values().Strings())
	assert.Equal(t, []int64{0, 3}, cp.COOIndices())

	cp.Values().Strings()[0] = "z"
	assert.Equal(t, "x", src.Values().Strings()[0])
}

func TestConvertCOOIndicesTo1D(t *testing.T) {
	c, host := hostConverter()
	src, err := tensor.COOFromSlices(tensor.Shape{3, 4}, []int32{1, 2}, []int64{1, 2, 2, 3}, false)
	require.NoError(t, err)

	out, err := c.ConvertCOOIndicesTo1D(src, host)
	require.NoError(t, err)
	assert.True(t, out.LinearIndices())
	assert.Equal(t, []int64{6, 11}, out.COOIndices())
	assert.Equal(t, []int32{1, 2}, tensor.View[int32](out.Values()))

	csr, err := tensor.CSRFromSlices(tensor.Shape{1, 1}, []int32{1}, []int64{0}, []int64{0, 1})
	require.NoError(t, err)
	_, err = c.ConvertCOOIndicesTo1D(csr, host)
	require.ErrorIs(t, err, tensor.ErrUnsupportedFormat)
}

func TestSparseToDense_Malformed(t *testing.T) {
	c, host := hostConverter()
	tests := []struct {
		name string
		make func() (*tensor.Sparse, error)
		want error
	}{
		{"outer too short", func() (*tensor.Sparse, error) {
			return tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{1}, []int64{0}, []int64{0, 1})
		}, tensor.ErrMalformedIndices},
		{"inner count", func() (*tensor.Sparse, error) {
			return tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{1, 2}, []int64{0}, []int64{0, 1, 2})
		}, tensor.ErrMalformedIndices},
		{"outer decreasing", func() (*tensor.Sparse, error) {
			return tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{1, 2}, []int64{0, 1}, []int64{0, 2, 1})
		}, tensor.ErrMalformedIndices},
		{"inner out of range", func() (*tensor.Sparse, error) {
			return tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{1}, []int64{2}, []int64{0, 1, 1})
		}, tensor.ErrIndexOutOfRange},
		{"linear out of range", func() (*tensor.Sparse, error) {
			return tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{1}, []int64{4}, true)
		}, tensor.ErrIndexOutOfRange},
		{"coordinate count", func() (*tensor.Sparse, error) {
			return tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{1}, []int64{0, 1, 1}, false)
		}, tensor.ErrMalformedIndices},
		{"row out of range", func() (*tensor.Sparse, error) {
			return tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{1}, []int64{2, 0}, false)
		}, tensor.ErrIndexOutOfRange},
		{"coordinates on 1-D", func() (*tensor.Sparse, error) {
			return tensor.COOFromSlices(tensor.Shape{4}, []float32{1}, []int64{0, 1}, false)
		}, tensor.ErrInvalidIndexMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.make()
			require.NoError(t, err)
			d, err := c.ToDense(s, host)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, d)
		})
	}
}

func TestSparseToDense_IndexErrorDetails(t *testing.T) {
	c, host := hostConverter()
	s, err := tensor.CSRFromSlices(tensor.Shape{2, 3}, []float32{1, 2}, []int64{0, 5}, []int64{0, 1, 2})
	require.NoError(t, err)

	_, err = c.CSRToDense(s, host)
	var ie *tensor.IndexError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "inner", ie.Array)
	assert.Equal(t, 1, ie.Position)
	assert.Equal(t, int64(5), ie.Value)
	assert.Equal(t, int64(3), ie.Limit)
}

func TestSparseToDense_ShortOuterWhenEmpty(t *testing.T) {
	c, host := hostConverter()
	s, err := tensor.CSRFromSlices[int8](tensor.Shape{3, 2}, nil, nil, []int64{0})
	require.NoError(t, err)

	d, err := c.CSRToDense(s, host)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 6), d.Bytes())
}

func TestSparseOps_WrongFormat(t *testing.T) {
	c, host := hostConverter()
	coo, err := tensor.COOFromSlices(tensor.Shape{1, 2}, []float32{1}, []int64{1}, true)
	require.NoError(t, err)

	_, err = c.CSRToDense(coo, host)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedFormat)
	_, err = c.CSRToCOO(coo, host, true)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedFormat)
}
