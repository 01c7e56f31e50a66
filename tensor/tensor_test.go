// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/sparse/tensor"
)

// TestDenseAPI verifies the Dense alias exposes the expected API.
func TestDenseAPI(t *testing.T) {
	d, err := tensor.FromSlice([]float32{0, 5, 3, 0}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	defer d.Release()

	if !d.Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("Shape() = %v, want [2 2]", d.Shape())
	}
	if d.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", d.DType())
	}
	if d.Location() != tensor.Host {
		t.Errorf("Location() = %v, want host", d.Location())
	}
	if got := d.AsFloat32()[1]; got != 5 {
		t.Errorf("AsFloat32()[1] = %v, want 5", got)
	}
}

// TestSparseAPI verifies the Sparse alias exposes the expected API.
func TestSparseAPI(t *testing.T) {
	s, err := tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, []int64{1, 0}, []int64{0, 1, 2})
	if err != nil {
		t.Fatalf("CSRFromSlices failed: %v", err)
	}
	defer s.Release()

	if s.Format() != tensor.CSR {
		t.Errorf("Format() = %v, want CSR", s.Format())
	}
	if s.NumValues() != 2 {
		t.Errorf("NumValues() = %d, want 2", s.NumValues())
	}
	if got := tensor.View[float32](s.Values()); got[0] != 5 || got[1] != 3 {
		t.Errorf("values = %v, want [5 3]", got)
	}
}

// TestErrors verifies sentinel errors are shared with the implementation.
func TestErrors(t *testing.T) {
	_, err := tensor.COOFromSlices(tensor.Shape{2, 2, 2}, []int32{1}, []int64{0}, true)
	if !errors.Is(err, tensor.ErrUnsupportedRank) {
		t.Errorf("error = %v, want ErrUnsupportedRank", err)
	}
	if dt, ok := tensor.ParseDataType("int16"); !ok || dt != tensor.Int16 {
		t.Errorf("ParseDataType(int16) = %v, %v", dt, ok)
	}
}

// TestSaveLoad verifies tensors survive a trip through a file.
func TestSaveLoad(t *testing.T) {
	csr, err := tensor.CSRFromSlices(tensor.Shape{2, 3}, []float64{1.5, -2}, []int64{2, 0}, []int64{0, 1, 2})
	if err != nil {
		t.Fatalf("CSRFromSlices failed: %v", err)
	}
	defer csr.Release()

	path := filepath.Join(t.TempDir(), "m.spt")
	if err := tensor.Save(path, []tensor.Entry{{Name: "m", Sparse: csr}}, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, header, err := tensor.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer tensor.ReleaseEntries(entries)

	if len(entries) != 1 || len(header.Tensors) != 1 || header.Tensors[0].Layout != "csr" {
		t.Fatalf("unexpected file contents: %+v", header)
	}
	want, _ := csr.Fingerprint()
	got, err := entries[0].Sparse.Fingerprint()
	if err != nil || got != want {
		t.Errorf("fingerprint mismatch after load (err %v)", err)
	}

	if err := os.WriteFile(path, []byte("nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tensor.Load(path); !errors.Is(err, tensor.ErrTruncatedFile) {
		t.Errorf("Load of a short file: expected ErrTruncatedFile, got %v", err)
	}
}
