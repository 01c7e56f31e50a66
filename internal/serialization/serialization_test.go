package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/sparse/internal/tensor"
)

// testEntries returns one tensor of each layout, including strings.
func testEntries(t *testing.T) []Entry {
	t.Helper()
	dense, err := tensor.FromSlice([]float32{0, 5, 3, 0}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	coo, err := tensor.COOFromSlices(tensor.Shape{2, 3}, []int16{7, -1}, []int64{0, 2, 1, 0}, false)
	if err != nil {
		t.Fatal(err)
	}
	csr, err := tensor.CSRFromStrings(tensor.Shape{2, 2}, []string{"héllo", ""}, []int64{1, 0}, []int64{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	return []Entry{
		{Name: "dense", Dense: dense},
		{Name: "coo", Sparse: coo},
		{Name: "csr", Sparse: csr},
	}
}

func writeBytes(t *testing.T, entries []Entry, metadata map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, entries, metadata); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	entries := testEntries(t)
	defer ReleaseAll(entries)
	path := filepath.Join(t.TempDir(), "tensors.spt")

	if err := WriteFile(path, entries, map[string]string{"source": "test"}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, header, err := ReadFile(path, ReaderOptions{})
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	defer ReleaseAll(loaded)

	if header.FormatVersion != FormatVersion || header.Metadata["source"] != "test" {
		t.Errorf("unexpected header %+v", header)
	}
	if len(loaded) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(loaded), len(entries))
	}
	for i, e := range entries {
		got := loaded[i]
		if got.Name != e.Name {
			t.Errorf("entry %d name = %q, want %q", i, got.Name, e.Name)
		}
		var want, have uint64
		if e.Dense != nil {
			want, _ = e.Dense.Fingerprint()
			have, err = got.Dense.Fingerprint()
		} else {
			want, _ = e.Sparse.Fingerprint()
			have, err = got.Sparse.Fingerprint()
		}
		if err != nil {
			t.Fatalf("%s: %v", e.Name, err)
		}
		if want != have {
			t.Errorf("%s: fingerprint changed across write and read", e.Name)
		}
	}
	if loaded[1].Sparse.LinearIndices() {
		t.Error("coo entry should keep 2-D indices")
	}
	if got := loaded[2].Sparse.Values().Strings(); got[0] != "héllo" || got[1] != "" {
		t.Errorf("strings = %q", got)
	}
}

func TestDataAlignment(t *testing.T) {
	entries := testEntries(t)
	defer ReleaseAll(entries)
	data := writeBytes(t, entries, nil)

	headerSize := binary.LittleEndian.Uint64(data[16:24])
	dataSize := binary.LittleEndian.Uint64(data[24:32])
	start := FixedHeaderSize + int(headerSize)
	start += int(padding(int64(start)))
	if start%HeaderAlignment != 0 {
		t.Errorf("data starts at %d, not %d-byte aligned", start, HeaderAlignment)
	}
	if uint64(len(data)-start) != dataSize {
		t.Errorf("data section is %d bytes, header says %d", len(data)-start, dataSize)
	}
}

func TestChecksumMismatch(t *testing.T) {
	entries := testEntries(t)
	defer ReleaseAll(entries)
	data := writeBytes(t, entries, nil)
	data[len(data)-1] ^= 0xFF

	if _, _, err := ReadFrom(bytes.NewReader(data), ReaderOptions{}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	loaded, _, err := ReadFrom(bytes.NewReader(data), ReaderOptions{SkipChecksumValidation: true})
	if err != nil {
		t.Fatalf("skipping the checksum should still load: %v", err)
	}
	ReleaseAll(loaded)
}

func TestReadErrors(t *testing.T) {
	entries := testEntries(t)
	defer ReleaseAll(entries)
	good := writeBytes(t, entries, nil)

	badMagic := bytes.Clone(good)
	copy(badMagic, "BORN")
	badVersion := bytes.Clone(good)
	binary.LittleEndian.PutUint32(badVersion[4:8], 9)
	hugeHeader := bytes.Clone(good)
	binary.LittleEndian.PutUint64(hugeHeader[16:24], MaxHeaderSize+1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"bad magic", badMagic, ErrInvalidMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
		{"huge header", hugeHeader, ErrHeaderTooLarge},
		{"truncated data", good[:len(good)-3], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadFrom(bytes.NewReader(tt.data), ReaderOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteErrors(t *testing.T) {
	d, _ := tensor.FromSlice([]int32{1}, tensor.Shape{1})
	defer d.Release()
	dev := tensor.NewDeviceBuffer(tensor.Location{Device: tensor.Compressed}, tensor.Int32, 1, nil, nil)
	onDev, _ := tensor.NewDense(tensor.Shape{1}, dev)

	tests := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{"empty entry", []Entry{{Name: "x"}}, ErrInvalidEntry},
		{"both set", []Entry{{Name: "x", Dense: d, Sparse: &tensor.Sparse{}}}, ErrInvalidEntry},
		{"duplicate", []Entry{{Name: "x", Dense: d}, {Name: "x", Dense: d}}, ErrDuplicateName},
		{"path name", []Entry{{Name: "../x", Dense: d}}, ErrInvalidTensorName},
		{"unnamed", []Entry{{Dense: d}}, ErrInvalidTensorName},
		{"device tensor", []Entry{{Name: "x", Dense: onDev}}, tensor.ErrNotHostAddressable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.entries, nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteFile_RemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.spt")
	if err := WriteFile(path, []Entry{{Name: "x"}}, nil); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file should be removed, stat error = %v", err)
	}
}

func TestValidateHeader(t *testing.T) {
	meta := func(name string, offset, size int64) TensorMeta {
		return TensorMeta{
			Name:    name,
			Layout:  LayoutDense,
			DType:   "float32",
			Shape:   []int{2},
			Buffers: []BufferMeta{{Role: RoleData, Count: int(size / 4), Offset: offset, Size: size}},
		}
	}
	wrongRole := meta("a", 0, 8)
	wrongRole.Buffers[0].Role = RoleValues
	wrongSize := meta("a", 0, 8)
	wrongSize.Buffers[0].Count = 3
	badLayout := meta("a", 0, 8)
	badLayout.Layout = "dia"

	tests := []struct {
		name    string
		tensors []TensorMeta
		level   ValidationLevel
		want    error
	}{
		{"valid", []TensorMeta{meta("a", 0, 8), meta("b", 8, 8)}, ValidationStrict, nil},
		{"overlap", []TensorMeta{meta("a", 0, 8), meta("b", 4, 8)}, ValidationStrict, ErrOffsetOverlap},
		{"overlap ignored", []TensorMeta{meta("a", 0, 8), meta("b", 4, 8)}, ValidationNormal, nil},
		{"out of bounds", []TensorMeta{meta("a", 12, 8)}, ValidationStrict, ErrOutOfBounds},
		{"negative", []TensorMeta{meta("a", -4, 8)}, ValidationStrict, ErrNegativeOffset},
		{"wrong role", []TensorMeta{wrongRole}, ValidationNormal, ErrInvalidLayout},
		{"wrong size", []TensorMeta{wrongSize}, ValidationNormal, ErrInvalidLayout},
		{"bad layout", []TensorMeta{badLayout}, ValidationNormal, ErrInvalidLayout},
		{"duplicate", []TensorMeta{meta("a", 0, 8), meta("a", 8, 8)}, ValidationNormal, ErrDuplicateName},
		{"none", []TensorMeta{meta("../a", -4, 8)}, ValidationNone, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(&Header{Tensors: tt.tensors}, 16, tt.level)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestDecodeBuffer_Strings(t *testing.T) {
	b := tensor.NewHostBuffer(tensor.Host, tensor.String, 3)
	copy(b.Strings(), []string{"a", "", "xyz"})
	data, err := encodeBuffer(b)
	if err != nil {
		t.Fatal(err)
	}

	back, err := decodeBuffer(tensor.String, 3, data)
	if err != nil {
		t.Fatal(err)
	}
	if got := back.Strings(); got[0] != "a" || got[1] != "" || got[2] != "xyz" {
		t.Errorf("decoded %q", got)
	}

	if _, err := decodeBuffer(tensor.String, 3, data[:len(data)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("short string data: expected ErrTruncated, got %v", err)
	}
	if _, err := decodeBuffer(tensor.String, 2, data); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("trailing bytes: expected ErrInvalidLayout, got %v", err)
	}
	if _, err := decodeBuffer(tensor.Int32, 2, make([]byte, 7)); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("odd numeric size: expected ErrInvalidLayout, got %v", err)
	}
}
