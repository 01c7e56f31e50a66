package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/born-ml/sparse/tensor"
	"github.com/x448/float16"
)

// readDense decodes a JSON matrix (an array of equal-length rows) or vector
// (a flat array) into a host tensor of the given type.
func readDense(r io.Reader, dtype tensor.DataType) (*tensor.Dense, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}

	var cells []json.RawMessage
	shape := tensor.Shape{len(rows)}
	if len(rows[0]) > 0 && rows[0][0] == '[' {
		cols := -1
		for i, row := range rows {
			var elems []json.RawMessage
			if err := json.Unmarshal(row, &elems); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if cols >= 0 && len(elems) != cols {
				return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(elems), cols)
			}
			cols = len(elems)
			cells = append(cells, elems...)
		}
		shape = tensor.Shape{len(rows), cols}
	} else {
		cells = rows
	}

	if dtype == tensor.String {
		data := make([]string, len(cells))
		for i, c := range cells {
			if err := json.Unmarshal(c, &data[i]); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return tensor.FromStrings(data, shape)
	}

	nums := make([]string, len(cells))
	for i, c := range cells {
		var n json.Number
		if err := json.Unmarshal(c, &n); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		nums[i] = n.String()
	}

	switch dtype {
	case tensor.Float64:
		return parseNumbers(nums, shape, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	case tensor.Float32:
		return parseNumbers(nums, shape, parseFloat32)
	case tensor.Float16:
		data, err := parseAll(nums, parseFloat32)
		if err != nil {
			return nil, err
		}
		return tensor.FromFloat16(data, shape)
	case tensor.Int8:
		return parseNumbers(nums, shape, parseInt[int8](8))
	case tensor.Int16:
		return parseNumbers(nums, shape, parseInt[int16](16))
	case tensor.Int32:
		return parseNumbers(nums, shape, parseInt[int32](32))
	case tensor.Int64:
		return parseNumbers(nums, shape, parseInt[int64](64))
	case tensor.Uint8:
		return parseNumbers(nums, shape, parseUint[uint8](8))
	case tensor.Uint16:
		return parseNumbers(nums, shape, parseUint[uint16](16))
	case tensor.Uint32:
		return parseNumbers(nums, shape, parseUint[uint32](32))
	case tensor.Uint64:
		return parseNumbers(nums, shape, parseUint[uint64](64))
	default:
		return nil, fmt.Errorf("%w: cannot read %s from JSON", tensor.ErrUnsupportedElementWidth, dtype)
	}
}

func parseAll[T any](nums []string, parse func(string) (T, error)) ([]T, error) {
	data := make([]T, len(nums))
	for i, s := range nums {
		v, err := parse(s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		data[i] = v
	}
	return data, nil
}

func parseNumbers[T tensor.POD](nums []string, shape tensor.Shape, parse func(string) (T, error)) (*tensor.Dense, error) {
	data, err := parseAll(nums, parse)
	if err != nil {
		return nil, err
	}
	return tensor.FromSlice(data, shape)
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

func parseInt[T ~int8 | ~int16 | ~int32 | ~int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 10, bits)
		return T(v), err
	}
}

func parseUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 10, bits)
		return T(v), err
	}
}

// values returns a JSON-encodable copy of a host value buffer.
func values(b *tensor.Buffer) (any, error) {
	switch b.DType() {
	case tensor.String:
		return b.Strings(), nil
	case tensor.Float64:
		return tensor.View[float64](b), nil
	case tensor.Float32:
		return tensor.View[float32](b), nil
	case tensor.Float16:
		half := tensor.View[float16.Float16](b)
		out := make([]float32, len(half))
		for i, h := range half {
			out[i] = h.Float32()
		}
		return out, nil
	case tensor.Int8:
		return tensor.View[int8](b), nil
	case tensor.Int16:
		return tensor.View[int16](b), nil
	case tensor.Int32:
		return tensor.View[int32](b), nil
	case tensor.Int64:
		return tensor.View[int64](b), nil
	case tensor.Uint8:
		// []uint8 would encode as base64.
		out := make([]uint16, b.Len())
		for i, v := range tensor.View[uint8](b) {
			out[i] = uint16(v)
		}
		return out, nil
	case tensor.Uint16:
		return tensor.View[uint16](b), nil
	case tensor.Uint32:
		return tensor.View[uint32](b), nil
	case tensor.Uint64:
		return tensor.View[uint64](b), nil
	default:
		return nil, fmt.Errorf("%w: cannot print %s values", tensor.ErrUnsupportedElementWidth, b.DType())
	}
}
