// Package main provides sparseconv, a command that converts a dense matrix
// read as JSON into COO or CSR form.
//
// Usage:
//
//	echo '[[0, 5], [3, 0]]' | sparseconv -format csr -dtype float32
//	sparseconv -in matrix.json -format coo -coords 2d -transpose -stage zstd
//	sparseconv -in matrix.json -out matrix.spt
//	sparseconv version
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/born-ml/sparse/memory"
	"github.com/born-ml/sparse/sparse"
	"github.com/born-ml/sparse/tensor"
)

const version = "v0.1.0"

func main() {
	log.SetFlags(0)
	log.SetPrefix("sparseconv: ")

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("sparseconv %s\n", version)
		return
	}
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	format    tensor.Format
	linear    bool
	transpose bool
	dtype     tensor.DataType
	stage     string
	in        string
	out       string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("sparseconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "csr", "Sparse layout: coo or csr")
	coords := fs.String("coords", "linear", "COO index encoding: linear or 2d")
	transpose := fs.Bool("transpose", false, "Transpose the sparse result")
	dtype := fs.String("dtype", "float64", "Element type of the input matrix")
	stage := fs.String("stage", "none", "Hold the result on a compressed device: zstd, lz4 or none")
	in := fs.String("in", "", "Input JSON file (default stdin)")
	out := fs.String("out", "", "Also save the input and result tensors to this .spt file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{transpose: *transpose, stage: *stage, in: *in, out: *out}
	switch *format {
	case "coo":
		opts.format = tensor.COO
	case "csr":
		opts.format = tensor.CSR
	default:
		return options{}, fmt.Errorf("unknown format %q", *format)
	}
	switch *coords {
	case "linear":
		opts.linear = true
	case "2d":
	default:
		return options{}, fmt.Errorf("unknown coords %q", *coords)
	}
	dt, ok := tensor.ParseDataType(*dtype)
	if !ok {
		return options{}, fmt.Errorf("unknown dtype %q", *dtype)
	}
	opts.dtype = dt
	switch *stage {
	case "none", "zstd", "lz4":
	default:
		return options{}, fmt.Errorf("unknown stage %q", *stage)
	}
	return opts, nil
}

// report is the JSON document written to stdout.
type report struct {
	Format      string  `json:"format"`
	Shape       []int   `json:"shape"`
	DType       string  `json:"dtype"`
	Values      any     `json:"values"`
	Indices     []int64 `json:"indices,omitempty"`
	Linear      *bool   `json:"linear,omitempty"`
	Inner       []int64 `json:"inner,omitempty"`
	Outer       []int64 `json:"outer,omitempty"`
	Stage       string  `json:"stage,omitempty"`
	Fingerprint string  `json:"fingerprint"`
	RoundTrip   bool    `json:"round_trip"`
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	input := stdin
	if opts.in != "" {
		f, err := os.Open(opts.in)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	d, err := readDense(input, opts.dtype)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	defer d.Release()

	cfg := sparse.DefaultConfig()
	host := memory.NewHostAllocator()
	var dst memory.Allocator = host
	if opts.stage != "none" {
		codec := memory.CodecZstd
		if opts.stage == "lz4" {
			codec = memory.CodecLZ4
		}
		dev, err := memory.NewCompressedDevice(codec, 0)
		if err != nil {
			return err
		}
		defer dev.Close()
		cfg.Transfers.Register(dev)
		dst = dev
	}
	c := sparse.New(cfg)

	s, err := convert(c, d, dst, opts)
	if err != nil {
		return err
	}
	defer s.Release()

	rep := report{
		Format: s.Format().String(),
		Shape:  s.Shape(),
		DType:  s.DType().String(),
	}
	if dev, ok := dst.(*memory.CompressedDevice); ok {
		rep.Stage = fmt.Sprintf("%s: %d bytes stored for %d values", dev.Codec(), dev.StoredBytes(s.Values()), s.NumValues())
	}

	hs, err := toHost(c, s, host)
	if err != nil {
		return err
	}
	defer hs.Release()
	rep.Values, err = values(hs.Values())
	if err != nil {
		return err
	}
	if hs.Format() == tensor.COO {
		linear := hs.LinearIndices()
		rep.Indices, rep.Linear = hs.COOIndices(), &linear
	} else {
		rep.Inner, rep.Outer = hs.InnerIndices(), hs.OuterIndices()
	}
	fp, err := hs.Fingerprint()
	if err != nil {
		return err
	}
	rep.Fingerprint = fmt.Sprintf("%016x", fp)

	rep.RoundTrip, err = roundTrips(c, d, hs, host, opts.transpose)
	if err != nil {
		return err
	}

	if opts.out != "" {
		entries := []tensor.Entry{{Name: "input", Dense: d}, {Name: "result", Sparse: hs}}
		if err := tensor.Save(opts.out, entries, map[string]string{"writer": "sparseconv " + version}); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// convert builds the requested sparse layout at dst, transposing if asked.
// Transpose yields CSR, so a transposed COO result goes through CSRToCOO.
func convert(c *sparse.Converter, d *tensor.Dense, dst memory.Allocator, opts options) (*tensor.Sparse, error) {
	var s *tensor.Sparse
	var err error
	if opts.format == tensor.COO {
		s, err = c.DenseToCOO(d, dst, opts.linear)
	} else {
		s, err = c.DenseToCSR(d, dst)
	}
	if err != nil || !opts.transpose {
		return s, err
	}
	defer s.Release()
	t, err := c.Transpose(s, dst)
	if err != nil || opts.format == tensor.CSR {
		return t, err
	}
	defer t.Release()
	return c.CSRToCOO(t, dst, opts.linear)
}

// toHost copies a sparse tensor to host memory with the same layout.
func toHost(c *sparse.Converter, s *tensor.Sparse, host memory.Allocator) (*tensor.Sparse, error) {
	if s.Location().HostAddressable() {
		s.Values().Retain()
		if s.Format() == tensor.COO {
			s.Indices().Retain()
			return tensor.NewCOO(s.Shape(), s.Values(), s.Indices(), s.LinearIndices())
		}
		s.Inner().Retain()
		s.Outer().Retain()
		return tensor.NewCSR(s.Shape(), s.Values(), s.Inner(), s.Outer())
	}
	if s.Format() == tensor.COO {
		return c.CopyCOO(s, host)
	}

	alloc := func(b *tensor.Buffer) (*tensor.Buffer, error) {
		return host.Allocate(b.DType(), b.Len())
	}
	vals, err := alloc(s.Values())
	if err != nil {
		return nil, err
	}
	inner, err := alloc(s.Inner())
	if err != nil {
		vals.Release()
		return nil, err
	}
	outer, err := alloc(s.Outer())
	if err != nil {
		vals.Release()
		inner.Release()
		return nil, err
	}
	hs, err := tensor.NewCSR(s.Shape(), vals, inner, outer)
	if err != nil {
		vals.Release()
		inner.Release()
		outer.Release()
		return nil, err
	}
	if err := c.Transfers().CopySparse(s, hs); err != nil {
		hs.Release()
		return nil, err
	}
	return hs, nil
}

// roundTrips reports whether s reconstructs d, undoing the transpose first.
func roundTrips(c *sparse.Converter, d *tensor.Dense, s *tensor.Sparse, host memory.Allocator, transposed bool) (bool, error) {
	if transposed {
		back, err := c.Transpose(s, host)
		if err != nil {
			return false, err
		}
		defer back.Release()
		s = back
	}
	restored, err := c.ToDense(s, host)
	if err != nil {
		return false, err
	}
	defer restored.Release()
	if !restored.Shape().Equal(d.Shape()) {
		// A 1-D input comes back as 1×n after a double transpose.
		buf := restored.Buffer().Retain()
		reshaped, err := tensor.NewDense(d.Shape(), buf)
		if err != nil {
			buf.Release()
			return false, err
		}
		defer reshaped.Release()
		restored = reshaped
	}
	want, err := d.Fingerprint()
	if err != nil {
		return false, err
	}
	got, err := restored.Fingerprint()
	if err != nil {
		return false, err
	}
	return want == got, nil
}
