// Package sparse converts tensors between dense, COO and CSR layouts.
package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/parallel"
	"github.com/born-ml/sparse/internal/tensor"
)

// Config wires a Converter to its collaborators.
type Config struct {
	Transfers *memory.Manager  // Finds copies between locations.
	Host      memory.Allocator // Host scratch space for staging and transforms.
	Parallel  parallel.Config  // Opt-in split of large value gathers; the zero value runs sequentially.
}

// DefaultConfig returns a host-only setup: an unlimited host allocator and a
// manager that knows the host-to-host transfer. Register device transfers on
// Transfers to convert tensors living elsewhere.
//
// Conversions run on the calling goroutine. Set Parallel (for example to
// parallel.DefaultConfig()) to split large value gathers across workers.
func DefaultConfig() Config {
	return Config{
		Transfers: memory.NewManager(memory.HostTransfer{}),
		Host:      memory.NewHostAllocator(),
	}
}

// Converter runs conversions. It keeps no state between calls, so one
// Converter can serve concurrent conversions.
type Converter struct {
	transfers *memory.Manager
	host      memory.Allocator
	parallel  parallel.Config
}

// New creates a Converter. Missing collaborators fall back to DefaultConfig.
func New(cfg Config) *Converter {
	def := DefaultConfig()
	if cfg.Transfers == nil {
		cfg.Transfers = def.Transfers
	}
	if cfg.Host == nil {
		cfg.Host = def.Host
	}
	return &Converter{transfers: cfg.Transfers, host: cfg.Host, parallel: cfg.Parallel}
}

// Transfers returns the converter's transfer manager.
func (c *Converter) Transfers() *memory.Manager {
	return c.transfers
}

// workAllocator returns where results are assembled: dst itself when it is
// host addressable, the host scratch allocator otherwise.
func (c *Converter) workAllocator(dst memory.Allocator) memory.Allocator {
	if dst.Location().HostAddressable() {
		return dst
	}
	return c.host
}

// checkDestination rejects string results off the host and destinations no
// transfer can reach, before any work is done.
func (c *Converter) checkDestination(dt tensor.DataType, dst memory.Allocator) error {
	loc := dst.Location()
	if dt.IsString() && !loc.HostAddressable() {
		return fmt.Errorf("%w: destination %s", tensor.ErrUnsupportedLocationForStrings, loc)
	}
	work := c.workAllocator(dst).Location()
	if work != loc {
		if _, err := c.transfers.Find(work, loc); err != nil {
			return err
		}
	}
	return nil
}

// stageDense returns a host-addressable copy of src, or src itself when it is
// already on the host. release frees the staged copy.
func (c *Converter) stageDense(src *tensor.Dense) (staged *tensor.Dense, release func(), err error) {
	if src.Location().HostAddressable() {
		return src, func() {}, nil
	}
	buf, err := c.host.Allocate(src.DType(), src.NumElements())
	if err != nil {
		return nil, nil, err
	}
	if err := c.transfers.CopyBuffer(src.Buffer(), buf); err != nil {
		buf.Release()
		return nil, nil, err
	}
	staged, err = tensor.NewDense(src.Shape(), buf)
	if err != nil {
		buf.Release()
		return nil, nil, err
	}
	return staged, staged.Release, nil
}

// stageSparse returns a host-addressable copy of src, or src itself when it is
// already on the host. release frees the staged copy.
func (c *Converter) stageSparse(src *tensor.Sparse) (staged *tensor.Sparse, release func(), err error) {
	if src.Location().HostAddressable() {
		return src, func() {}, nil
	}
	var bufs []*tensor.Buffer
	alloc := func(like *tensor.Buffer) (*tensor.Buffer, error) {
		b, err := c.host.Allocate(like.DType(), like.Len())
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, b)
		return b, nil
	}
	drop := func() {
		releaseAll(bufs...)
	}

	values, err := alloc(src.Values())
	if err != nil {
		drop()
		return nil, nil, err
	}
	switch src.Format() {
	case tensor.COO:
		var indices *tensor.Buffer
		if indices, err = alloc(src.Indices()); err == nil {
			staged, err = tensor.NewCOO(src.Shape(), values, indices, src.LinearIndices())
		}
	case tensor.CSR:
		var inner, outer *tensor.Buffer
		if inner, err = alloc(src.Inner()); err == nil {
			if outer, err = alloc(src.Outer()); err == nil {
				staged, err = tensor.NewCSR(src.Shape(), values, inner, outer)
			}
		}
	default:
		err = fmt.Errorf("%w: %s", tensor.ErrUnsupportedFormat, src.Format())
	}
	if err != nil {
		drop()
		return nil, nil, err
	}
	if err := c.transfers.CopySparse(src, staged); err != nil {
		staged.Release()
		return nil, nil, err
	}
	return staged, staged.Release, nil
}

// publish moves host-built buffers to dst. It takes ownership of bufs: buffers
// already at dst are returned as is, the rest are copied out and released.
// On error every buffer is released and nothing is returned.
func (c *Converter) publish(dst memory.Allocator, bufs ...*tensor.Buffer) ([]*tensor.Buffer, error) {
	out := make([]*tensor.Buffer, 0, len(bufs))
	fail := func(i int, err error) ([]*tensor.Buffer, error) {
		for _, b := range out {
			b.Release()
		}
		for _, b := range bufs[i:] {
			b.Release()
		}
		return nil, err
	}
	loc := dst.Location()
	for i, b := range bufs {
		if b.Location() == loc {
			out = append(out, b)
			continue
		}
		moved, err := dst.Allocate(b.DType(), b.Len())
		if err != nil {
			return fail(i, err)
		}
		if b.Len() > 0 {
			if err := c.transfers.CopyBuffer(b, moved); err != nil {
				moved.Release()
				return fail(i, err)
			}
		}
		b.Release()
		out = append(out, moved)
	}
	return out, nil
}

// allocIndices allocates an Int64 buffer with the work allocator and fills it.
func allocIndices(alloc memory.Allocator, indices []int64) (*tensor.Buffer, error) {
	b, err := alloc.Allocate(tensor.Int64, len(indices))
	if err != nil {
		return nil, err
	}
	copy(b.Int64s(), indices)
	return b, nil
}

// releaseAll releases every non-nil buffer.
func releaseAll(bufs ...*tensor.Buffer) {
	for _, b := range bufs {
		b.Release()
	}
}
