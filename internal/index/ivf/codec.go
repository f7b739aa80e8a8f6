package ivf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Artifact layout, little endian:
//
//	magic[8] | versionLen u16 | version | dim u32 | clusters u32 | nprobe u32 | count u32
//	centroids (clusters*dim f32)
//	per cluster: n u32, then n × (ordinal u32, dim f32)
//	crc32(IEEE) u32 over everything above
var magic = [8]byte{'G', 'D', 'X', 'I', 'V', 'F', '0', '1'}

// Upper bounds that reject absurd headers before allocating.
const (
	maxVersionLen = 1 << 10
	maxDim        = 1 << 16
	maxClusters   = 1 << 20
	maxCount      = 1 << 28
	maxCentroidF  = 1 << 26
)

var byteOrder = binary.LittleEndian

type encoder struct {
	w   *bufio.Writer
	buf [4]byte
	n   int64
	err error
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	e.err = err
}

func (e *encoder) u16(v uint16) {
	byteOrder.PutUint16(e.buf[:2], v)
	e.write(e.buf[:2])
}

func (e *encoder) u32(v uint32) {
	byteOrder.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *encoder) f32s(vs []float32) {
	for _, v := range vs {
		e.u32(math.Float32bits(v))
	}
}

// WriteTo serializes a trained index. It implements io.WriterTo.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	if x.State() == Untrained {
		return 0, domain.ErrNotTrained
	}
	if len(x.version) > maxVersionLen {
		return 0, fmt.Errorf("version tag too long: %d bytes", len(x.version))
	}

	crc := crc32.NewIEEE()
	e := &encoder{w: bufio.NewWriter(io.MultiWriter(w, crc))}

	e.write(magic[:])
	e.u16(uint16(len(x.version))) //nolint:gosec // bounded above
	e.write([]byte(x.version))
	e.u32(uint32(x.dim))            //nolint:gosec // dims are small
	e.u32(uint32(len(x.centroids))) //nolint:gosec // bounded by cluster config
	e.u32(uint32(x.cfg.NProbe))     //nolint:gosec // positive, small
	e.u32(uint32(x.count))          //nolint:gosec // catalog-sized

	for _, c := range x.centroids {
		e.f32s(c)
	}
	for _, list := range x.lists {
		e.u32(uint32(len(list))) //nolint:gosec // bounded by count
		for _, en := range list {
			e.u32(uint32(en.ordinal)) //nolint:gosec // dense, < count
			e.f32s(en.values)
		}
	}
	if e.err == nil {
		e.err = e.w.Flush()
	}
	if e.err != nil {
		return e.n, fmt.Errorf("write index: %w", e.err)
	}

	// Trailer goes to w only; the checksum covers the body.
	var trailer [4]byte
	byteOrder.PutUint32(trailer[:], crc.Sum32())
	n, err := w.Write(trailer[:])
	if err != nil {
		return e.n + int64(n), fmt.Errorf("write index trailer: %w", err)
	}
	return e.n + int64(n), nil
}

type decoder struct {
	r   io.Reader
	buf [4]byte
	err error
}

func (d *decoder) read(p []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, p)
}

func (d *decoder) u16() uint16 {
	d.read(d.buf[:2])
	return byteOrder.Uint16(d.buf[:2])
}

func (d *decoder) u32() uint32 {
	d.read(d.buf[:4])
	return byteOrder.Uint32(d.buf[:4])
}

func (d *decoder) f32s(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(d.u32())
	}
	return out
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCorruptArtifact, fmt.Sprintf(format, args...))
}

// Read deserializes an index written by WriteTo. Any structural problem,
// truncation or checksum mismatch is reported as ErrCorruptArtifact.
func Read(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	crc := crc32.NewIEEE()
	d := &decoder{r: io.TeeReader(br, crc)}

	var m [8]byte
	d.read(m[:])
	if d.err != nil {
		return nil, corrupt("read header: %v", d.err)
	}
	if m != magic {
		return nil, corrupt("bad magic %q", m[:])
	}

	vlen := int(d.u16())
	if vlen > maxVersionLen {
		return nil, corrupt("version length %d", vlen)
	}
	vb := make([]byte, vlen)
	d.read(vb)
	dim := int(d.u32())
	clusters := int(d.u32())
	nprobe := int(d.u32())
	count := int(d.u32())
	if d.err != nil {
		return nil, corrupt("read header: %v", d.err)
	}
	if dim <= 0 || dim > maxDim || clusters <= 0 || clusters > maxClusters || count > maxCount ||
		dim*clusters > maxCentroidF {
		return nil, corrupt("header out of range: dim=%d clusters=%d count=%d", dim, clusters, count)
	}

	x := New(Config{NProbe: nprobe}, dim, string(vb))
	x.centroids = make([][]float32, clusters)
	for i := range x.centroids {
		x.centroids[i] = d.f32s(dim)
		if d.err != nil {
			return nil, corrupt("read centroid %d: %v", i, d.err)
		}
	}

	seen := make([]bool, count)
	x.lists = make([][]entry, clusters)
	total := 0
	for c := range x.lists {
		n := int(d.u32())
		if d.err != nil {
			return nil, corrupt("read list %d: %v", c, d.err)
		}
		if total+n > count {
			return nil, corrupt("list %d overflows vector count %d", c, count)
		}
		list := make([]entry, n)
		for i := range list {
			ord := int(d.u32())
			vals := d.f32s(dim)
			if d.err != nil {
				return nil, corrupt("read list %d entry %d: %v", c, i, d.err)
			}
			if ord >= count || seen[ord] {
				return nil, corrupt("list %d: bad ordinal %d", c, ord)
			}
			seen[ord] = true
			list[i] = entry{ordinal: ord, values: vals}
		}
		x.lists[c] = list
		total += n
	}
	if total != count {
		return nil, corrupt("lists hold %d vectors, header says %d", total, count)
	}
	x.count = count

	want := crc.Sum32()
	var trailer [4]byte
	if _, err := io.ReadFull(br, trailer[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, corrupt("missing checksum")
		}
		return nil, corrupt("read checksum: %v", err)
	}
	if got := byteOrder.Uint32(trailer[:]); got != want {
		return nil, corrupt("checksum mismatch: got %08x, want %08x", got, want)
	}
	return x, nil
}
