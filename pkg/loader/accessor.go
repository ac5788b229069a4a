package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

// accessorComponents returns the number of components per element.
func accessorComponents(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

func componentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

// maxElements caps the components an accessor without a buffer view may
// claim, since nothing in the file backs the allocation.
const maxElements = 1 << 24

// readFloats reads an accessor as a flat float slice with the accessor's
// component count per element. Normalized integer data is mapped to [0,1]
// or [-1,1]. An accessor without a buffer view reads as zeros before any
// sparse substitution.
func readFloats(doc *gltf.Document, index int) ([]float64, int, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor %d out of range", index)
	}
	acc := doc.Accessors[index]
	n := accessorComponents(acc.Type)
	csize := componentSize(acc.ComponentType)
	if n == 0 || csize == 0 {
		return nil, 0, fmt.Errorf("accessor %d: unsupported type %v / %v", index, acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 {
		return nil, 0, fmt.Errorf("accessor %d: negative count %d", index, acc.Count)
	}

	var (
		data   []byte
		stride int
	)
	if acc.BufferView != nil {
		var err error
		data, stride, err = accessorWindow(doc, *acc.BufferView, acc.ByteOffset, acc.Count, n*csize)
		if err != nil {
			return nil, 0, fmt.Errorf("accessor %d: %w", index, err)
		}
	} else if acc.Count > maxElements/n {
		return nil, 0, fmt.Errorf("accessor %d: count %d without a buffer view", index, acc.Count)
	}

	out := make([]float64, acc.Count*n)
	if data != nil {
		for i := range acc.Count {
			base := i * stride
			for j := range n {
				out[i*n+j] = readComponent(data[base+j*csize:], acc.ComponentType, acc.Normalized)
			}
		}
	}

	if acc.Sparse != nil {
		if err := applySparse(doc, acc, out, n, csize); err != nil {
			return nil, 0, fmt.Errorf("accessor %d: sparse: %w", index, err)
		}
	}
	return out, n, nil
}

// applySparse overwrites the elements named by the sparse indices with the
// sparse values.
func applySparse(doc *gltf.Document, acc *gltf.Accessor, out []float64, n, csize int) error {
	sp := acc.Sparse
	if sp.Count < 0 || sp.Count > acc.Count {
		return fmt.Errorf("count %d for %d elements", sp.Count, acc.Count)
	}
	isize := componentSize(sp.Indices.ComponentType)
	switch sp.Indices.ComponentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return fmt.Errorf("unsupported index type %v", sp.Indices.ComponentType)
	}

	indices, _, err := accessorWindow(doc, sp.Indices.BufferView, sp.Indices.ByteOffset, sp.Count, isize)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	values, _, err := accessorWindow(doc, sp.Values.BufferView, sp.Values.ByteOffset, sp.Count, n*csize)
	if err != nil {
		return fmt.Errorf("values: %w", err)
	}

	for k := range sp.Count {
		target := int(readComponent(indices[k*isize:], sp.Indices.ComponentType, false))
		if target >= acc.Count {
			return fmt.Errorf("index %d out of range for %d elements", target, acc.Count)
		}
		base := k * n * csize
		for j := range n {
			out[target*n+j] = readComponent(values[base+j*csize:], acc.ComponentType, acc.Normalized)
		}
	}
	return nil
}

// readInts reads an integer accessor (indices, joints) as ints.
func readInts(doc *gltf.Document, index int) ([]int, int, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor %d out of range", index)
	}
	acc := doc.Accessors[index]
	if acc.ComponentType == gltf.ComponentFloat {
		return nil, 0, fmt.Errorf("accessor %d: expected integer components", index)
	}
	floats, n, err := readFloats(doc, index)
	if err != nil {
		return nil, 0, err
	}
	out := make([]int, len(floats))
	for i, f := range floats {
		out[i] = int(f)
	}
	return out, n, nil
}

// viewData returns the bytes of buffer view i.
func viewData(doc *gltf.Document, i int) ([]byte, *gltf.BufferView, error) {
	if i < 0 || i >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("buffer view %d out of range", i)
	}
	view := doc.BufferViews[i]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	buf := doc.Buffers[view.Buffer].Data
	if buf == nil {
		return nil, nil, fmt.Errorf("buffer %d has no data", view.Buffer)
	}
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteStride < 0 {
		return nil, nil, fmt.Errorf("buffer view %d: negative offset, length or stride", i)
	}
	if view.ByteOffset > len(buf) || view.ByteLength > len(buf)-view.ByteOffset {
		return nil, nil, fmt.Errorf("buffer view %d exceeds buffer %d", i, view.Buffer)
	}
	return buf[view.ByteOffset : view.ByteOffset+view.ByteLength], view, nil
}

// accessorWindow returns the bytes count elements of elemSize read from
// buffer view i starting at offset, and the stride between elements.
func accessorWindow(doc *gltf.Document, i, offset, count, elemSize int) ([]byte, int, error) {
	data, view, err := viewData(doc, i)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		return nil, 0, fmt.Errorf("negative byte offset %d", offset)
	}
	if count < 0 {
		return nil, 0, fmt.Errorf("negative count %d", count)
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if count == 0 {
		return nil, stride, nil
	}
	if offset > len(data) || count-1 > (len(data)-offset)/stride {
		return nil, 0, fmt.Errorf("data out of bounds")
	}
	end := offset + (count-1)*stride + elemSize
	if end > len(data) {
		return nil, 0, fmt.Errorf("data out of bounds (need %d of %d bytes)", end, len(data))
	}
	return data[offset:end], stride, nil
}

func readComponent(b []byte, c gltf.ComponentType, normalized bool) float64 {
	switch c {
	case gltf.ComponentFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case gltf.ComponentUbyte:
		v := float64(b[0])
		if normalized {
			return v / 255
		}
		return v
	case gltf.ComponentByte:
		v := float64(int8(b[0]))
		if normalized {
			return math.Max(v/127, -1)
		}
		return v
	case gltf.ComponentUshort:
		v := float64(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case gltf.ComponentShort:
		v := float64(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return math.Max(v/32767, -1)
		}
		return v
	case gltf.ComponentUint:
		return float64(binary.LittleEndian.Uint32(b))
	}
	return 0
}
