// Package field loads and normalises raw scalar volume data: the CPU-side
// representation of a single 3-D field before it is split into bricks.
package field

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/solarvol/voxrender/internal/rterr"
)

// Field is a normalised scalar volume: integer sizes, physical voxel
// extents, unit-normalised half-extents, and per-voxel floats in [0,1].
type Field struct {
	SizeX, SizeY, SizeZ int
	VoxelExtent         [3]float32 // dx, dy, dz, as given in the header
	HalfExtent          [3]float32 // hx, hy, hz; max(hx,hy,hz) == 1
	VoxelWidth          [3]float32 // 2*HalfExtent[i]/Size[i]

	MinValue, MaxValue float32
	Data               []float32 // length SizeX*SizeY*SizeZ, values in [0,1]
}

// Header holds the parsed ASCII key/value companion file for a raw field.
type Header struct {
	ElementKind byte
	ElementSize int
	Endianness  byte
	Dimensions  int
	Order       byte
	SizeX       int
	SizeY       int
	SizeZ       int
	Dx, Dy, Dz  float32
}

// hostIsLittleEndian reports the byte order of this process, used to
// validate the header's declared endianness against the host.
func hostIsLittleEndian() bool {
	var x uint16 = 1
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, x)
	return buf[0] == 1
}

// ParseHeader parses the ASCII "key: value" companion header for a raw
// field file. Required keys: element_kind (f), element_size (4),
// endianness (l/b matching host), dimensions (3), order (C),
// x_size/y_size/z_size (>=2), dx/dy/dz (>0).
func ParseHeader(r io.Reader) (*Header, error) {
	values := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, rterr.New(rterr.BadHeader, fmt.Sprintf("malformed header line %q", line))
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "reading header")
	}

	required := []string{"element_kind", "element_size", "endianness", "dimensions", "order",
		"x_size", "y_size", "z_size", "dx", "dy", "dz"}
	for _, key := range required {
		if _, ok := values[key]; !ok {
			return nil, rterr.New(rterr.BadHeader, fmt.Sprintf("missing required key %q", key))
		}
	}

	h := &Header{}

	if len(values["element_kind"]) != 1 {
		return nil, rterr.New(rterr.BadHeader, "element_kind must be a single character")
	}
	h.ElementKind = values["element_kind"][0]
	if h.ElementKind != 'f' {
		return nil, rterr.New(rterr.MismatchKind, "element_kind must be 'f'")
	}

	elemSize, err := strconv.Atoi(values["element_size"])
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing element_size")
	}
	h.ElementSize = elemSize
	if h.ElementSize != 4 {
		return nil, rterr.New(rterr.MismatchKind, "element_size must be 4")
	}

	if len(values["endianness"]) != 1 {
		return nil, rterr.New(rterr.BadHeader, "endianness must be a single character")
	}
	h.Endianness = values["endianness"][0]
	wantLittle := hostIsLittleEndian()
	gotLittle := h.Endianness == 'l'
	if h.Endianness != 'l' && h.Endianness != 'b' {
		return nil, rterr.New(rterr.BadHeader, "endianness must be 'l' or 'b'")
	}
	if gotLittle != wantLittle {
		return nil, rterr.New(rterr.MismatchKind, "endianness does not match host")
	}

	dims, err := strconv.Atoi(values["dimensions"])
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing dimensions")
	}
	h.Dimensions = dims
	if h.Dimensions != 3 {
		return nil, rterr.New(rterr.MismatchKind, "dimensions must be 3")
	}

	if len(values["order"]) != 1 {
		return nil, rterr.New(rterr.BadHeader, "order must be a single character")
	}
	h.Order = values["order"][0]
	if h.Order != 'C' {
		return nil, rterr.New(rterr.MismatchKind, "order must be 'C' (row-major)")
	}

	h.SizeX, err = strconv.Atoi(values["x_size"])
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing x_size")
	}
	h.SizeY, err = strconv.Atoi(values["y_size"])
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing y_size")
	}
	h.SizeZ, err = strconv.Atoi(values["z_size"])
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing z_size")
	}
	if h.SizeX < 2 || h.SizeY < 2 || h.SizeZ < 2 {
		return nil, rterr.New(rterr.MismatchKind, "per-axis size must be >= 2")
	}

	dx, err := strconv.ParseFloat(values["dx"], 32)
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing dx")
	}
	dy, err := strconv.ParseFloat(values["dy"], 32)
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing dy")
	}
	dz, err := strconv.ParseFloat(values["dz"], 32)
	if err != nil {
		return nil, rterr.Wrap(rterr.BadHeader, err, "parsing dz")
	}
	h.Dx, h.Dy, h.Dz = float32(dx), float32(dy), float32(dz)
	if h.Dx <= 0 || h.Dy <= 0 || h.Dz <= 0 {
		return nil, rterr.New(rterr.MismatchKind, "voxel spacing must be > 0")
	}

	return h, nil
}

// Load reads the binary float32 payload following header and normalises
// it in place into a Field. Data is rewritten to (v-min)/(max-min).
func Load(header *Header, data io.Reader) (*Field, error) {
	n := header.SizeX * header.SizeY * header.SizeZ
	raw := make([]float32, n)

	byteOrder := binary.ByteOrder(binary.LittleEndian)
	if header.Endianness == 'b' {
		byteOrder = binary.BigEndian
	}

	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(data, buf); err != nil {
		return nil, rterr.Wrap(rterr.BadFieldData, err, "reading voxel data")
	}
	for i := 0; i < n; i++ {
		bits := byteOrder.Uint32(buf[i*4 : i*4+4])
		raw[i] = math.Float32frombits(bits)
	}

	f := &Field{
		SizeX: header.SizeX, SizeY: header.SizeY, SizeZ: header.SizeZ,
		VoxelExtent: [3]float32{header.Dx, header.Dy, header.Dz},
	}

	physicalExtent := [3]float32{
		header.Dx * float32(header.SizeX),
		header.Dy * float32(header.SizeY),
		header.Dz * float32(header.SizeZ),
	}
	maxExtent := physicalExtent[0]
	if physicalExtent[1] > maxExtent {
		maxExtent = physicalExtent[1]
	}
	if physicalExtent[2] > maxExtent {
		maxExtent = physicalExtent[2]
	}
	spatialNormalization := float32(1) / maxExtent

	for i := 0; i < 3; i++ {
		f.HalfExtent[i] = spatialNormalization * physicalExtent[i]
	}
	f.VoxelWidth[0] = 2 * f.HalfExtent[0] / float32(f.SizeX)
	f.VoxelWidth[1] = 2 * f.HalfExtent[1] / float32(f.SizeY)
	f.VoxelWidth[2] = 2 * f.HalfExtent[2] / float32(f.SizeZ)

	minValue, maxValue := raw[0], raw[0]
	for _, v := range raw {
		if v < minValue {
			minValue = v
		}
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue <= minValue {
		return nil, rterr.New(rterr.BadFieldData, "field has zero or negative value range")
	}
	f.MinValue, f.MaxValue = minValue, maxValue

	scale := 1 / (maxValue - minValue)
	for i, v := range raw {
		raw[i] = (v - minValue) * scale
	}
	f.Data = raw

	return f, nil
}

// At returns the normalised voxel value at (x,y,z), row-major (z slowest).
func (f *Field) At(x, y, z int) float32 {
	return f.Data[(z*f.SizeY+y)*f.SizeX+x]
}

// ToTextureValue maps a raw field-unit value into the [0,1] texture
// domain using the field's recorded min/max, the inverse of the
// normalisation applied on Load.
func (f *Field) ToTextureValue(fieldUnits float32) float32 {
	return (fieldUnits - f.MinValue) / (f.MaxValue - f.MinValue)
}

// ToFieldValue is the inverse of ToTextureValue, used to report UI input
// back in the units the original field was measured in.
func (f *Field) ToFieldValue(textureUnits float32) float32 {
	return f.MinValue + textureUnits*(f.MaxValue-f.MinValue)
}

// MinVoxelExtent returns min(dx, dy, dz), used by the plane-stack slicer
// to derive the default plane separation.
func (f *Field) MinVoxelExtent() float32 {
	m := f.VoxelExtent[0]
	if f.VoxelExtent[1] < m {
		m = f.VoxelExtent[1]
	}
	if f.VoxelExtent[2] < m {
		m = f.VoxelExtent[2]
	}
	return m
}
