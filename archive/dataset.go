package archive

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/seqlab/modisco/codec"
)

const (
	// magicNumber identifies modisco dataset files (ASCII: "MDSC").
	magicNumber = 0x4d445343
	// formatVersion is the current dataset encoding version.
	formatVersion = 1

	headerSize = 28
)

// dtype identifies the logical payload type of a dataset.
type dtype uint8

const (
	dtypeMatrix  dtype = 1 // rows x cols float64, row-major
	dtypeFloats  dtype = 2 // rows float64
	dtypeInts    dtype = 3 // rows int64
	dtypeStrings dtype = 4 // codec-encoded []string
	dtypeJSON    dtype = 5 // codec-encoded document
	dtypeBool    dtype = 6 // single byte
	dtypeInt     dtype = 7 // single int64
)

// codec ids stored in dataset headers. Structured payloads record which codec
// wrote them so any later reader can pick the matching decoder.
const (
	codecIDNone   = 0
	codecIDJSON   = 1
	codecIDGoJSON = 2
)

func codecID(c codec.Codec) uint8 {
	switch c.Name() {
	case codec.JSON{}.Name():
		return codecIDJSON
	case codec.GoJSON{}.Name():
		return codecIDGoJSON
	default:
		return codecIDNone
	}
}

func codecByID(id uint8) (codec.Codec, bool) {
	switch id {
	case codecIDJSON:
		return codec.JSON{}, true
	case codecIDGoJSON:
		return codec.GoJSON{}, true
	default:
		return nil, false
	}
}

// datasetHeader is the fixed little-endian header at the start of every
// dataset:
//
//	magic | version | dtype | compression | codec | reserved | rows | cols | usize | crc32
//	 u32  |   u16   |  u8   |     u8      |  u8   |   3 B    | u32  | u32  |  u32  |  u32
//
// The CRC covers the uncompressed payload.
type datasetHeader struct {
	dtype       dtype
	compression Compression
	codecID     uint8
	rows        uint32
	cols        uint32
	usize       uint32
	crc         uint32
}

// encodeDataset frames a raw payload with header, checksum and compression.
func encodeDataset(dt dtype, rows, cols int, payload []byte, comp Compression, cID uint8) ([]byte, error) {
	crc := crc32.ChecksumIEEE(payload)

	body, actual, err := compress(payload, comp)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(out[0:4], magicNumber)
	binary.LittleEndian.PutUint16(out[4:6], formatVersion)
	out[6] = byte(dt)
	out[7] = byte(actual)
	out[8] = cID
	binary.LittleEndian.PutUint32(out[12:16], uint32(rows))
	binary.LittleEndian.PutUint32(out[16:20], uint32(cols))
	binary.LittleEndian.PutUint32(out[20:24], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[24:28], crc)
	copy(out[headerSize:], body)
	return out, nil
}

// decodeDataset validates the frame and returns the header plus the
// uncompressed payload.
func decodeDataset(name string, data []byte) (datasetHeader, []byte, error) {
	var hdr datasetHeader
	if len(data) < headerSize {
		return hdr, nil, corrupt(name, "truncated header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magicNumber {
		return hdr, nil, corrupt(name, "bad magic number")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != formatVersion {
		return hdr, nil, corrupt(name, "unsupported format version")
	}
	hdr.dtype = dtype(data[6])
	hdr.compression = Compression(data[7])
	hdr.codecID = data[8]
	hdr.rows = binary.LittleEndian.Uint32(data[12:16])
	hdr.cols = binary.LittleEndian.Uint32(data[16:20])
	hdr.usize = binary.LittleEndian.Uint32(data[20:24])
	hdr.crc = binary.LittleEndian.Uint32(data[24:28])

	if !hdr.compression.valid() {
		return hdr, nil, corrupt(name, "unknown compression")
	}
	payload, err := decompress(data[headerSize:], hdr.compression, int(hdr.usize))
	if err != nil {
		return hdr, nil, corrupt(name, err.Error())
	}
	if len(payload) != int(hdr.usize) {
		return hdr, nil, corrupt(name, "payload size mismatch")
	}
	if crc32.ChecksumIEEE(payload) != hdr.crc {
		return hdr, nil, corrupt(name, "checksum mismatch")
	}
	return hdr, payload, nil
}

func encodeFloats(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(f))
	}
	return out
}

func decodeFloats(payload []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}
	return out
}

func encodeInts(v []int) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[8*i:], uint64(int64(x)))
	}
	return out
}

func decodeInts(payload []byte, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(int64(binary.LittleEndian.Uint64(payload[8*i:])))
	}
	return out
}
