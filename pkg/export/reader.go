package export

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
)

// Reader reads a recording file through memory-mapped I/O. Metadata is
// parsed eagerly; probe payloads decompress on demand.
type Reader struct {
	path   string
	mmap   *mmap.ReaderAt
	meta   Meta
	blocks map[string]blockRef
}

type blockRef struct {
	offset int64
	length uint32
	crc    uint32
}

// Open maps a recording file and parses its metadata and block index.
func Open(path string) (*Reader, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 8)
	if _, err := reader.ReadAt(head, 0); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(head[:4]); magic != RecordingMagic {
		_ = reader.Close()
		return nil, fmt.Errorf("invalid recording magic: %x", magic)
	}
	if version := binary.BigEndian.Uint32(head[4:]); version != RecordingVersion {
		_ = reader.Close()
		return nil, fmt.Errorf("unsupported recording version: %d", version)
	}

	r := &Reader{path: path, mmap: reader, blocks: make(map[string]blockRef)}

	offset := int64(8)
	metaBlock, next, err := r.readBlock(offset, true)
	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to read metadata block: %w", err)
	}
	metaJSON, err := snappy.Decode(nil, metaBlock)
	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to decompress metadata: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &r.meta); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	offset = next

	// Index the probe blocks in metadata order without decompressing them
	for _, pm := range r.meta.Probes {
		ref, n, err := r.indexBlock(offset)
		if err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("probe %q: %w", pm.Name, err)
		}
		r.blocks[pm.Name] = ref
		offset = n
	}

	return r, nil
}

// Meta returns the parsed file header.
func (r *Reader) Meta() Meta { return r.meta }

// Probe decompresses and decodes one probe's recording by name.
func (r *Reader) Probe(name string) (*ProbeData, error) {
	ref, ok := r.blocks[name]
	if !ok {
		return nil, fmt.Errorf("recording has no probe %q", name)
	}
	var pm ProbeMeta
	for _, m := range r.meta.Probes {
		if m.Name == name {
			pm = m
			break
		}
	}

	compressed := make([]byte, ref.length)
	if _, err := r.mmap.ReadAt(compressed, ref.offset); err != nil {
		return nil, fmt.Errorf("failed to read probe block: %w", err)
	}
	if got := crc32.ChecksumIEEE(compressed); got != ref.crc {
		return nil, fmt.Errorf("probe %q checksum mismatch: expected %08x, got %08x", name, ref.crc, got)
	}
	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress probe %q: %w", name, err)
	}
	return decodeProbePayload(pm, payload)
}

// Verify checks every block's CRC without decoding the payloads.
func (r *Reader) Verify() error {
	for name, ref := range r.blocks {
		compressed := make([]byte, ref.length)
		if _, err := r.mmap.ReadAt(compressed, ref.offset); err != nil {
			return fmt.Errorf("probe %q: %w", name, err)
		}
		if got := crc32.ChecksumIEEE(compressed); got != ref.crc {
			return fmt.Errorf("probe %q checksum mismatch: expected %08x, got %08x", name, ref.crc, got)
		}
	}
	return nil
}

// Close unmaps the file.
func (r *Reader) Close() error {
	if r.mmap != nil {
		err := r.mmap.Close()
		r.mmap = nil
		return err
	}
	return nil
}

// readBlock reads a length/payload/CRC frame at offset, optionally
// verifying the checksum, and returns the payload and the next offset.
func (r *Reader) readBlock(offset int64, verify bool) ([]byte, int64, error) {
	lenBuf := make([]byte, 4)
	if _, err := r.mmap.ReadAt(lenBuf, offset); err != nil {
		return nil, 0, err
	}
	length := binary.BigEndian.Uint32(lenBuf)

	payload := make([]byte, length)
	if _, err := r.mmap.ReadAt(payload, offset+4); err != nil {
		return nil, 0, err
	}

	crcBuf := make([]byte, 4)
	if _, err := r.mmap.ReadAt(crcBuf, offset+4+int64(length)); err != nil {
		return nil, 0, err
	}
	if verify {
		want := binary.BigEndian.Uint32(crcBuf)
		if got := crc32.ChecksumIEEE(payload); got != want {
			return nil, 0, fmt.Errorf("checksum mismatch: expected %08x, got %08x", want, got)
		}
	}
	return payload, offset + 8 + int64(length), nil
}

// indexBlock records a frame's position without copying its payload.
func (r *Reader) indexBlock(offset int64) (blockRef, int64, error) {
	lenBuf := make([]byte, 4)
	if _, err := r.mmap.ReadAt(lenBuf, offset); err != nil {
		return blockRef{}, 0, err
	}
	length := binary.BigEndian.Uint32(lenBuf)

	crcBuf := make([]byte, 4)
	if _, err := r.mmap.ReadAt(crcBuf, offset+4+int64(length)); err != nil {
		return blockRef{}, 0, err
	}
	ref := blockRef{
		offset: offset + 4,
		length: length,
		crc:    binary.BigEndian.Uint32(crcBuf),
	}
	return ref, offset + 8 + int64(length), nil
}

func decodeProbePayload(pm ProbeMeta, payload []byte) (*ProbeData, error) {
	if len(payload) < 16 {
		return nil, fmt.Errorf("probe payload truncated: %d bytes", len(payload))
	}
	rows := binary.BigEndian.Uint64(payload[:8])
	cols := binary.BigEndian.Uint64(payload[8:16])

	// bound the header against the payload before multiplying so a corrupt
	// header cannot overflow want or drive huge allocations
	slots := (uint64(len(payload)) - 16) / 8
	if rows > slots || rows > 0 && cols+1 > slots/rows {
		return nil, fmt.Errorf("probe payload header claims %dx%d values in %d bytes", rows, cols, len(payload))
	}
	want := 16 + 8*rows*(cols+1)
	if uint64(len(payload)) != want {
		return nil, fmt.Errorf("probe payload is %d bytes, want %d for %dx%d", len(payload), want, rows, cols)
	}

	p := &ProbeData{
		Meta:  pm,
		Times: make([]float64, rows),
		Rows:  make([][]float64, rows),
	}
	off := uint64(16)
	for i := uint64(0); i < rows; i++ {
		p.Times[i] = readFloat64(payload[off:])
		off += 8
	}
	for i := uint64(0); i < rows; i++ {
		row := make([]float64, cols)
		for j := uint64(0); j < cols; j++ {
			row[j] = readFloat64(payload[off:])
			off += 8
		}
		p.Rows[i] = row
	}
	return p, nil
}

func appendFloat64(buf []byte, v float64) []byte {
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
