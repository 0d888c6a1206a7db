// Package export persists recorded probe data. Recordings go to a
// compressed binary file with per-block checksums, readable back through a
// memory-mapped reader, or to CSV for downstream tooling.
package export

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"github.com/golang/snappy"

	"github.com/goodluckcjj/nengo/pkg/model"
	"github.com/goodluckcjj/nengo/pkg/sim"
)

const (
	// RecordingMagic marks a probe recording file
	RecordingMagic uint32 = 0x4E475243 // "NGRC"
	// RecordingVersion is the current file format version
	RecordingVersion uint32 = 1
)

// ProbeMeta describes one recorded probe.
type ProbeMeta struct {
	Name    string `json:"name"`
	Target  string `json:"target"`
	Attr    string `json:"attr"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
}

// Meta is the recording file header.
type Meta struct {
	Network   string      `json:"network"`
	Seed      int64       `json:"seed"`
	Dt        float64     `json:"dt"`
	Steps     uint64      `json:"steps"`
	CreatedAt time.Time   `json:"created_at"`
	Probes    []ProbeMeta `json:"probes"`
}

// ProbeData is one probe's recording: sample times and one row per sample.
type ProbeData struct {
	Meta  ProbeMeta
	Times []float64
	Rows  [][]float64
}

// Recording bundles everything one run produced.
type Recording struct {
	Network   string
	Seed      int64
	Dt        float64
	Steps     uint64
	CreatedAt time.Time
	Probes    []ProbeData
}

// FromSimulator snapshots all probe data out of a simulator into a
// Recording ready to write.
func FromSimulator(s *sim.Simulator, net *model.Network) (*Recording, error) {
	rec := &Recording{
		Network:   net.Name(),
		Seed:      net.Seed(),
		Dt:        s.Dt(),
		Steps:     s.Steps(),
		CreatedAt: time.Now().UTC(),
	}
	for _, p := range net.Probes() {
		rows, err := s.Data(p)
		if err != nil {
			return nil, err
		}
		times, err := s.Times(p)
		if err != nil {
			return nil, err
		}
		rec.Probes = append(rec.Probes, ProbeData{
			Meta: ProbeMeta{
				Name:    p.ObjectName(),
				Target:  p.Target.ObjectName(),
				Attr:    string(p.Attr),
				Columns: p.Columns(),
				Rows:    len(rows),
			},
			Times: times,
			Rows:  rows,
		})
	}
	return rec, nil
}

// Write serializes a recording to path. The layout is a magic/version
// header, a snappy-compressed JSON metadata block, then one compressed
// data block per probe, each protected by a CRC32 of its compressed bytes.
func Write(path string, rec *Recording) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	if err := binary.Write(w, binary.BigEndian, RecordingMagic); err != nil {
		return fmt.Errorf("failed to write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, RecordingVersion); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	meta := Meta{
		Network:   rec.Network,
		Seed:      rec.Seed,
		Dt:        rec.Dt,
		Steps:     rec.Steps,
		CreatedAt: rec.CreatedAt,
	}
	for _, p := range rec.Probes {
		meta.Probes = append(meta.Probes, p.Meta)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := writeBlock(w, snappy.Encode(nil, metaJSON)); err != nil {
		return fmt.Errorf("failed to write metadata block: %w", err)
	}

	for _, p := range rec.Probes {
		payload, err := encodeProbePayload(&p)
		if err != nil {
			return fmt.Errorf("probe %q: %w", p.Meta.Name, err)
		}
		if err := writeBlock(w, snappy.Encode(nil, payload)); err != nil {
			return fmt.Errorf("failed to write probe %q: %w", p.Meta.Name, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush recording: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync recording: %w", err)
	}
	return nil
}

// writeBlock frames compressed data as length, payload, CRC32 of payload.
func writeBlock(w *bufio.Writer, compressed []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, crc32.ChecksumIEEE(compressed))
}

// encodeProbePayload flattens a probe recording: row and column counts,
// sample times, then values row-major, all as big-endian float64/uint64.
func encodeProbePayload(p *ProbeData) ([]byte, error) {
	if len(p.Times) != len(p.Rows) {
		return nil, fmt.Errorf("%d times but %d rows", len(p.Times), len(p.Rows))
	}
	cols := p.Meta.Columns
	buf := make([]byte, 0, 16+8*len(p.Times)*(cols+1))
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(p.Rows)))
	buf = binary.BigEndian.AppendUint64(buf, uint64(cols))
	for _, t := range p.Times {
		buf = appendFloat64(buf, t)
	}
	for i, row := range p.Rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		for _, v := range row {
			buf = appendFloat64(buf, v)
		}
	}
	return buf, nil
}
