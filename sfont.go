// Package sfsynth parses SoundFont 2 banks and renders them in real time
// against a MIDI byte stream. See SPEC_FULL.md for the two
// subsystems: the SF2 parser (this file, instrument.go, generator.go) and
// the real-time engine (voice.go, engine.go, midi.go).
package sfsynth

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// chunk is one RIFF chunk: a 4-byte tag, a little-endian size, and
// (for non-list chunks we actually care about) its payload.
type chunk struct {
	id   [4]byte
	size uint32
}

func readChunkHeader(r io.Reader) (chunk, error) {
	var c chunk
	if _, err := io.ReadFull(r, c.id[:]); err != nil {
		return c, err
	}
	if err := binary.Read(r, binary.LittleEndian, &c.size); err != nil {
		return c, err
	}
	return c, nil
}

func (c chunk) is(tag string) bool { return string(c.id[:]) == tag }

// expectChunk reads the next chunk header and verifies its tag.
func expectChunk(r io.Reader, tag string) (chunk, error) {
	c, err := readChunkHeader(r)
	if err != nil {
		return c, err
	}
	if !c.is(tag) {
		return c, &FormatError{Chunk: tag, Msg: fmt.Sprintf("expected %q chunk, got %q", tag, string(c.id[:]))}
	}
	return c, nil
}

// skip discards n bytes from r by seeking forward from the current
// position; it does not read the skipped bytes.
func skip(r io.Seeker, n int64) error {
	_, err := r.Seek(n, io.SeekCurrent)
	return err
}

// SampleHeader is the loader-relevant subset of an shdr record: enough to
// locate and validate one sample's PCM region without reading it.
type SampleHeader struct {
	Name            string
	Start           uint32 // absolute start frame within sdta
	Count           uint32 // end - start, in frames
	LoopStart       uint32
	LoopEnd         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
}

// RawInstrument is an unexpanded inst record: a name and the index of its
// first instrument bag. The bag range for instrument i is
// [BagIndex, instruments[i+1].BagIndex).
type RawInstrument struct {
	Name     string
	BagIndex uint16
}

// Bag is an ibag record: the starting index into the generator (and
// modulator) list for one zone.
type Bag struct {
	GenIndex uint16
	ModIndex uint16
}

// SoundFont is the result of parsing an SF2 file's chunk structure. It
// holds only the tables the engine needs — presets, preset bags, preset
// generators, and modulators are parsed only far enough to be skipped, per
// §1's scope.
type SoundFont struct {
	r io.ReadSeeker

	SampleHeaders []SampleHeader // sentinel (last) entry dropped
	Instruments   []RawInstrument
	Bags          []Bag
	Generators    []Generator

	SdtaOffset       int64 // absolute byte offset of the first PCM frame
	SampleFrameCount uint32
}

// ReadSoundFont parses the RIFF/SF2 chunk structure from r, which must be
// positioned at the start of the file. It does not read PCM sample data;
// it records SdtaOffset and seeks past sdta. r is retained on the returned
// SoundFont so that LoadInstrument can later seek back into it.
func ReadSoundFont(r io.ReadSeeker) (*SoundFont, error) {
	sf := &SoundFont{r: r}

	riff, err := expectChunk(r, "RIFF")
	if err != nil {
		return nil, err
	}
	var form [4]byte
	if _, err := io.ReadFull(r, form[:]); err != nil {
		return nil, err
	}
	if string(form[:]) != "sfbk" {
		return nil, &FormatError{Chunk: "RIFF", Msg: fmt.Sprintf("form type %q, expected sfbk", string(form[:]))}
	}
	_ = riff

	if err := sf.readInfoList(); err != nil {
		return nil, err
	}
	if err := sf.readSdtaList(); err != nil {
		return nil, err
	}
	if err := sf.readPdtaList(); err != nil {
		return nil, err
	}

	return sf, nil
}

func (sf *SoundFont) readInfoList() error {
	list, err := expectChunk(sf.r, "LIST")
	if err != nil {
		return err
	}
	var listType [4]byte
	if _, err := io.ReadFull(sf.r, listType[:]); err != nil {
		return err
	}
	if string(listType[:]) != "INFO" {
		return &FormatError{Chunk: "LIST", Msg: "expected INFO list type"}
	}
	remaining := int64(list.size) - 4

	var sawIfil bool
	for remaining > 0 {
		c, err := readChunkHeader(sf.r)
		if err != nil {
			return err
		}
		remaining -= 8

		switch {
		case c.is("ifil"):
			if c.size != 4 {
				return &FormatError{Chunk: "ifil", Msg: fmt.Sprintf("size %d, expected 4", c.size)}
			}
			var major, minor uint16
			if err := binary.Read(sf.r, binary.LittleEndian, &major); err != nil {
				return err
			}
			if err := binary.Read(sf.r, binary.LittleEndian, &minor); err != nil {
				return err
			}
			if major != 2 {
				warn(&VersionWarning{Major: major, Minor: minor})
			}
			sawIfil = true
		default:
			if err := skip(sf.r, int64(c.size)); err != nil {
				return err
			}
		}
		remaining -= int64(c.size)
	}
	if !sawIfil {
		return &FormatError{Chunk: "INFO", Msg: "missing required ifil chunk"}
	}
	return nil
}

func (sf *SoundFont) readSdtaList() error {
	list, err := expectChunk(sf.r, "LIST")
	if err != nil {
		return err
	}
	var listType [4]byte
	if _, err := io.ReadFull(sf.r, listType[:]); err != nil {
		return err
	}
	if string(listType[:]) != "sdta" {
		return &FormatError{Chunk: "LIST", Msg: "expected sdta list type"}
	}
	remaining := int64(list.size) - 4

	var sawSmpl bool
	for remaining > 0 {
		c, err := readChunkHeader(sf.r)
		if err != nil {
			return err
		}
		remaining -= 8

		if c.is("smpl") {
			off, err := sf.r.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			sf.SdtaOffset = off
			sf.SampleFrameCount = c.size / 2
			sawSmpl = true
		}
		if err := skip(sf.r, int64(c.size)); err != nil {
			return err
		}
		remaining -= int64(c.size)
	}
	if !sawSmpl {
		return &FormatError{Chunk: "sdta", Msg: "missing required smpl chunk"}
	}
	return nil
}

func (sf *SoundFont) readPdtaList() error {
	list, err := expectChunk(sf.r, "LIST")
	if err != nil {
		return err
	}
	var listType [4]byte
	if _, err := io.ReadFull(sf.r, listType[:]); err != nil {
		return err
	}
	if string(listType[:]) != "pdta" {
		return &FormatError{Chunk: "LIST", Msg: "expected pdta list type"}
	}
	remaining := int64(list.size) - 4

	seen := map[string]bool{}
	for remaining > 0 {
		c, err := readChunkHeader(sf.r)
		if err != nil {
			return err
		}
		remaining -= 8
		remaining -= int64(c.size)

		tag := string(c.id[:])
		seen[tag] = true

		switch tag {
		case "phdr", "pbag", "pmod", "pgen", "imod":
			// Not needed by the engine (§1): presets, preset zones,
			// preset/instrument modulators. Consumed and discarded.
			if err := skip(sf.r, int64(c.size)); err != nil {
				return err
			}
		case "inst":
			if err := sf.readInstruments(c.size); err != nil {
				return err
			}
		case "ibag":
			if err := sf.readBags(c.size); err != nil {
				return err
			}
		case "igen":
			if err := sf.readGenerators(c.size); err != nil {
				return err
			}
		case "shdr":
			if err := sf.readSampleHeaders(c.size); err != nil {
				return err
			}
		default:
			if err := skip(sf.r, int64(c.size)); err != nil {
				return err
			}
		}
	}

	for _, tag := range []string{"inst", "ibag", "igen", "shdr"} {
		if !seen[tag] {
			return &FormatError{Chunk: "pdta", Msg: fmt.Sprintf("missing required %q chunk", tag)}
		}
	}
	return nil
}

const instRecordSize = 22

// readInstruments keeps the trailing sentinel record, unlike shdr: its
// BagIndex is what bounds the last real instrument's zone range (§4.2
// needs bag_index(i+1) for every real instrument, including the last).
func (sf *SoundFont) readInstruments(size uint32) error {
	if size%instRecordSize != 0 {
		return &FormatError{Chunk: "inst", Msg: fmt.Sprintf("size %d not a multiple of %d", size, instRecordSize)}
	}
	n := int(size / instRecordSize)
	sf.Instruments = make([]RawInstrument, n)
	for i := 0; i < n; i++ {
		var name [20]byte
		if _, err := io.ReadFull(sf.r, name[:]); err != nil {
			return err
		}
		var bagIdx uint16
		if err := binary.Read(sf.r, binary.LittleEndian, &bagIdx); err != nil {
			return err
		}
		sf.Instruments[i] = RawInstrument{
			Name:     cString(name[:]),
			BagIndex: bagIdx,
		}
	}
	return nil
}

// NumInstruments returns the number of usable (non-sentinel) instruments.
func (sf *SoundFont) NumInstruments() int {
	if len(sf.Instruments) == 0 {
		return 0
	}
	return len(sf.Instruments) - 1
}

const bagRecordSize = 4

func (sf *SoundFont) readBags(size uint32) error {
	if size%bagRecordSize != 0 {
		return &FormatError{Chunk: "ibag", Msg: fmt.Sprintf("size %d not a multiple of %d", size, bagRecordSize)}
	}
	n := int(size / bagRecordSize)
	sf.Bags = make([]Bag, n)
	for i := range sf.Bags {
		if err := binary.Read(sf.r, binary.LittleEndian, &sf.Bags[i]); err != nil {
			return err
		}
	}
	return nil
}

const genRecordSize = 4

func (sf *SoundFont) readGenerators(size uint32) error {
	if size%genRecordSize != 0 {
		return &FormatError{Chunk: "igen", Msg: fmt.Sprintf("size %d not a multiple of %d", size, genRecordSize)}
	}
	n := int(size / genRecordSize)
	sf.Generators = make([]Generator, n)
	for i := range sf.Generators {
		var oper uint16
		var amount uint16
		if err := binary.Read(sf.r, binary.LittleEndian, &oper); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &amount); err != nil {
			return err
		}
		sf.Generators[i] = Generator{Oper: SFGenerator(oper), Amount: GenAmount(amount)}
	}
	return nil
}

const shdrRecordSize = 46

func (sf *SoundFont) readSampleHeaders(size uint32) error {
	if size%shdrRecordSize != 0 {
		return &FormatError{Chunk: "shdr", Msg: fmt.Sprintf("size %d not a multiple of %d", size, shdrRecordSize)}
	}
	n := int(size / shdrRecordSize)
	sf.SampleHeaders = make([]SampleHeader, 0, n-1)
	for i := 0; i < n; i++ {
		var name [20]byte
		var start, end, startLoop, endLoop, sampleRate uint32
		var originalPitch uint8
		var pitchCorrection int8
		var sampleLink, sampleType uint16

		if _, err := io.ReadFull(sf.r, name[:]); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &start); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &end); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &startLoop); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &endLoop); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &sampleRate); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &originalPitch); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &pitchCorrection); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &sampleLink); err != nil {
			return err
		}
		if err := binary.Read(sf.r, binary.LittleEndian, &sampleType); err != nil {
			return err
		}

		if i == n-1 {
			break // sentinel: consumed, discarded
		}

		if end <= start || end >= sf.SampleFrameCount {
			return &SampleRangeError{Name: cString(name[:]), Start: start, End: end, NumFrames: sf.SampleFrameCount}
		}
		if pitchCorrection != 0 {
			warn(&PitchCorrectionWarning{Name: cString(name[:]), Correction: pitchCorrection})
		}

		sf.SampleHeaders = append(sf.SampleHeaders, SampleHeader{
			Name:            cString(name[:]),
			Start:           start,
			Count:           end - start,
			LoopStart:       startLoop,
			LoopEnd:         endLoop,
			SampleRate:      sampleRate,
			OriginalPitch:   originalPitch,
			PitchCorrection: pitchCorrection,
		})
	}
	return nil
}

// cString trims a fixed-width, NUL-padded ASCII field down to its
// meaningful prefix.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
