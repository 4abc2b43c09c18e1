package sfsynth

import (
	"bytes"
	"encoding/binary"

	"github.com/pommicket/sfsynth/wav"
)

// newTestWriter opens a wav.Writer against an in-memory seekable buffer,
// for tests that need a RecordingFile-like sink without touching disk.
func newTestWriter(sb *seekableBuffer, sampleRate int) (*wav.Writer, error) {
	return wav.NewWriter(sb, sampleRate)
}

// sampleFixture is one shdr record plus its backing PCM, as buildSF2 lays
// them out consecutively in sdta.
type sampleFixture struct {
	name            string
	sampleRate      uint32
	pitchCorrection int8
	pcm             []int16
	declaredFrames  int // overrides the shdr end-start frame count when nonzero
}

// zoneFixture is one instrument zone: a generator tuple as §4.2 reduces it.
type zoneFixture struct {
	keyLo, keyHi uint8
	pan          int16
	rootKey      uint16 // rootKeyUnset to omit the overridingRootKey generator
	sampleIdx    int    // index into sf2Fixture.samples
	noSample     bool   // omit the sampleID generator entirely
}

// sf2Fixture describes a single-instrument SF2 byte stream buildSF2
// assembles: enough of the chunk structure (§4.1) for the parser and
// loader tests, with as many samples/zones as a given test needs.
type sf2Fixture struct {
	ifilMajor, ifilMinor uint16
	ifilSize             uint32 // override to inject a malformed ifil chunk

	samples  []sampleFixture
	instName string
	zones    []zoneFixture
}

func defaultFixture() sf2Fixture {
	pcm := make([]int16, 100)
	for i := range pcm {
		pcm[i] = int16(i * 100)
	}
	return sf2Fixture{
		ifilMajor: 2,
		ifilMinor: 1,
		ifilSize:  4,
		samples: []sampleFixture{
			{name: "TestSample", sampleRate: 44100, pcm: pcm},
		},
		instName: "TestPiano",
		zones: []zoneFixture{
			{keyLo: 0, keyHi: 127, pan: 0, rootKey: 60, sampleIdx: 0},
		},
	}
}

func padName(s string) []byte {
	b := make([]byte, 20)
	copy(b, s)
	return b
}

func writeChunk(buf *bytes.Buffer, tag string, payload []byte) {
	buf.WriteString(tag)
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
}

// sdtaTailFrames is the number of zero frames buildSF2 appends after the
// last sample's PCM.
const sdtaTailFrames = 46

// buildSF2 serializes f into the RIFF/SF2 byte structure §4.1 describes.
func buildSF2(f sf2Fixture) []byte {
	var info bytes.Buffer
	ifilSize := f.ifilSize
	if ifilSize == 4 {
		var ifil bytes.Buffer
		binary.Write(&ifil, binary.LittleEndian, f.ifilMajor)
		binary.Write(&ifil, binary.LittleEndian, f.ifilMinor)
		writeChunk(&info, "ifil", ifil.Bytes())
	} else {
		// Malformed fixed-size chunk, e.g. S5's 3-byte ifil.
		writeChunk(&info, "ifil", make([]byte, ifilSize))
	}
	writeChunk(&info, "isng", append([]byte("EMU8000"), 0))
	writeChunk(&info, "INAM", append([]byte("fixture"), 0))

	var infoList bytes.Buffer
	infoList.WriteString("INFO")
	infoList.Write(info.Bytes())

	var sdta bytes.Buffer
	var smpl bytes.Buffer
	for _, s := range f.samples {
		binary.Write(&smpl, binary.LittleEndian, s.pcm)
	}
	// Trailing zero frames, as real SF2 files carry after their samples:
	// the parser requires every sample's end to lie strictly before the
	// end of sdta.
	binary.Write(&smpl, binary.LittleEndian, make([]int16, sdtaTailFrames))
	writeChunk(&sdta, "smpl", smpl.Bytes())

	var sdtaList bytes.Buffer
	sdtaList.WriteString("sdta")
	sdtaList.Write(sdta.Bytes())

	var pdta bytes.Buffer
	// phdr/pbag/pmod/pgen: presets are out of scope (§1); a single
	// sentinel-sized stub chunk each is enough to satisfy "chunk present".
	writeChunk(&pdta, "phdr", make([]byte, 38))
	writeChunk(&pdta, "pbag", make([]byte, 4))
	writeChunk(&pdta, "pmod", nil)
	writeChunk(&pdta, "pgen", nil)

	var inst bytes.Buffer
	inst.Write(padName(f.instName)[:])
	binary.Write(&inst, binary.LittleEndian, uint16(0)) // bagIndex
	inst.Write(padName("EOI")[:])
	binary.Write(&inst, binary.LittleEndian, uint16(len(f.zones))) // sentinel bagIndex
	writeChunk(&pdta, "inst", inst.Bytes())

	var ibag bytes.Buffer
	var gens bytes.Buffer
	var genIdx uint16
	for _, z := range f.zones {
		binary.Write(&ibag, binary.LittleEndian, genIdx)
		binary.Write(&ibag, binary.LittleEndian, uint16(0)) // modIndex

		if z.keyLo <= z.keyHi {
			binary.Write(&gens, binary.LittleEndian, uint16(GenKeyRange))
			binary.Write(&gens, binary.LittleEndian, uint16(z.keyLo)|uint16(z.keyHi)<<8)
			genIdx++

			binary.Write(&gens, binary.LittleEndian, uint16(GenPan))
			binary.Write(&gens, binary.LittleEndian, uint16(z.pan))
			genIdx++

			if !z.noSample {
				binary.Write(&gens, binary.LittleEndian, uint16(GenSampleID))
				binary.Write(&gens, binary.LittleEndian, uint16(z.sampleIdx))
				genIdx++
			}

			if z.rootKey != rootKeyUnset {
				binary.Write(&gens, binary.LittleEndian, uint16(GenOverridingRootKey))
				binary.Write(&gens, binary.LittleEndian, z.rootKey)
				genIdx++
			}
		}
	}
	binary.Write(&ibag, binary.LittleEndian, genIdx) // sentinel genIndex
	binary.Write(&ibag, binary.LittleEndian, uint16(0))
	writeChunk(&pdta, "ibag", ibag.Bytes())
	writeChunk(&pdta, "igen", gens.Bytes())

	var shdr bytes.Buffer
	var start uint32
	for _, s := range f.samples {
		frames := len(s.pcm)
		if s.declaredFrames != 0 {
			frames = s.declaredFrames
		}
		end := start + uint32(frames)
		shdr.Write(padName(s.name)[:])
		binary.Write(&shdr, binary.LittleEndian, start)
		binary.Write(&shdr, binary.LittleEndian, end)
		binary.Write(&shdr, binary.LittleEndian, start)           // startLoop
		binary.Write(&shdr, binary.LittleEndian, end)              // endLoop
		binary.Write(&shdr, binary.LittleEndian, s.sampleRate)
		binary.Write(&shdr, binary.LittleEndian, uint8(60)) // originalPitch
		binary.Write(&shdr, binary.LittleEndian, s.pitchCorrection)
		binary.Write(&shdr, binary.LittleEndian, uint16(0)) // sampleLink
		binary.Write(&shdr, binary.LittleEndian, uint16(1)) // sampleType (mono)
		start = end
	}
	shdr.Write(padName("EOS")[:])
	binary.Write(&shdr, binary.LittleEndian, uint32(0))
	binary.Write(&shdr, binary.LittleEndian, uint32(0))
	binary.Write(&shdr, binary.LittleEndian, uint32(0))
	binary.Write(&shdr, binary.LittleEndian, uint32(0))
	binary.Write(&shdr, binary.LittleEndian, uint32(0))
	binary.Write(&shdr, binary.LittleEndian, uint8(0))
	binary.Write(&shdr, binary.LittleEndian, int8(0))
	binary.Write(&shdr, binary.LittleEndian, uint16(0))
	binary.Write(&shdr, binary.LittleEndian, uint16(0))
	writeChunk(&pdta, "shdr", shdr.Bytes())

	var pdtaList bytes.Buffer
	pdtaList.WriteString("pdta")
	pdtaList.Write(pdta.Bytes())

	var sfbk bytes.Buffer
	sfbk.WriteString("sfbk")
	writeChunk(&sfbk, "LIST", infoList.Bytes())
	writeChunk(&sfbk, "LIST", sdtaList.Bytes())
	writeChunk(&sfbk, "LIST", pdtaList.Bytes())

	var out bytes.Buffer
	writeChunk(&out, "RIFF", sfbk.Bytes())
	return out.Bytes()
}

// seekableBuffer adapts a growable byte buffer into an io.WriteSeeker for
// tests that need to patch already-written bytes (the WAV header), the way
// *os.File does in production.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = s.pos
	case 2:
		base = int64(len(s.buf))
	}
	s.pos = base + offset
	return s.pos, nil
}

func (s *seekableBuffer) Bytes() []byte { return s.buf }
