package sfsynth

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Samples is the loaded PCM for one sample region, shared by every
// note/channel slot that resolves to it.
type Samples struct {
	SampleRate    uint32
	OriginalPitch uint8
	FrameCount    uint32
	PCM           []int16
}

// numVoiceSlots is 128 MIDI notes times two channels (left, right).
const numVoiceSlots = 256

// Instrument is a fully loaded, pitch-indexed sample table: slot 2k is the
// left channel for MIDI note k, 2k+1 is the right channel.
type Instrument struct {
	Name    string
	samples [numVoiceSlots]*Samples
	Loaded  bool
}

// Left returns the left-channel Samples for MIDI note n.
func (in *Instrument) Left(n int) *Samples { return in.samples[2*n] }

// Right returns the right-channel Samples for MIDI note n.
func (in *Instrument) Right(n int) *Samples { return in.samples[2*n+1] }

// zone is the reduced tuple of generators relevant to loading, as
// produced by scanning one instrument bag's generator range (§4.2).
type zone struct {
	keyLo, keyHi uint8
	pan          int16
	sampleID     uint16
	hasSampleID  bool
	rootKey      uint16 // rootKeyUnset sentinel if not overridden
}

const rootKeyUnset = 0xFFFF

// LoadInstrument implements §4.2: resolves instrument idx's generator
// zones to sample regions, reads the referenced PCM on demand, and builds
// the 256-slot pitch/channel table with gap-filling.
func (sf *SoundFont) LoadInstrument(idx int) (*Instrument, error) {
	if idx < 0 || idx >= sf.NumInstruments() {
		return nil, &FormatError{Chunk: "inst", Msg: "instrument index out of range"}
	}

	raw := sf.Instruments[idx]
	bagLo, bagHi := raw.BagIndex, sf.Instruments[idx+1].BagIndex

	in := &Instrument{Name: raw.Name}
	cache := map[uint16]*Samples{}

	for bi := bagLo; bi < bagHi; bi++ {
		genLo := sf.Bags[bi].GenIndex
		genHi := sf.Bags[bi+1].GenIndex

		z := zone{keyLo: 1, keyHi: 0, pan: 0, rootKey: rootKeyUnset}
		for gi := genLo; gi < genHi; gi++ {
			g := sf.Generators[gi]
			switch g.Oper {
			case GenKeyRange:
				z.keyLo, z.keyHi = g.Amount.Range()
			case GenPan:
				z.pan = g.Amount.Signed()
			case GenSampleID:
				z.sampleID = g.Amount.Unsigned()
				z.hasSampleID = true
			case GenOverridingRootKey:
				z.rootKey = g.Amount.Unsigned()
			}
		}

		if z.keyLo > z.keyHi {
			continue // empty zone, per default (1,0) sentinel
		}
		if !z.hasSampleID {
			continue
		}

		samples, err := sf.loadSamples(z.sampleID, cache)
		if err != nil {
			return nil, err
		}

		rootKey := z.rootKey
		if rootKey == rootKeyUnset {
			rootKey = uint16((uint32(z.keyLo) + uint32(z.keyHi)) / 2)
			warn(fmt.Errorf("instrument %q: zone [%d,%d] has no overridingRootKey, defaulting to %d", raw.Name, z.keyLo, z.keyHi, rootKey))
		}

		// One wrapper per zone: every note in [keyLo,keyHi] shares it,
		// since they all share root pitch, rate, and PCM.
		s := &Samples{
			SampleRate:    samples.SampleRate,
			OriginalPitch: uint8(rootKey),
			FrameCount:    samples.FrameCount,
			PCM:           samples.PCM,
		}
		for k := int(z.keyLo); k <= int(z.keyHi); k++ {
			if z.pan <= 0 {
				in.samples[2*k] = s
			}
			if z.pan >= 0 {
				in.samples[2*k+1] = s
			}
		}
	}

	fillGaps(in)

	if !anyPopulated(in) {
		return nil, &InstrumentEmptyError{Name: raw.Name}
	}

	sanityCheckChannels(in)
	in.Loaded = true
	return in, nil
}

// loadSamples reads PCM for sample header index id, seeking to
// SdtaOffset + start*2 bytes. Results are cached per instrument load since
// multiple zones commonly reference the same sample.
func (sf *SoundFont) loadSamples(id uint16, cache map[uint16]*Samples) (*Samples, error) {
	if s, ok := cache[id]; ok {
		return s, nil
	}
	if int(id) >= len(sf.SampleHeaders) {
		return nil, &FormatError{Chunk: "igen", Msg: "sampleID out of range"}
	}
	hdr := sf.SampleHeaders[id]

	if _, err := sf.r.Seek(sf.SdtaOffset+int64(hdr.Start)*2, io.SeekStart); err != nil {
		return nil, err
	}
	pcm := make([]int16, hdr.Count)
	if err := binary.Read(sf.r, binary.LittleEndian, pcm); err != nil {
		return nil, err
	}

	s := &Samples{
		SampleRate:    hdr.SampleRate,
		OriginalPitch: hdr.OriginalPitch,
		FrameCount:    hdr.Count,
		PCM:           pcm,
	}
	cache[id] = s
	return s, nil
}

// fillGaps implements the two-pass gap fill from §4.2: first mirror a
// populated channel onto its empty sibling (warn), then forward-fill from
// the most recently populated pair, seeded with the first populated pair
// so notes before it are covered too (§8 invariant #1).
func fillGaps(in *Instrument) {
	for k := 0; k < 128; k++ {
		l, r := in.samples[2*k], in.samples[2*k+1]
		if l != nil && r == nil {
			warn(fmt.Errorf("note %d: missing right channel, mirroring left", k))
			in.samples[2*k+1] = l
		} else if r != nil && l == nil {
			warn(fmt.Errorf("note %d: missing left channel, mirroring right", k))
			in.samples[2*k] = r
		}
	}

	var carryL, carryR *Samples
	for k := 0; k < 128; k++ {
		if in.samples[2*k] != nil {
			carryL = in.samples[2*k]
			break
		}
	}
	for k := 0; k < 128; k++ {
		if in.samples[2*k+1] != nil {
			carryR = in.samples[2*k+1]
			break
		}
	}

	for k := 0; k < 128; k++ {
		if in.samples[2*k] != nil {
			carryL = in.samples[2*k]
		} else {
			in.samples[2*k] = carryL
		}
		if in.samples[2*k+1] != nil {
			carryR = in.samples[2*k+1]
		} else {
			in.samples[2*k+1] = carryR
		}
	}
}

func anyPopulated(in *Instrument) bool {
	for _, s := range in.samples {
		if s != nil {
			return true
		}
	}
	return false
}

// sanityCheckChannels implements the final pass of §4.2: if a note's L/R
// channels disagree on sample rate, warn and alias R := L.
func sanityCheckChannels(in *Instrument) {
	for k := 0; k < 128; k++ {
		l, r := in.samples[2*k], in.samples[2*k+1]
		if l == nil || r == nil || l == r {
			continue
		}
		if l.SampleRate != r.SampleRate {
			warn(&ChannelMismatchWarning{Note: k})
			in.samples[2*k+1] = l
		}
	}
}
