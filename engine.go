package sfsynth

import (
	"math"

	"github.com/pommicket/sfsynth/internal/devicehook"
)

// DefaultBlockFrames and DefaultSampleRate give the 10 ms / 44.1 kHz
// default block from §4.4.
const (
	DefaultBlockFrames = 441
	DefaultSampleRate  = 44100
)

// dampeningDecayBase is the 0.05^(NF/SR) per-block decay factor's base: a
// ~0.05 multiplier every second, i.e. a one-second time constant of 0.05
// (§4.4 step 3).
const dampeningDecayBase = 0.05

// Engine is the audio render loop (§4.4): a tight, allocation-free loop
// that mixes every live voice into a fixed-size block, normalizes it, and
// hands it to a devicehook.Sink. All per-block scratch buffers are
// allocated once, in NewEngine, never per-block — the audio thread does
// no heap allocation after instrument load (§5).
type Engine struct {
	Instrument *Instrument
	Voices     *VoiceTable
	SampleRate int
	NF         int

	accL, accR     []float32
	outL, outR     []int16
	interleaved    []int16
	dampeningDecay float32
}

// NewEngine constructs a render loop for instrument against voices,
// producing nf-frame blocks at sampleRate.
func NewEngine(instrument *Instrument, voices *VoiceTable, sampleRate, nf int) *Engine {
	return &Engine{
		Instrument:     instrument,
		Voices:         voices,
		SampleRate:     sampleRate,
		NF:             nf,
		accL:           make([]float32, nf),
		accR:           make([]float32, nf),
		outL:           make([]int16, nf),
		outR:           make([]int16, nf),
		interleaved:    make([]int16, nf*2),
		dampeningDecay: float32(math.Pow(dampeningDecayBase, float64(nf)/float64(sampleRate))),
	}
}

// RenderBlock produces exactly one NF-frame block into e.outL/e.outR and
// returns them. It implements §4.4 steps 1-6; step 7 (device submission)
// is the caller's job via Run or a direct Submit call, always with the
// voice-table lock released.
func (e *Engine) RenderBlock() (left, right []int16) {
	for i := range e.accL {
		e.accL[i] = 0
		e.accR[i] = 0
	}

	e.Voices.mu.Lock()
	muted := e.Voices.muted
	for n := 0; n < numNotes; n++ {
		note := &e.Voices.notes[n]
		if !note.Exists {
			continue
		}

		sl := e.Instrument.Left(n)
		sr := e.Instrument.Right(n)
		if sl == nil {
			continue
		}
		if sr == nil || sr.FrameCount != sl.FrameCount {
			warn(&ChannelMismatchWarning{Note: n})
			sr = sl
		}

		if note.Pos >= sl.FrameCount {
			note.Exists = false
			continue
		}

		timeMultiplier := (float64(sl.SampleRate) / float64(e.SampleRate)) *
			math.Pow(2, float64(n-int(sl.OriginalPitch))/12)

		if note.Dampened {
			note.Dampening *= e.dampeningDecay
		}

		volume := (float32(note.Vel) / 128) * note.Dampening * (1.0 / 32767.0)

		inIdx := float64(note.Pos)
		for t := 0; t < e.NF; t++ {
			ii := int(math.Floor(inIdx))
			if ii >= int(sl.FrameCount) {
				break
			}
			e.accL[t] += float32(sl.PCM[ii]) * volume
			e.accR[t] += float32(sr.PCM[ii]) * volume
			inIdx += timeMultiplier
		}
		note.Pos = uint32(math.Floor(inIdx))

		if float64(note.Pos)+math.Ceil(timeMultiplier) >= float64(sl.FrameCount) {
			note.Exists = false
		}
	}
	e.Voices.mu.Unlock()

	if muted {
		for i := range e.accL {
			e.accL[i] = 0
			e.accR[i] = 0
		}
	}

	normalizeBlock(e.accL, e.outL)
	normalizeBlock(e.accR, e.outR)

	if e.Voices.IsRecording() {
		for i := 0; i < e.NF; i++ {
			e.interleaved[2*i] = e.outL[i]
			e.interleaved[2*i+1] = e.outR[i]
		}
		e.Voices.appendRecording(e.interleaved)
	}

	return e.outL, e.outR
}

// normalizeBlock implements §4.4 step 5: scale by 32767/peak with a 1.0
// floor so quiet blocks are never amplified, then quantize to int16.
func normalizeBlock(acc []float32, out []int16) {
	peak := float32(1.0)
	for _, v := range acc {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	scale := 32767 / peak
	for i, v := range acc {
		out[i] = int16(v * scale)
	}
}

// Run drives the render loop until stop is closed or a Submit error cannot
// be recovered (the sink has no Recover, or Recover fails), per §4.4 step 7
// / §7 DeviceUnderrun.
func (e *Engine) Run(stop <-chan struct{}, sink devicehook.Sink) error {
	recoverer, _ := sink.(devicehook.Recoverer)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		left, right := e.RenderBlock()
		if err := sink.Submit(left, right); err != nil {
			if recoverer == nil {
				return &DeviceUnderrunError{Err: err}
			}
			if rerr := recoverer.Recover(err); rerr != nil {
				return &DeviceUnderrunError{Err: rerr}
			}
		}
	}
}
