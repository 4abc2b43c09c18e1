package sfsynth

import (
	"sync"

	"github.com/pommicket/sfsynth/wav"
)

// numNotes is the MIDI pitch range: one voice per pitch, no voice
// stealing (§4.5).
const numNotes = 128

// Note is the live state of one voice slot (§3 "Note (voice)"). A zero
// Note is a silent, non-existent voice.
type Note struct {
	Exists    bool
	Vel       uint8 // MIDI velocity [0,127], used as vel/128
	Down      bool  // key is physically depressed
	Dampened  bool  // amplitude is decaying
	Dampening float32
	Pos       uint32 // current read position, in source frames
}

// VoiceTable is the single cross-thread owner of all note state: the 128
// Note slots, the sustain-pedal flag, and the recording state. Exactly one
// mutex guards all of it (§4.3, §5) — the MIDI goroutine and the audio
// goroutine are the only two parties that ever touch it, and each holds
// the lock only for a bounded, allocation-free critical section.
type VoiceTable struct {
	mu sync.Mutex

	notes        [numNotes]Note
	sustainPedal bool
	muted        bool

	recording *recordingState
}

// recordingState is guarded by the same mutex as the notes: it is
// mutated by the MIDI thread (controller 48 start/stop) and read/appended
// to by the audio thread's per-block write (§4.4 step 6).
type recordingState struct {
	w             *wav.Writer
	framesWritten uint64
	capped        bool
}

// recordingCapBytes is the 4 GiB soft cap on recording container size
// (§3, §7 RecordingCap).
const recordingCapBytes = 4 << 30

// WithLock runs fn with the voice table locked. Use for a single MIDI
// event's state update or one phase of the audio loop — never around
// blocking device I/O (§4.3).
func (vt *VoiceTable) WithLock(fn func()) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	fn()
}

// Note returns a copy of note n's state. Code in this package that needs
// to mutate it calls WithLock and indexes vt.notes directly instead.
func (vt *VoiceTable) Note(n int) Note {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.notes[n]
}

// IsRecording reports whether a recording is currently open.
func (vt *VoiceTable) IsRecording() bool {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.recording != nil
}

// NoteOn implements §4.5's 0x9n handling: restart (or start) the voice for
// note n unconditionally — there is no voice stealing.
func (vt *VoiceTable) NoteOn(n int, vel uint8) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	vt.notes[n] = Note{
		Exists:    true,
		Vel:       vel,
		Down:      true,
		Dampened:  false,
		Dampening: 1.0,
		Pos:       0,
	}
}

// NoteOff implements §4.5's 0x8n handling: release the key, and if the
// sustain pedal is up, begin dampening immediately.
func (vt *VoiceTable) NoteOff(n int) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	note := &vt.notes[n]
	if !note.Exists {
		return
	}
	note.Down = false
	if !vt.sustainPedal {
		note.Dampened = true
		note.Dampening = 1.0
	}
}

// SetSustainPedal implements controller 64 per §4.5. Note the inversion:
// value 0 means pedal down, 127 means pedal up (see §9) — preserved, not
// "fixed".
func (vt *VoiceTable) SetSustainPedal(value uint8) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	switch value {
	case 0:
		vt.sustainPedal = true
		for i := range vt.notes {
			vt.notes[i].Dampened = false
		}
	case 127:
		vt.sustainPedal = false
		for i := range vt.notes {
			if !vt.notes[i].Down {
				vt.notes[i].Dampened = true
			}
		}
	}
}

// ToggleMute flips the output-wide mute flag and returns the new state.
// Muting silences RenderBlock's output without touching voice state: notes
// keep advancing position and dampening exactly as if they were audible,
// so un-muting resumes mid-note rather than restarting it.
func (vt *VoiceTable) ToggleMute() bool {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	vt.muted = !vt.muted
	return vt.muted
}

// StartRecording makes w, whose WAV header wav.NewWriter has already
// written, the active recording. Returns an error if a recording is
// already in progress.
func (vt *VoiceTable) StartRecording(w *wav.Writer) error {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	if vt.recording != nil {
		return errRecordingAlreadyActive
	}
	vt.recording = &recordingState{w: w}
	return nil
}

// StopRecording detaches the active recording, patches its header via
// Finish, and returns the number of frames written. It does not close the
// underlying file. Returns an error if no recording is active.
func (vt *VoiceTable) StopRecording() (uint64, error) {
	vt.mu.Lock()
	rec := vt.recording
	vt.recording = nil
	vt.mu.Unlock()

	if rec == nil {
		return 0, errNoRecordingActive
	}
	_, err := rec.w.Finish()
	return rec.framesWritten, err
}

// appendRecording writes one block of interleaved stereo frames to the
// active recording, if any, enforcing the 4 GiB soft cap. Called from the
// audio loop's brief re-acquisition of the lock (§4.4 step 6); must not
// block on anything slower than an in-process buffered write.
func (vt *VoiceTable) appendRecording(interleaved []int16) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	rec := vt.recording
	if rec == nil || rec.capped {
		return
	}

	bytes := uint64(len(interleaved)) * 2
	if rec.framesWritten*4+bytes > recordingCapBytes {
		rec.capped = true
		warn(&RecordingCapWarning{})
		return
	}

	if err := rec.w.WriteFrames(interleaved); err != nil {
		warn(err)
		rec.capped = true
		return
	}
	rec.framesWritten += uint64(len(interleaved)) / 2
}
