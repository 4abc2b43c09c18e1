package sfsynth

import (
	"bufio"
	"io"

	"github.com/pommicket/sfsynth/wav"
)

// Controller numbers meaningful to this engine (§4.5). All others are
// read and ignored.
const (
	ccSustainPedal  = 64
	ccRecordToggle  = 48
	ccPedalDownVal  = 0   // inverted from the MIDI standard convention; preserved, not fixed (§9)
	ccPedalUpVal    = 127
	ccRecordStart   = 127
	ccRecordStop    = 0
)

// RecordingFile is the minimal handle the recording container needs: a
// seekable writer (to patch the header at Finish) that can be closed.
// *os.File satisfies this.
type RecordingFile interface {
	io.WriteSeeker
	io.Closer
}

// RecordingOpener is supplied by the caller (the out-of-scope device/file
// layer per §1) to open the backing file for a new recording when
// controller 48 requests one.
type RecordingOpener func() (RecordingFile, error)

// MIDIListener implements §4.5: it reads raw bytes from a MIDI device
// file and mutates a VoiceTable in response. It runs on the caller's
// goroutine to completion of each event before reading the next byte,
// matching the "MIDI thread" of §5.
type MIDIListener struct {
	Voices        *VoiceTable
	SampleRate    int
	OpenRecording RecordingOpener // nil disables the record-toggle controller

	recordingFile RecordingFile
}

// Run reads from r until it returns an error (io.EOF is treated as a
// normal end of stream and returns nil).
func (m *MIDIListener) Run(r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		status, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		// High bit unset: a data byte arriving without a preceding
		// status byte we recognize. No running status is supported
		// (§4.5) — just skip it.
		if status&0x80 == 0 {
			continue
		}

		switch (status & 0xf0) >> 4 {
		case 0x8: // note off
			n, _, ok := readTwoDataBytes(br)
			if !ok {
				continue
			}
			m.Voices.NoteOff(int(n))
		case 0x9: // note on
			n, v, ok := readTwoDataBytes(br)
			if !ok {
				continue
			}
			m.Voices.NoteOn(int(n), v)
		case 0xB: // controller change
			controller, value, ok := readTwoDataBytes(br)
			if !ok {
				continue
			}
			switch controller {
			case ccSustainPedal:
				m.Voices.SetSustainPedal(value)
			case ccRecordToggle:
				m.handleRecordToggle(value)
			}
		default:
			// Every other status class is read and its data bytes are
			// left in the stream: a robust decoder would dispatch by
			// message length per the MIDI spec, but this core only
			// knows the byte-length of the three classes above. A
			// stray SysEx or one-byte realtime message here will
			// desynchronize the stream — an intentional, documented
			// limitation (§9), not a bug to fix.
		}
	}
}

// readTwoDataBytes reads two MIDI data bytes and validates each is
// <=127, per §4.5. ok is false if either byte is out of range or the
// stream ended early, in which case the message is silently discarded.
func readTwoDataBytes(br *bufio.Reader) (a, b uint8, ok bool) {
	x, err := br.ReadByte()
	if err != nil {
		return 0, 0, false
	}
	y, err := br.ReadByte()
	if err != nil {
		return 0, 0, false
	}
	if x > 127 || y > 127 {
		return 0, 0, false
	}
	return x, y, true
}

func (m *MIDIListener) handleRecordToggle(value uint8) {
	switch value {
	case ccRecordStart:
		if m.OpenRecording == nil || m.recordingFile != nil {
			return
		}
		f, err := m.OpenRecording()
		if err != nil {
			warn(err)
			return
		}
		w, err := wav.NewWriter(f, m.SampleRate)
		if err != nil {
			warn(err)
			f.Close()
			return
		}
		if err := m.Voices.StartRecording(w); err != nil {
			warn(err)
			f.Close()
			return
		}
		m.recordingFile = f
	case ccRecordStop:
		if m.recordingFile == nil {
			return
		}
		if _, err := m.Voices.StopRecording(); err != nil {
			warn(err)
		}
		m.recordingFile.Close()
		m.recordingFile = nil
	}
}
