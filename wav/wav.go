// Package wav writes the PCM output container described in §6: a
// standard 44-byte-header RIFF WAVE file, canonical field order, with the
// two size fields patched in by Finish.
package wav

import (
	"encoding/binary"
	"io"
)

const pcmFormat = 1

// Writer appends interleaved signed 16-bit stereo frames to a
// WriteSeeker, patching the header's size fields on Finish. Unlike
// writers that require knowing the data length up front, it writes
// zero-valued placeholders and comes back for them.
type Writer struct {
	ws         io.WriteSeeker
	sampleRate int
}

// format is the canonical `fmt ` sub-chunk body. The source program this
// engine is modeled on writes two of these fields in the wrong order (see
// §9); this layout is the fix.
type format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// NewWriter writes the RIFF/WAVE/fmt header (with zero size placeholders)
// and returns a Writer ready for WriteFrames calls.
func NewWriter(ws io.WriteSeeker, sampleRate int) (*Writer, error) {
	w := &Writer{ws: ws, sampleRate: sampleRate}

	if _, err := ws.Write([]byte("RIFF")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, uint32(0)); err != nil {
		return nil, err
	}
	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("fmt ")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, uint32(16)); err != nil {
		return nil, err
	}
	f := format{
		AudioFormat:   pcmFormat,
		Channels:      2,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 4,
		BlockAlign:    4,
		BitsPerSample: 16,
	}
	if err := binary.Write(ws, binary.LittleEndian, f); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("data")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, uint32(0)); err != nil {
		return nil, err
	}

	return w, nil
}

// WriteFrames appends interleaved signed 16-bit stereo samples
// (L,R,L,R,...) to the file.
func (w *Writer) WriteFrames(interleaved []int16) error {
	return binary.Write(w.ws, binary.LittleEndian, interleaved)
}

// Finish patches the RIFF and data chunk size fields from the current
// write position and returns the total file length.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	if _, err := w.ws.Seek(4, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, uint32(wlen-8)); err != nil {
		return 0, err
	}

	if _, err := w.ws.Seek(40, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, uint32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}
