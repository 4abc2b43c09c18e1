package sfsynth

import (
	"errors"
	"fmt"
)

var (
	errRecordingAlreadyActive = errors.New("recording already in progress")
	errNoRecordingActive      = errors.New("no recording in progress")
)

// FileOpenError reports that the SF2 file or a MIDI device file could not
// be opened.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error { return e.Err }

// FormatError reports a violation of the SF2 chunk structure: a missing,
// out-of-order, or mis-sized required chunk.
type FormatError struct {
	Chunk string
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sf2 format error in %q chunk: %s", e.Chunk, e.Msg)
}

// SampleRangeError reports a sample header whose end frame does not lie
// strictly before the end of the sdta PCM data, or whose start is not
// before its end.
type SampleRangeError struct {
	Name       string
	Start, End uint32
	NumFrames  uint32
}

func (e *SampleRangeError) Error() string {
	return fmt.Sprintf("sample %q has range [%d,%d) outside sdta of %d frames", e.Name, e.Start, e.End, e.NumFrames)
}

// InstrumentEmptyError reports that an instrument never populated a single
// note/channel slot while loading. The original C implementation this
// engine is modeled on treats this condition as a silent no-op; this
// implementation treats it as fatal, per the error taxonomy.
type InstrumentEmptyError struct {
	Name string
}

func (e *InstrumentEmptyError) Error() string {
	return fmt.Sprintf("instrument %q has no populated sample slots", e.Name)
}

// VersionWarning reports a non-fatal SF2 major-version mismatch.
type VersionWarning struct {
	Major, Minor uint16
}

func (w *VersionWarning) Error() string {
	return fmt.Sprintf("sf2 version %d.%d (expected major version 2)", w.Major, w.Minor)
}

// PitchCorrectionWarning reports a non-zero pitch correction value on a
// sample, which this engine records but does not apply.
type PitchCorrectionWarning struct {
	Name       string
	Correction int8
}

func (w *PitchCorrectionWarning) Error() string {
	return fmt.Sprintf("sample %q has non-zero pitch correction %d (ignored)", w.Name, w.Correction)
}

// ChannelMismatchWarning reports a left/right channel sample-rate (or
// sample-count) mismatch discovered during the loader's sanity pass.
type ChannelMismatchWarning struct {
	Note int
}

func (w *ChannelMismatchWarning) Error() string {
	return fmt.Sprintf("note %d: left/right sample rate mismatch, aliasing R := L", w.Note)
}

// DeviceUnderrunError reports that a write to the audio output device
// returned short or failed, and that recovery also failed.
type DeviceUnderrunError struct {
	Err error
}

func (e *DeviceUnderrunError) Error() string {
	return fmt.Sprintf("audio device underrun, recovery failed: %v", e.Err)
}

func (e *DeviceUnderrunError) Unwrap() error { return e.Err }

// RecordingCapWarning reports that an in-progress recording has reached
// the 4 GiB soft cap and further writes are being suppressed.
type RecordingCapWarning struct{}

func (w *RecordingCapWarning) Error() string {
	return "recording reached the 4 GiB cap, suppressing further writes"
}
