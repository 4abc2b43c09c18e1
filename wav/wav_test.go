package wav

import (
	"encoding/binary"
	"testing"
)

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

func TestNewWriterHeaderLayout(t *testing.T) {
	sb := &seekableBuffer{}
	if _, err := NewWriter(sb, 44100); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	data := sb.buf
	if len(data) != 44 {
		t.Fatalf("header length = %d, want 44", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("tag[0:4] = %q, want RIFF", data[0:4])
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("tag[8:12] = %q, want WAVE", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Errorf("tag[12:16] = %q, want \"fmt \"", data[12:16])
	}
	fmtSize := binary.LittleEndian.Uint32(data[16:20])
	if fmtSize != 16 {
		t.Errorf("fmt chunk size = %d, want 16", fmtSize)
	}

	audioFormat := binary.LittleEndian.Uint16(data[20:22])
	channels := binary.LittleEndian.Uint16(data[22:24])
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	byteRate := binary.LittleEndian.Uint32(data[28:32])
	blockAlign := binary.LittleEndian.Uint16(data[32:34])
	bitsPerSample := binary.LittleEndian.Uint16(data[34:36])

	if audioFormat != 1 {
		t.Errorf("audioFormat = %d, want 1 (PCM)", audioFormat)
	}
	if channels != 2 {
		t.Errorf("channels = %d, want 2", channels)
	}
	if sampleRate != 44100 {
		t.Errorf("sampleRate = %d, want 44100", sampleRate)
	}
	if byteRate != 44100*4 {
		t.Errorf("byteRate = %d, want %d", byteRate, 44100*4)
	}
	if blockAlign != 4 {
		t.Errorf("blockAlign = %d, want 4", blockAlign)
	}
	if bitsPerSample != 16 {
		t.Errorf("bitsPerSample = %d, want 16", bitsPerSample)
	}
	if string(data[36:40]) != "data" {
		t.Errorf("tag[36:40] = %q, want data", data[36:40])
	}
}

// TestWriteFramesAndFinish covers invariants #5 and #6: the written byte
// count tracks 4 bytes/frame, and Finish patches both size fields to match
// the final file length.
func TestWriteFramesAndFinish(t *testing.T) {
	sb := &seekableBuffer{}
	w, err := NewWriter(sb, 44100)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	const nFrames = 100
	frames := make([]int16, nFrames*2) // interleaved stereo
	for i := range frames {
		frames[i] = int16(i)
	}
	if err := w.WriteFrames(frames); err != nil {
		t.Fatalf("WriteFrames: %v", err)
	}

	total, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	wantTotal := int64(44 + nFrames*4)
	if total != wantTotal {
		t.Errorf("Finish() total = %d, want %d", total, wantTotal)
	}

	data := sb.buf
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int64(riffSize) != wantTotal-8 {
		t.Errorf("RIFF size field = %d, want %d (filesize-8)", riffSize, wantTotal-8)
	}
	if int64(dataSize) != wantTotal-44 {
		t.Errorf("data chunk size field = %d, want %d (filesize-44)", dataSize, wantTotal-44)
	}
	if uint32(nFrames*4) != dataSize {
		t.Errorf("data size = %d, expected frames*4 = %d", dataSize, nFrames*4)
	}
}

func TestWriteFramesMultipleCalls(t *testing.T) {
	sb := &seekableBuffer{}
	w, err := NewWriter(sb, 8000)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	block := make([]int16, 20)
	for i := 0; i < 5; i++ {
		if err := w.WriteFrames(block); err != nil {
			t.Fatalf("WriteFrames: %v", err)
		}
	}
	total, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	wantTotal := int64(44 + 5*20*2) // int16 = 2 bytes each
	if total != wantTotal {
		t.Errorf("total = %d, want %d", total, wantTotal)
	}
}
