package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

type wavHeader struct {
	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16
	dataSize      uint32
	riffSize      uint32
}

func parseHeader(t *testing.T, wav []byte) wavHeader {
	t.Helper()
	if len(wav) < 44 {
		t.Fatalf("container too short: %d bytes", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if string(wav[12:16]) != "fmt " || string(wav[36:40]) != "data" {
		t.Fatalf("missing fmt/data chunks")
	}
	if format := binary.LittleEndian.Uint16(wav[20:22]); format != 1 {
		t.Fatalf("audio format = %d, want 1 (PCM)", format)
	}
	return wavHeader{
		riffSize:      binary.LittleEndian.Uint32(wav[4:8]),
		channels:      binary.LittleEndian.Uint16(wav[22:24]),
		sampleRate:    binary.LittleEndian.Uint32(wav[24:28]),
		byteRate:      binary.LittleEndian.Uint32(wav[28:32]),
		blockAlign:    binary.LittleEndian.Uint16(wav[32:34]),
		bitsPerSample: binary.LittleEndian.Uint16(wav[34:36]),
		dataSize:      binary.LittleEndian.Uint32(wav[40:44]),
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 4800)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	wav, err := EncodeWAV(pcm, 1, 24000, 2)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	h := parseHeader(t, wav)
	if h.channels != 1 || h.sampleRate != 24000 || h.bitsPerSample != 16 {
		t.Fatalf("header = %+v, want 1 channel, 24000 Hz, 16 bit", h)
	}
	if h.byteRate != 48000 || h.blockAlign != 2 {
		t.Fatalf("byteRate/blockAlign = %d/%d, want 48000/2", h.byteRate, h.blockAlign)
	}
	if h.dataSize != uint32(len(pcm)) {
		t.Fatalf("dataSize = %d, want %d", h.dataSize, len(pcm))
	}
	if h.riffSize != uint32(36+len(pcm)) {
		t.Fatalf("riffSize = %d, want %d", h.riffSize, 36+len(pcm))
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Fatalf("data chunk does not match input samples")
	}
}

func TestEncodeWAVEmptyBuffer(t *testing.T) {
	wav, err := EncodeWAV(nil, 1, 24000, 2)
	if err != nil {
		t.Fatalf("EncodeWAV(nil) error = %v", err)
	}
	if len(wav) != 44 {
		t.Fatalf("empty container length = %d, want 44", len(wav))
	}
	h := parseHeader(t, wav)
	if h.dataSize != 0 {
		t.Fatalf("dataSize = %d, want 0", h.dataSize)
	}
}

func TestEncodeWAVAppliesDefaults(t *testing.T) {
	wav, err := EncodeWAV([]byte{0, 0}, 0, 0, 0)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	h := parseHeader(t, wav)
	if h.channels != DefaultChannels || h.sampleRate != DefaultSampleRate || h.bitsPerSample != DefaultSampleWidth*8 {
		t.Fatalf("header = %+v, want defaults (1, 24000, 16)", h)
	}
}

func TestEncodeWAVStereo(t *testing.T) {
	pcm := make([]byte, 16)
	wav, err := EncodeWAV(pcm, 2, 48000, 2)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	h := parseHeader(t, wav)
	if h.channels != 2 || h.sampleRate != 48000 {
		t.Fatalf("header = %+v, want stereo 48000 Hz", h)
	}
	if h.byteRate != 192000 || h.blockAlign != 4 {
		t.Fatalf("byteRate/blockAlign = %d/%d, want 192000/4", h.byteRate, h.blockAlign)
	}
}

func TestEncodeWAVRejectsPartialFrames(t *testing.T) {
	if _, err := EncodeWAV([]byte{1, 2, 3}, 2, 48000, 2); err == nil {
		t.Fatalf("partial frame input must be rejected")
	}
}
