package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Format of the PCM stream produced by the Gemini TTS models.
const (
	DefaultChannels    = 1
	DefaultSampleRate  = 24000
	DefaultSampleWidth = 2 // bytes per sample
)

// EncodeWAV wraps raw little-endian PCM samples in a WAV container. Zero or
// negative format parameters fall back to the defaults above. An empty pcm
// buffer yields a valid container with zero data frames. A buffer that is
// not a whole number of frames is rejected rather than truncated: a partial
// frame means the upstream decode went wrong, and silently dropping bytes
// would shift every later sample.
func EncodeWAV(pcm []byte, channels, sampleRate, sampleWidth int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVTo(&buf, pcm, channels, sampleRate, sampleWidth); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVTo writes raw PCM bytes to out as a WAV stream. The header always
// declares the true byte length of pcm.
func WriteWAVTo(out io.Writer, pcm []byte, channels, sampleRate, sampleWidth int) error {
	if channels <= 0 {
		channels = DefaultChannels
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if sampleWidth <= 0 {
		sampleWidth = DefaultSampleWidth
	}
	if len(pcm)%(channels*sampleWidth) != 0 {
		return fmt.Errorf("pcm length %d is not a whole number of %d-byte frames", len(pcm), channels*sampleWidth)
	}

	const audioFormat = 1 // PCM
	dataSize := uint32(len(pcm))
	bitsPerSample := uint16(sampleWidth * 8)
	byteRate := uint32(sampleRate * channels * sampleWidth)
	blockAlign := uint16(channels * sampleWidth)

	w := bufio.NewWriter(out)

	// RIFF header.
	if _, err := w.WriteString("RIFF"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36)+dataSize); err != nil {
		return err
	}
	if _, err := w.WriteString("WAVE"); err != nil {
		return err
	}

	// fmt chunk.
	if _, err := w.WriteString("fmt "); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(audioFormat)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(channels)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(sampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, blockAlign); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, bitsPerSample); err != nil {
		return err
	}

	// data chunk.
	if _, err := w.WriteString("data"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}
