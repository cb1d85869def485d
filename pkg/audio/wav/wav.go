// Package wav encodes and decodes the minimal PCM WAV framing needed by the
// capture pipeline: raw microphone PCM is wrapped in a RIFF header before
// being sent to the transcription service, and recorded files can be loaded
// back as segments for offline runs.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

const headerSize = 44

// Encode wraps raw little-endian PCM in a WAV container.
func Encode(pcm []byte, format audio.Format) []byte {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(pcm))

	byteRate := format.SampleRate * format.Channels * format.BitsPerSample / 8
	blockAlign := format.Channels * format.BitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// Decode extracts the PCM payload and format from a WAV container.
func Decode(data []byte) ([]byte, audio.Format, error) {
	if len(data) < headerSize {
		return nil, audio.Format{}, fmt.Errorf("wav: data too short (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, audio.Format{}, fmt.Errorf("wav: missing RIFF/WAVE header")
	}

	format := audio.Format{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}

	// Walk chunks from the end of the fmt chunk to find "data"; some encoders
	// insert LIST/INFO chunks before it.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		if id == "data" {
			end := off + 8 + size
			if end > len(data) {
				end = len(data)
			}
			return data[off+8 : end], format, nil
		}
		off += 8 + size
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}

	return nil, audio.Format{}, fmt.Errorf("wav: no data chunk found")
}

// LoadSegment reads a WAV file into a single capture segment. Used by the
// CLI to replay recorded audio through the transcription pipeline.
func LoadSegment(path string) (audio.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Segment{}, fmt.Errorf("failed to read WAV file: %w", err)
	}
	if _, _, err := Decode(data); err != nil {
		return audio.Segment{}, err
	}
	return audio.Segment{Data: data, MimeType: "audio/wav"}, nil
}
