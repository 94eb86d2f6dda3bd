package platform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrUnsupportedWAV = errors.New("unsupported wav format")

// wavFormat holds WAV file format information
type wavFormat struct {
	AudioFormat int
	SampleRate  int
	Channels    int
	BitDepth    int
}

// LoadWAV reads a PCM WAV file and returns its sample data. The file must
// match the audio context format (44.1kHz, stereo, 16-bit).
func LoadWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alarm sound: %w", err)
	}

	format, pcm, err := parseWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if format.AudioFormat != 1 || format.SampleRate != SampleRate ||
		format.Channels != ChannelCount || format.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: %s is %dHz %dch %d-bit, want %dHz %dch %d-bit PCM",
			ErrUnsupportedWAV, path, format.SampleRate, format.Channels, format.BitDepth,
			SampleRate, ChannelCount, BitDepth)
	}

	return pcm, nil
}

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	header := make([]byte, 12)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, nil, fmt.Errorf("%w: short header", ErrUnsupportedWAV)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrUnsupportedWAV)
	}

	var format *wavFormat

	// Read chunks
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(reader, chunkID[:]); err != nil {
			return nil, nil, fmt.Errorf("%w: no data chunk", ErrUnsupportedWAV)
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, fmt.Errorf("%w: truncated chunk", ErrUnsupportedWAV)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			if chunkSize < 16 {
				return nil, nil, fmt.Errorf("%w: fmt chunk too small", ErrUnsupportedWAV)
			}
			var raw struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
				return nil, nil, fmt.Errorf("%w: truncated fmt chunk", ErrUnsupportedWAV)
			}
			format = &wavFormat{
				AudioFormat: int(raw.AudioFormat),
				SampleRate:  int(raw.SampleRate),
				Channels:    int(raw.Channels),
				BitDepth:    int(raw.BitsPerSample),
			}
			// Skip any extra format bytes
			if _, err := reader.Seek(int64(chunkSize-16), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		case "data":
			if format == nil {
				return nil, nil, fmt.Errorf("%w: data before fmt chunk", ErrUnsupportedWAV)
			}
			if int64(chunkSize) > int64(reader.Len()) {
				chunkSize = uint32(reader.Len())
			}
			pcm := make([]byte, chunkSize)
			if _, err := io.ReadFull(reader, pcm); err != nil {
				return nil, nil, err
			}
			return format, pcm, nil
		default:
			// Chunks are word aligned.
			skip := int64(chunkSize) + int64(chunkSize&1)
			if _, err := reader.Seek(skip, io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}
}

// EncodeWAV wraps PCM in a canonical WAV header in the context format.
func EncodeWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	blockAlign := ChannelCount * BitDepth / 8

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(ChannelCount))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(BitDepth))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
