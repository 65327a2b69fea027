package musicgen

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wavHeaderSize  = 44
	pcmFormat      = 1
	bitsPerSample  = 16
	bytesPerSample = 2
)

// WriteWAV writes mono 16-bit PCM samples as a standard RIFF/WAVE stream.
func WriteWAV(w io.Writer, sampleRate int, samples []int16) error {
	dataSize := len(samples) * bytesPerSample

	var header [wavHeaderSize]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(wavHeaderSize-8+dataSize))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(header[32:34], bytesPerSample) // block align
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	data := make([]byte, dataSize)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*bytesPerSample:], uint16(s))
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// WAVHeader holds the fields of a RIFF/WAVE header needed by callers.
type WAVHeader struct {
	Channels   int
	SampleRate int
	BitDepth   int
	DataSize   int
}

// ReadWAVHeader parses the canonical 44-byte header written by WriteWAV.
func ReadWAVHeader(r io.Reader) (*WAVHeader, error) {
	var header [wavHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}
	if string(header[36:40]) != "data" {
		return nil, fmt.Errorf("unexpected chunk %q", header[36:40])
	}

	return &WAVHeader{
		Channels:   int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(header[24:28])),
		BitDepth:   int(binary.LittleEndian.Uint16(header[34:36])),
		DataSize:   int(binary.LittleEndian.Uint32(header[40:44])),
	}, nil
}
