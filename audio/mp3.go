package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Reader decodes MP3 files in pure Go. go-mp3 always yields signed
// 16-bit little-endian stereo, 4 bytes per frame.
type MP3Reader struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	length     int64
}

// OpenMP3 opens an MP3 file for decoding.
func OpenMP3(path string) (*MP3Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Reader{
		decoder:    decoder,
		file:       file,
		sampleRate: decoder.SampleRate(),
		length:     decoder.Length(),
	}, nil
}

func (r *MP3Reader) SampleRate() int { return r.sampleRate }

// Seconds returns the decoded duration.
func (r *MP3Reader) Seconds() float64 {
	if r.length <= 0 {
		return 0
	}
	return float64(r.length/4) / float64(r.sampleRate)
}

// ReadMono decodes the whole stream and averages both channels.
func (r *MP3Reader) ReadMono() ([]float32, error) {
	var pcm []byte
	var err error
	if r.length > 0 {
		pcm = make([]byte, r.length)
		var n int
		n, err = io.ReadFull(r.decoder, pcm)
		pcm = pcm[:n]
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = nil
		}
	} else {
		pcm, err = io.ReadAll(r.decoder)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	frames := len(pcm) / 4
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		mono[i] = (float32(left) + float32(right)) / 2.0 / 32768.0
	}
	return mono, nil
}

func (r *MP3Reader) Close() error {
	return r.file.Close()
}

func decodeMP3(path string) (*Buffer, error) {
	reader, err := OpenMP3(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	samples, err := reader.ReadMono()
	if err != nil {
		return nil, err
	}
	return &Buffer{Samples: samples, SampleRate: reader.SampleRate()}, nil
}
