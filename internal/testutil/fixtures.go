// Package testutil builds audio fixtures for tests: PCM WAV and FLAC files,
// ID3v1 trailers, ID3v2 tag blocks and directory trees.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/spf13/afero"
)

// Tone returns n deterministic 16-bit samples. Different seeds give
// different audio payloads.
func Tone(n, seed int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16((i*(seed+3)*97 + seed*1013) % 30000)
	}
	return samples
}

// WAV encodes mono 16-bit PCM samples as a RIFF/WAVE file.
func WAV(samples []int16, sampleRate int) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&data, binary.LittleEndian, s)
	}

	var b bytes.Buffer
	le := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }

	b.WriteString("RIFF")
	le(uint32(36 + data.Len()))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	// PCM, mono, 16 bits per sample
	le(uint32(16))
	le(uint16(1))
	le(uint16(1))
	le(uint32(sampleRate))
	le(uint32(sampleRate * 2))
	le(uint16(2))
	le(uint16(16))

	b.WriteString("data")
	le(uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

// FLACBlockSize is the number of samples per frame written by FLAC.
const FLACBlockSize = 1024

// FLAC encodes mono 16-bit samples as a FLAC stream of verbatim frames. The
// decoded audio is identical to WAV of the same samples.
func FLAC(samples []int16, sampleRate int) ([]byte, error) {
	info := &meta.StreamInfo{
		BlockSizeMin:  FLACBlockSize,
		BlockSizeMax:  FLACBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      uint64(len(samples)),
	}

	var b bytes.Buffer
	enc, err := flac.NewEncoder(&b, info)
	if err != nil {
		return nil, fmt.Errorf("flac encoder: %w", err)
	}

	for start := 0; start < len(samples); start += FLACBlockSize {
		end := min(start+FLACBlockSize, len(samples))
		block := make([]int32, end-start)
		for i, s := range samples[start:end] {
			block[i] = int32(s)
		}
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(len(block)),
				SampleRate:        uint32(sampleRate),
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   block,
				NSamples:  len(block),
			}},
		}
		if err := enc.WriteFrame(f); err != nil {
			return nil, fmt.Errorf("flac frame at sample %d: %w", start, err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flac close: %w", err)
	}
	return b.Bytes(), nil
}

// ID3v1 is a 128-byte ID3v1.1 trailer.
type ID3v1 struct {
	Title, Artist, Album string
	Year                 string // four characters, e.g. "1999" or "0000"
	Track                byte
}

// Bytes encodes the trailer. Genre is left unset.
func (t ID3v1) Bytes() []byte {
	b := make([]byte, 128)
	copy(b[0:3], "TAG")
	copy(b[3:33], t.Title)
	copy(b[33:63], t.Artist)
	copy(b[63:93], t.Album)
	copy(b[93:97], t.Year)
	// b[97:125] comment, b[125] zero marks v1.1
	b[126] = t.Track
	b[127] = 255
	return b
}

// TaggedWAV returns a WAV file with an ID3v1 trailer appended after the
// data chunk. The trailer does not change the decoded audio.
func TaggedWAV(samples []int16, sampleRate int, tag ID3v1) []byte {
	return append(WAV(samples, sampleRate), tag.Bytes()...)
}

// ID3v2Frame is a single ID3v2.3 frame.
type ID3v2Frame struct {
	ID      string
	Payload []byte
}

// TextFrame builds an ISO-8859-1 text frame such as TIT2 or TYER.
func TextFrame(id, text string) ID3v2Frame {
	return ID3v2Frame{ID: id, Payload: append([]byte{0x00}, text...)}
}

// PictureFrame builds an APIC frame with picture type 3 (front cover) and
// an empty description.
func PictureFrame(mime string, data []byte) ID3v2Frame {
	var p bytes.Buffer
	p.WriteByte(0x00)
	p.WriteString(mime)
	p.WriteByte(0x00)
	p.WriteByte(0x03)
	p.WriteByte(0x00)
	p.Write(data)
	return ID3v2Frame{ID: "APIC", Payload: p.Bytes()}
}

// ID3v2 encodes an ID3v2.3 tag block.
func ID3v2(frames ...ID3v2Frame) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		body.WriteString(f.ID)
		_ = binary.Write(&body, binary.BigEndian, uint32(len(f.Payload)))
		body.Write([]byte{0, 0})
		body.Write(f.Payload)
	}

	size := body.Len()
	header := []byte{
		'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(size>>21&0x7f), byte(size>>14&0x7f), byte(size>>7&0x7f), byte(size&0x7f),
	}
	return append(header, body.Bytes()...)
}

// WriteTree writes files under root. Keys are slash-separated relative paths.
func WriteTree(fs afero.Fs, root string, files map[string][]byte) error {
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", rel, err)
		}
		if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}
