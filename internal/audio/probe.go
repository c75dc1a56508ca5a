package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"eleanor-server/internal/filesystem"
)

// PacketFrames is the number of decoded frames per packet.
const PacketFrames = 1024

// ErrUnsupportedFormat is returned when no decoder handles the container.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Container identifies the decoder used for a stream.
type Container string

// Supported containers
const (
	ContainerWAV    Container = "wav"
	ContainerMP3    Container = "mp3"
	ContainerVorbis Container = "vorbis"
	ContainerFLAC   Container = "flac"
)

// sniffed maps detected MIME types to containers. Parents are checked too,
// so "audio/x-wav" style aliases resolve through mimetype.Is.
var sniffed = []struct {
	mime      string
	container Container
}{
	{"audio/wav", ContainerWAV},
	{"audio/mpeg", ContainerMP3},
	{"audio/ogg", ContainerVorbis},
	{"audio/flac", ContainerFLAC},
}

var byExtension = map[string]Container{
	".wav":  ContainerWAV,
	".wave": ContainerWAV,
	".mp3":  ContainerMP3,
	".ogg":  ContainerVorbis,
	".oga":  ContainerVorbis,
	".flac": ContainerFLAC,
}

// Stream is an open, decodable audio stream. It is not safe for concurrent use.
type Stream struct {
	file      *os.File
	decoder   beep.StreamSeekCloser
	format    beep.Format
	container Container

	frames [][2]float64
	buf    []byte
	done   bool
	err    error
}

// Probe opens path, detects its container from content with the extension
// as a hint, and opens the default audio stream. Tag blocks are not parsed.
func Probe(path string) (*Stream, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil, err
	}

	container, err := detect(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind %s: %w", path, err)
	}

	decoder, format, err := decode(container, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("probe %s as %s: %w", path, container, err)
	}

	return &Stream{
		file:      f,
		decoder:   decoder,
		format:    format,
		container: container,
		frames:    make([][2]float64, PacketFrames),
		buf:       make([]byte, PacketFrames*format.Width()),
	}, nil
}

func detect(r io.Reader, ext string) (Container, error) {
	mt, err := mimetype.DetectReader(r)
	if err == nil {
		for _, s := range sniffed {
			for m := mt; m != nil; m = m.Parent() {
				if m.Is(s.mime) {
					return s.container, nil
				}
			}
		}
	}

	if c, ok := byExtension[strings.ToLower(ext)]; ok {
		return c, nil
	}

	detected := "unknown"
	if mt != nil {
		detected = mt.String()
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, ext, detected)
}

// fileReader keeps Seek visible to decoders but makes Close a no-op;
// Stream.Close owns the file.
type fileReader struct {
	io.ReadSeeker
}

func (fileReader) Close() error { return nil }

func decode(c Container, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	r := fileReader{f}
	switch c {
	case ContainerWAV:
		return wav.Decode(r)
	case ContainerMP3:
		return mp3.Decode(r)
	case ContainerVorbis:
		return vorbis.Decode(r)
	case ContainerFLAC:
		return flac.Decode(r)
	}
	return nil, beep.Format{}, ErrUnsupportedFormat
}

// NextPacket returns the next packet payload: up to PacketFrames decoded
// frames encoded as signed integers at the stream's precision. It returns
// io.EOF at end of stream and the decoder's error if decoding fails. A
// decoder that stops yielding frames before its reported length ends the
// stream with io.ErrUnexpectedEOF. The returned slice is reused by the next
// call.
func (s *Stream) NextPacket() ([]byte, error) {
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	n, ok := s.decoder.Stream(s.frames)
	if !ok {
		s.done = true
		if err := s.decoder.Err(); err != nil {
			s.err = fmt.Errorf("decode: %w", err)
		}
	} else if n == 0 {
		// wav keeps answering (0, true) once the file ends inside the data chunk
		s.done = true
		if pos, length := s.decoder.Position(), s.decoder.Len(); pos < length {
			s.err = fmt.Errorf("decode: stopped at frame %d of %d: %w", pos, length, io.ErrUnexpectedEOF)
		}
	}

	if n == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	w := 0
	for i := range n {
		w += s.format.EncodeSigned(s.buf[w:], s.frames[i])
	}
	return s.buf[:w], nil
}

// Duration is the stream length as reported by the container.
func (s *Stream) Duration() time.Duration {
	n := s.decoder.Len()
	if n <= 0 {
		return 0
	}
	return s.format.SampleRate.D(n)
}

// Container reports which decoder opened the stream.
func (s *Stream) Container() Container {
	return s.container
}

// Format returns the decoded sample format.
func (s *Stream) Format() beep.Format {
	return s.format
}

// Close releases the decoder and the underlying file.
func (s *Stream) Close() error {
	return errors.Join(s.decoder.Close(), s.file.Close())
}
