package hasher

import (
	"bytes"
	"errors"
	"hash/adler32"
	"io"
	"testing"

	"pgregory.net/rapid"
)

type fakeSource struct {
	packets [][]byte
	failAt  int // index at which to return failErr; -1 for none
	failErr error
	pos     int
}

func (f *fakeSource) NextPacket() ([]byte, error) {
	if f.failAt >= 0 && f.pos == f.failAt {
		return nil, f.failErr
	}
	if f.pos >= len(f.packets) {
		return nil, io.EOF
	}
	p := f.packets[f.pos]
	f.pos++
	return p, nil
}

func source(packets ...[]byte) *fakeSource {
	return &fakeSource{packets: packets, failAt: -1}
}

func TestSumKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		packets [][]byte
		want    uint32
	}{
		{name: "empty stream", packets: nil, want: 1},
		{name: "wikipedia", packets: [][]byte{[]byte("Wikipedia")}, want: 0x11E60398},
		{name: "split packets", packets: [][]byte{[]byte("Wiki"), []byte("pedia")}, want: 0x11E60398},
		{name: "empty packets ignored", packets: [][]byte{{}, []byte("Wikipedia"), {}}, want: 0x11E60398},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(source(tt.packets...))
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestSumPartial(t *testing.T) {
	decodeErr := errors.New("corrupt frame")
	src := &fakeSource{
		packets: [][]byte{[]byte("abc"), []byte("def"), []byte("ghi")},
		failAt:  2,
		failErr: decodeErr,
	}

	got, err := Sum(src)
	if err == nil {
		t.Fatal("Sum() expected partial error")
	}
	if !IsPartial(err) {
		t.Errorf("IsPartial(%v) = false", err)
	}
	if !errors.Is(err, decodeErr) {
		t.Errorf("errors.Is(err, decodeErr) = false")
	}

	var pe *PartialError
	if errors.As(err, &pe) && pe.Packets != 2 {
		t.Errorf("Packets = %d, want 2", pe.Packets)
	}

	if want := adler32.Checksum([]byte("abcdef")); got != want {
		t.Errorf("partial Sum() = %#x, want hash of packets read so far %#x", got, want)
	}
}

func TestIsPartial(t *testing.T) {
	if IsPartial(nil) {
		t.Error("IsPartial(nil) = true")
	}
	if IsPartial(io.ErrUnexpectedEOF) {
		t.Error("IsPartial(plain error) = true")
	}
}

// Packet boundaries must not affect the hash.
func TestSumBoundaryIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		cuts := rapid.SliceOfN(rapid.IntRange(0, len(data)), 0, 8).Draw(t, "cuts")

		var packets [][]byte
		prev := 0
		for _, c := range cuts {
			if c < prev {
				continue
			}
			packets = append(packets, data[prev:c])
			prev = c
		}
		packets = append(packets, data[prev:])

		got, err := Sum(source(packets...))
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if want := adler32.Checksum(data); got != want {
			t.Fatalf("Sum() = %#x, want %#x", got, want)
		}
	})
}

func TestSumDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		packets := rapid.SliceOf(rapid.SliceOf(rapid.Byte())).Draw(t, "packets")

		a, _ := Sum(source(packets...))
		b, _ := Sum(source(packets...))
		if a != b {
			t.Fatalf("Sum() not deterministic: %#x != %#x", a, b)
		}
		if want := adler32.Checksum(bytes.Join(packets, nil)); a != want {
			t.Fatalf("Sum() = %#x, want %#x", a, want)
		}
	})
}
