package hasher

import (
	"errors"
	"fmt"
	"hash/adler32"
	"io"
)

// PacketSource yields packet payloads in decode order and io.EOF at the end.
type PacketSource interface {
	NextPacket() ([]byte, error)
}

// PartialError reports that the packet stream ended with a decode error.
// Sum still returns the hash of every packet read before the failure.
type PartialError struct {
	Packets int
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("hash truncated after %d packets: %v", e.Packets, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Sum computes the Adler-32 checksum of the concatenated packet payloads.
// An empty stream hashes to 1.
func Sum(src PacketSource) (uint32, error) {
	h := adler32.New()
	packets := 0
	for {
		p, err := src.NextPacket()
		if errors.Is(err, io.EOF) {
			return h.Sum32(), nil
		}
		if err != nil {
			return h.Sum32(), &PartialError{Packets: packets, Err: err}
		}
		h.Write(p)
		packets++
	}
}

// IsPartial reports whether err indicates a truncated hash.
func IsPartial(err error) bool {
	var pe *PartialError
	return errors.As(err, &pe)
}
