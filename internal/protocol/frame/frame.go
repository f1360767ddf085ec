package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// PrefixLen is the size of the big-endian length prefix on every message.
const PrefixLen = 4

var (
	ErrShortPrefix     = errors.New("frame: short length prefix")
	ErrShortPayload    = errors.New("frame: short payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrInvalidLength   = errors.New("frame: invalid length")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
	// ChunkSize bounds a single Read call while collecting the payload.
	ChunkSize int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 16 * 1024 * 1024,
		ChunkSize:       1024,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxPayloadBytes == 0 {
		l.MaxPayloadBytes = d.MaxPayloadBytes
	}
	if l.ChunkSize <= 0 {
		l.ChunkSize = d.ChunkSize
	}
	return l
}

// ReadError reports how far a frame read got before it failed.
type ReadError struct {
	LengthReceived bool
	Declared       uint32
	Read           int
	Err            error
}

func (e *ReadError) Error() string {
	if !e.LengthReceived {
		return fmt.Sprintf("frame: read length prefix: %v", e.Err)
	}
	return fmt.Sprintf("frame: read payload (%d/%d bytes): %v", e.Read, e.Declared, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func EncodeLength(n int) ([PrefixLen]byte, error) {
	var buf [PrefixLen]byte
	if n < 0 || uint64(n) > math.MaxUint32 {
		return buf, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	return buf, nil
}

func DecodeLength(b []byte) (uint32, error) {
	if len(b) != PrefixLen {
		return 0, fmt.Errorf("%w: prefix is %d bytes", ErrInvalidLength, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// Pack prepends the length prefix to payload.
func Pack(payload []byte, limits Limits) ([]byte, error) {
	limits = limits.WithDefaults()
	if uint64(len(payload)) > uint64(limits.MaxPayloadBytes) {
		return nil, ErrPayloadTooLarge
	}
	prefix, err := EncodeLength(len(payload))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, PrefixLen+len(payload))
	out = append(out, prefix[:]...)
	return append(out, payload...), nil
}

// WriteFrame writes prefix and payload with a single Write call.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	packed, err := Pack(payload, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(packed)
	return err
}

// ReadFrame reads one length-prefixed message. Partial reads are accumulated
// until exactly the declared number of bytes has arrived.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	limits = limits.WithDefaults()

	var prefix [PrefixLen]byte
	got := 0
	for got < PrefixLen {
		n, err := r.Read(prefix[got:])
		got += n
		if got == PrefixLen {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrShortPrefix
			}
			return nil, &ReadError{Read: got, Err: err}
		}
	}

	length, _ := DecodeLength(prefix[:])
	if length > limits.MaxPayloadBytes {
		return nil, &ReadError{LengthReceived: true, Declared: length, Err: ErrPayloadTooLarge}
	}

	payload := make([]byte, length)
	read := 0
	for read < int(length) {
		end := read + limits.ChunkSize
		if end > int(length) {
			end = int(length)
		}
		n, err := r.Read(payload[read:end])
		read += n
		if read == int(length) {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrShortPayload
			}
			return nil, &ReadError{LengthReceived: true, Declared: length, Read: read, Err: err}
		}
	}
	return payload, nil
}
