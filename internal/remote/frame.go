package remote

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// frameHeaderSize is 4 bytes length plus 1 byte message type.
	frameHeaderSize = 5

	// maxFrameSize bounds a single frame including its header.
	maxFrameSize = 1 << 20 // 1 MB
)

// ErrFrameTooLarge is returned when a frame exceeds maxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// frame is a single protocol message on the wire.
type frame struct {
	Payload []byte
	MsgType byte
}

// writeFrame writes a length-prefixed frame to w.
// Wire format: [4-byte length (big-endian)][1-byte msg type][payload].
// The length field counts the type byte and payload. Header and payload go
// out in a single Write to keep each frame in one TCP segment when small.
func writeFrame(w io.Writer, f frame) error {
	if frameHeaderSize+len(f.Payload) > maxFrameSize {
		return ErrFrameTooLarge
	}
	totalLen := uint32(1 + len(f.Payload))

	buf := make([]byte, frameHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], totalLen)
	buf[4] = f.MsgType
	copy(buf[frameHeaderSize:], f.Payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readFrame reads a length-prefixed frame from r.
func readFrame(r io.Reader) (frame, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}

	// compare without adding to totalLen: a corrupt length near the uint32
	// ceiling must not wrap past the cap
	totalLen := binary.BigEndian.Uint32(header[0:4])
	if totalLen > maxFrameSize-4 {
		return frame{}, ErrFrameTooLarge
	}
	if totalLen < 1 {
		return frame{}, fmt.Errorf("frame too small: length %d", totalLen)
	}

	f := frame{MsgType: header[4]}
	payloadLen := totalLen - 1
	if payloadLen > 0 {
		f.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return f, nil
}

// writeMessage marshals msg as JSON and writes it as a frame of type t.
func writeMessage(w io.Writer, t byte, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message 0x%02x: %w", t, err)
	}
	return writeFrame(w, frame{MsgType: t, Payload: payload})
}
