package remote

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := frame{MsgType: MsgCopyReq, Payload: []byte(`{"source":"/a"}`)}
	require.NoError(t, writeFrame(&buf, in))

	out, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.MsgType, out.MsgType)
	assert.Equal(t, in.Payload, out.Payload)
}

func TestFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, frame{MsgType: MsgHello}))

	out, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgHello, out.MsgType)
	assert.Empty(t, out.Payload)
}

func TestWriteFrameTooLarge(t *testing.T) {
	err := writeFrame(io.Discard, frame{
		MsgType: MsgCopyReq,
		Payload: make([]byte, maxFrameSize),
	})
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameForgedLength(t *testing.T) {
	// header claiming a frame near the uint32 ceiling must be rejected by
	// the size cap, not wrap past it into a giant allocation
	header := []byte{0xFF, 0xFF, 0xFF, 0xFF, MsgCopyReq}
	_, err := readFrame(bytes.NewReader(header))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameLengthJustOverCap(t *testing.T) {
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], maxFrameSize-3)
	header[4] = MsgCopyReq
	_, err := readFrame(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, frame{
		MsgType: MsgCopyReq, Payload: []byte("payload"),
	}))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	_, err := readFrame(truncated)
	assert.Error(t, err)
}

func TestWriteMessageEncodesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, MsgCopyResult, CopyResult{
		Status: 0, BytesCopied: 42, FilesCopied: 1,
	}))

	f, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgCopyResult, f.MsgType)

	var result CopyResult
	require.NoError(t, json.Unmarshal(f.Payload, &result))
	assert.Equal(t, int64(42), result.BytesCopied)
}
