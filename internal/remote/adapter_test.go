package remote

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastcp/fastcp/internal/engine"
)

// fakeServer accepts a single session, records the copy request it receives,
// and answers with the configured result.
type fakeServer struct {
	addr     string
	port     int
	requests chan CopyRequest
}

func startFakeServer(t *testing.T, result CopyResult, logLines []LogLine) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := &fakeServer{
		addr:     "127.0.0.1",
		port:     ln.Addr().(*net.TCPAddr).Port,
		requests: make(chan CopyRequest, 1),
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		f, err := readFrame(conn)
		if err != nil || f.MsgType != MsgHello {
			return
		}
		if err := writeMessage(conn, MsgHelloAck, HelloAck{Version: ProtocolVersion}); err != nil {
			return
		}

		f, err = readFrame(conn)
		if err != nil || f.MsgType != MsgCopyReq {
			return
		}
		var req CopyRequest
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		srv.requests <- req

		for _, line := range logLines {
			if err := writeMessage(conn, MsgLogLine, line); err != nil {
				return
			}
		}
		_ = writeMessage(conn, MsgCopyResult, result)
	}()

	return srv
}

func writeSource(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestAdapterCopy_Success(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0, BytesCopied: 1024, FilesCopied: 1}, nil)
	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   "/remote/dst",
		Remote: &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)
	assert.Equal(t, int64(1024), out.BytesCopied)
	assert.False(t, out.Fallback)

	req := <-srv.requests
	assert.Equal(t, "/remote/dst", req.Dest)
	assert.Equal(t, 0, req.SubdirDepth)
	assert.Equal(t, FlagData|FlagAttributes, req.Flags)
	assert.True(t, req.ServerRequired)
}

func TestAdapterCopy_ResolvesRelativeDest(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0}, nil)
	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   "relative/dst",
		Remote: &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)

	req := <-srv.requests
	assert.True(t, filepath.IsAbs(req.Dest), "dest sent to the server must be resolved: %q", req.Dest)
	assert.True(t, strings.HasSuffix(req.Dest, filepath.Join("relative", "dst")))
	assert.True(t, filepath.IsAbs(req.Source))
}

func TestAdapterCopy_EmptyDest(t *testing.T) {
	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   "",
		Remote: &engine.RemoteTarget{Address: "127.0.0.1", Port: 1},
	})
	require.Error(t, out.Err)

	kind, ok := engine.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, engine.KindPath, kind)
}

func TestAdapterCopy_MetadataSetsTimestampFlag(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0}, nil)
	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source:           src,
		Dest:             "/remote/dst",
		PreserveMetadata: true,
		Remote:           &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)

	req := <-srv.requests
	assert.Equal(t, FlagData|FlagAttributes|FlagTimestamps, req.Flags)
}

func TestAdapterCopy_DirectorySendsDepth(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0}, nil)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "f"), []byte("x"), 0o644))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source:   srcDir,
		Dest:     "/remote/tree",
		MaxDepth: -1,
		Remote:   &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)

	req := <-srv.requests
	assert.Equal(t, -1, req.SubdirDepth)
}

func TestAdapterCopy_DirectoryForwardsCallerDepth(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0}, nil)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "f"), []byte("x"), 0o644))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source:   srcDir,
		Dest:     "/remote/tree",
		MaxDepth: 2,
		Remote:   &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)

	req := <-srv.requests
	assert.Equal(t, 2, req.SubdirDepth)
}

func TestAdapterCopy_DepthZeroDirectoryStaysLocal(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 0}, nil)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "f"), []byte("x"), 0o644))
	dst := filepath.Join(t.TempDir(), "copy")

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source:   srcDir,
		Dest:     dst,
		MaxDepth: 0,
		Remote:   &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.NoError(t, out.Err)

	// destination root created locally with no entries, server never asked
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
	select {
	case req := <-srv.requests:
		t.Fatalf("server should not receive a request, got %+v", req)
	default:
	}
}

func TestAdapterCopy_ServerStatusError(t *testing.T) {
	srv := startFakeServer(t, CopyResult{Status: 3, Message: "disk full"},
		[]LogLine{{Level: "error", Message: "write failed"}})
	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   "/remote/dst",
		Remote: &engine.RemoteTarget{Address: srv.addr, Port: srv.port},
	})
	require.Error(t, out.Err)

	kind, ok := engine.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, engine.KindRemoteTransfer, kind)
	assert.Contains(t, out.Err.Error(), "disk full")
}

func TestAdapterCopy_ConnectionRefused(t *testing.T) {
	// grab a port that nothing listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	src := writeSource(t, []byte("data"))

	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   "/remote/dst",
		Remote: &engine.RemoteTarget{Address: "127.0.0.1", Port: port},
	})
	require.Error(t, out.Err)

	kind, ok := engine.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, engine.KindRemoteTransfer, kind)
}

func TestAdapterCopy_FallbackLocal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	a := NewAdapter(engine.New(engine.Options{}), Options{FallbackLocal: true})
	out := a.Copy(context.Background(), engine.Spec{
		Source: src,
		Dest:   dst,
		Remote: &engine.RemoteTarget{Address: "127.0.0.1", Port: port},
	})
	require.NoError(t, out.Err)
	assert.True(t, out.Fallback)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestAdapterCopy_SourceMissing(t *testing.T) {
	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{
		Source: filepath.Join(t.TempDir(), "nope"),
		Dest:   "/remote/dst",
		Remote: &engine.RemoteTarget{Address: "127.0.0.1", Port: 1},
	})
	require.Error(t, out.Err)

	kind, ok := engine.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, engine.KindNotFound, kind)
}

func TestAdapterCopy_NoRemoteTarget(t *testing.T) {
	a := NewAdapter(engine.New(engine.Options{}), Options{})
	out := a.Copy(context.Background(), engine.Spec{Source: "/a", Dest: "/b"})
	require.Error(t, out.Err)

	kind, ok := engine.KindOf(out.Err)
	require.True(t, ok)
	assert.Equal(t, engine.KindRemoteTransfer, kind)
}

func TestAdapterRunBatch_IndexAligned(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	// no server; both specs fail remotely, outcomes still index-aligned
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	target := &engine.RemoteTarget{Address: "127.0.0.1", Port: port}
	a := NewAdapter(engine.New(engine.Options{}), Options{})
	outcomes := a.RunBatch(context.Background(), engine.OpFileCopy, []engine.Spec{
		{Source: src, Dest: "/d1", Remote: target},
		{Source: filepath.Join(dir, "missing"), Dest: "/d2", Remote: target},
	})
	require.Len(t, outcomes, 2)

	kind0, _ := engine.KindOf(outcomes[0].Err)
	kind1, _ := engine.KindOf(outcomes[1].Err)
	assert.Equal(t, engine.KindRemoteTransfer, kind0)
	assert.Equal(t, engine.KindNotFound, kind1)
}
