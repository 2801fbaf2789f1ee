package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fastcp/fastcp/internal/engine"
	"github.com/fastcp/fastcp/internal/event"
	"github.com/fastcp/fastcp/internal/pathutil"
)

// Options configures an Adapter.
type Options struct {
	// FallbackLocal re-runs a failed remote copy through the local engine.
	// Off by default: a dead server surfaces as an error, not a silent
	// change of transport.
	FallbackLocal bool

	// DialTimeout bounds the TCP connect. Zero means no limit beyond the
	// caller's context.
	DialTimeout time.Duration

	Logger *slog.Logger

	// Events, when non-nil, receives a RemoteFallback notification for every
	// spec rerouted to the local engine.
	Events chan<- event.Event

	// ThreadCount and BufferSize are forwarded to the server as tuning
	// hints; zero omits them and the server uses its own defaults.
	ThreadCount int
	BufferSize  int
}

// Adapter routes copy specs carrying a RemoteTarget to a transfer-engine
// server. It never retries against the server; one attempt, then either the
// classified error or, when enabled, a local fallback.
type Adapter struct {
	engine *engine.Engine
	opts   Options
	log    *slog.Logger
}

// NewAdapter creates an Adapter that falls back to eng when enabled.
func NewAdapter(eng *engine.Engine, opts Options) *Adapter {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{engine: eng, opts: opts, log: log}
}

// Copy executes spec against the server named by spec.Remote.
func (a *Adapter) Copy(ctx context.Context, spec engine.Spec) engine.Outcome {
	const op = "remote_copy"

	if spec.Remote == nil {
		return remoteFail(op, spec.Source,
			fmt.Errorf("spec carries no remote target"))
	}

	src, err := pathutil.Resolve(spec.Source)
	if err != nil {
		return engine.Outcome{Err: &engine.Error{
			Op: op, Path: spec.Source, Kind: engine.KindPath, Err: err,
		}}
	}
	dst, err := pathutil.Resolve(spec.Dest)
	if err != nil {
		return engine.Outcome{Err: &engine.Error{
			Op: op, Path: spec.Dest, Kind: engine.KindPath, Err: err,
		}}
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.Outcome{Err: &engine.Error{
				Op: op, Path: src, Kind: engine.KindNotFound, Err: err,
			}}
		}
		return engine.Outcome{Err: &engine.Error{
			Op: op, Path: src, Kind: engine.KindIO, Err: err,
		}}
	}

	isDir := srcInfo.IsDir()
	if isDir && spec.MaxDepth == 0 {
		// depth zero copies only the root directory; the wire contract
		// reserves SubdirDepth 0 for single files, so there is nothing
		// here worth offloading
		a.log.Debug("depth-zero tree copy handled locally", "src", src)
		return a.engine.CopyTree(ctx, spec)
	}

	result, err := a.send(ctx, spec, src, dst, isDir)
	if err == nil && result.Status != 0 {
		err = fmt.Errorf("server status %d: %s", result.Status, result.Message)
	}
	if err != nil {
		if !a.opts.FallbackLocal {
			return remoteFail(op, src, err)
		}
		a.log.Warn("remote copy failed, falling back to local engine",
			"addr", spec.Remote.Address, "err", err)
		return a.runLocal(ctx, spec, isDir)
	}

	a.log.Debug("remote copy complete",
		"addr", spec.Remote.Address,
		"files", result.FilesCopied, "bytes", result.BytesCopied)
	return engine.Outcome{BytesCopied: result.BytesCopied}
}

// RunBatch executes op against every spec through the server, one Outcome
// per spec, index-aligned. Failed specs never stop the batch.
func (a *Adapter) RunBatch(ctx context.Context, op engine.Op, specs []engine.Spec) []engine.Outcome {
	outcomes := make([]engine.Outcome, len(specs))
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = engine.Outcome{Err: err}
			continue
		}
		if op == engine.OpFileCopyMeta {
			spec.PreserveMetadata = true
		}
		outcomes[i] = a.Copy(ctx, spec)
	}
	return outcomes
}

func (a *Adapter) send(ctx context.Context, spec engine.Spec, src, dst string, isDir bool) (CopyResult, error) {
	target := spec.Remote
	port := target.Port
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(target.Address, strconv.Itoa(port))

	dialCtx := ctx
	if a.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, a.opts.DialTimeout)
		defer cancel()
	}

	client, err := Dial(dialCtx, addr, a.log)
	if err != nil {
		return CopyResult{}, err
	}
	defer client.Close()

	depth := 0
	if isDir {
		depth = spec.MaxDepth
	}

	flags := FlagData | FlagAttributes
	if spec.PreserveMetadata {
		flags |= FlagTimestamps
	}

	return client.Copy(ctx, CopyRequest{
		Source:          src,
		Dest:            dst,
		Flags:           flags,
		SubdirDepth:     depth,
		Compression:     target.CompressionLevel,
		ThreadCount:     a.opts.ThreadCount,
		BufferSize:      a.opts.BufferSize,
		ServerRequired:  !a.opts.FallbackLocal,
		ReplaceSymlinks: spec.FollowSymlinks,
	})
}

func (a *Adapter) runLocal(ctx context.Context, spec engine.Spec, isDir bool) engine.Outcome {
	event.Emit(a.opts.Events, event.Event{Type: event.RemoteFallback, Path: spec.Source})
	var out engine.Outcome
	if isDir {
		out = a.engine.CopyTree(ctx, spec)
	} else {
		out = a.engine.CopyFile(ctx, spec)
	}
	out.Fallback = true
	return out
}

func remoteFail(op, path string, err error) engine.Outcome {
	return engine.Outcome{Err: &engine.Error{
		Op: op, Path: path, Kind: engine.KindRemoteTransfer, Err: err,
	}}
}
