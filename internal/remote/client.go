package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// handshakeTimeout bounds the hello exchange after the TCP connect.
const handshakeTimeout = 10 * time.Second

// Client is one session with a transfer-engine server. It is not safe for
// concurrent use; the protocol is strictly request/response.
type Client struct {
	conn net.Conn
	log  *slog.Logger
}

// Dial connects to addr, performs the hello exchange, and returns a ready
// session. The context bounds the TCP connect; nil log means slog.Default().
func Dial(ctx context.Context, addr string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{conn: conn, log: log}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake() error {
	deadline := time.Now().Add(handshakeTimeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set handshake deadline: %w", err)
	}
	defer c.conn.SetDeadline(time.Time{})

	if err := writeMessage(c.conn, MsgHello, Hello{Version: ProtocolVersion}); err != nil {
		return err
	}

	f, err := readFrame(c.conn)
	if err != nil {
		return fmt.Errorf("read hello ack: %w", err)
	}
	if f.MsgType != MsgHelloAck {
		return fmt.Errorf("unexpected message type 0x%02x during handshake", f.MsgType)
	}

	var ack HelloAck
	if err := json.Unmarshal(f.Payload, &ack); err != nil {
		return fmt.Errorf("decode hello ack: %w", err)
	}
	if ack.Version != ProtocolVersion {
		return fmt.Errorf("protocol version mismatch: server %d, client %d",
			ack.Version, ProtocolVersion)
	}
	return nil
}

// Copy sends req and waits for the final result, forwarding any interleaved
// server log lines to the session logger.
func (c *Client) Copy(ctx context.Context, req CopyRequest) (CopyResult, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return CopyResult{}, fmt.Errorf("set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if err := writeMessage(c.conn, MsgCopyReq, req); err != nil {
		return CopyResult{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return CopyResult{}, err
		}

		f, err := readFrame(c.conn)
		if err != nil {
			return CopyResult{}, fmt.Errorf("read response: %w", err)
		}

		switch f.MsgType {
		case MsgLogLine:
			var line LogLine
			if err := json.Unmarshal(f.Payload, &line); err != nil {
				c.log.Warn("undecodable server log line", "err", err)
				continue
			}
			c.forwardLogLine(line)

		case MsgCopyResult:
			var result CopyResult
			if err := json.Unmarshal(f.Payload, &result); err != nil {
				return CopyResult{}, fmt.Errorf("decode copy result: %w", err)
			}
			return result, nil

		default:
			return CopyResult{}, fmt.Errorf("unexpected message type 0x%02x", f.MsgType)
		}
	}
}

func (c *Client) forwardLogLine(line LogLine) {
	switch line.Level {
	case "error":
		c.log.Error(line.Message, "origin", "server")
	case "warn":
		c.log.Warn(line.Message, "origin", "server")
	case "debug":
		c.log.Debug(line.Message, "origin", "server")
	default:
		c.log.Info(line.Message, "origin", "server")
	}
}

// Close terminates the session.
func (c *Client) Close() error {
	return c.conn.Close()
}
