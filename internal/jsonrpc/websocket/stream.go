package websocket

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/jsonrpc"
	"github.com/imtaco/livecast/internal/log"
)

const (
	ErrBufferFull errors.Code = "buffer_full"
)

const (
	pingInterval      = 10 * time.Second
	pingTimeout       = 3 * time.Second
	writeTimeout      = 3 * time.Second
	defaultSendBuffer = 256
)

func newStream(conn *websocket.Conn, buffer int, logger *log.Logger) *wsStream {
	ws := &wsStream{
		conn:   conn,
		chBuf:  make(chan any, buffer),
		logger: logger,
	}
	ws.connCtx, ws.cancel = context.WithCancel(context.Background())
	ws.code.Store(int32(websocket.StatusAbnormalClosure))
	return ws
}

// wsStream adapts a websocket to jsonrpc.ObjectStream. Writes are queued and
// sent in order by a single write pump.
type wsStream struct {
	conn  *websocket.Conn
	chBuf chan any

	connCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	code      atomic.Int32
	logger    *log.Logger
}

var _ jsonrpc.ObjectStream = (*wsStream)(nil)

// Write only fails when the stream is closed or the send queue is full. A full
// queue closes the stream.
func (ws *wsStream) Write(_ context.Context, obj any) error {
	select {
	case <-ws.connCtx.Done():
		return net.ErrClosed
	default:
	}

	select {
	case ws.chBuf <- obj:
		return nil
	default:
		ws.close(ErrBufferFull)
		return ErrBufferFull
	}
}

// Read fails with jsonrpc.ErrCodeParseError for a frame that is not JSON, which
// leaves the socket open. Any other failure closes it.
func (ws *wsStream) Read(ctx context.Context, v any) error {
	_, data, err := ws.conn.Read(ctx)
	if err != nil {
		ws.close(err)
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(jsonrpc.ErrCodeParseError, err, "malformed frame")
	}
	return nil
}

// Open starts the write pump. The stream closes when ctx is done.
func (ws *wsStream) Open(ctx context.Context) error {
	context.AfterFunc(ctx, func() { ws.close(ctx.Err()) })

	go func() {
		err := ws.writePump(ws.connCtx)
		ws.close(err)
	}()

	return nil
}

func (ws *wsStream) Close() error {
	ws.close(nil)
	return nil
}

func (ws *wsStream) closeCode() int {
	return int(ws.code.Load())
}

func (ws *wsStream) close(err error) {
	ws.closeOnce.Do(func() {
		code := websocket.StatusNormalClosure
		dead := false

		switch status := websocket.CloseStatus(err); {
		case err == nil:
			ws.logger.Debug("connection closed by server")
		case status != -1:
			ws.logger.Debug("connection closed by peer", log.Int("code", int(status)))
			ws.code.Store(int32(status))
			dead = true
		case errors.Is(err, net.ErrClosed), errors.Is(err, context.Canceled):
			ws.logger.Debug("connection gone", log.Error(err))
			dead = true
		case errors.Is(err, ErrBufferFull):
			ws.logger.Warn("connection closed, peer too slow")
			code = websocket.StatusPolicyViolation
		default:
			ws.logger.Debug("connection closed on error", log.Error(err))
			code = websocket.StatusInternalError
		}

		if dead {
			_ = ws.conn.CloseNow()
		} else {
			ws.code.Store(int32(code))
			// Close waits for the peer's close frame, do not hold the caller
			go func() { _ = ws.conn.Close(code, "bye") }()
		}
		ws.cancel()
	})
}

func (ws *wsStream) wait() {
	<-ws.connCtx.Done()
}

func (ws *wsStream) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ws.ping(ctx); err != nil {
				return err
			}
		case obj := <-ws.chBuf:
			if err := ws.write(ctx, obj); err != nil {
				return err
			}
		}
	}
}

func (ws *wsStream) write(ctx context.Context, obj any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws.conn, obj)
}

func (ws *wsStream) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return ws.conn.Ping(ctx)
}
