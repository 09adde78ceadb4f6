package jsonrpc

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
)

// MethodContext holds the per-connection value shared by every call on it.
type MethodContext[T any] interface {
	Get() *T
	Set(value *T)
	Peer() Conn[T]
}

func NewContext[T any](conn Conn[T], v *T) MethodContext[T] {
	c := &contextImpl[T]{
		conn: conn,
	}
	c.v.Store(v)
	return c
}

type contextImpl[T any] struct {
	conn Conn[T]
	v    atomic.Pointer[T]
}

func (m *contextImpl[T]) Set(value *T) {
	m.v.Store(value)
}

func (m *contextImpl[T]) Get() *T {
	return m.v.Load()
}

func (m *contextImpl[T]) Peer() Conn[T] {
	return m.conn
}

type handlerFunc[T any] func(context.Context, *connImpl[T], *Request)

type connImpl[T any] struct {
	stream   ObjectStream
	mctx     MethodContext[T]
	handler  handlerFunc[T]
	sendLock sync.Mutex
	closed   atomic.Bool
	logger   *log.Logger
}

func newConn[T any](
	stream ObjectStream,
	v *T,
	handler handlerFunc[T],
	logger *log.Logger,
) *connImpl[T] {
	c := &connImpl[T]{
		stream:  stream,
		handler: handler,
		logger:  logger,
	}
	c.mctx = NewContext[T](c, v)
	return c
}

func (c *connImpl[T]) Open(ctx context.Context) error {
	if err := c.stream.Open(ctx); err != nil {
		return err
	}

	go c.readLoop(ctx)
	return nil
}

func (c *connImpl[T]) Close() error {
	return c.close(nil)
}

func (c *connImpl[T]) Context() MethodContext[T] {
	return c.mctx
}

func (c *connImpl[T]) Notify(ctx context.Context, method string, params any) error {
	m, err := newNotificationMessage(method, params)
	if err != nil {
		return err
	}
	return c.send(ctx, m)
}

// reply is a no-op for notifications.
func (c *connImpl[T]) reply(ctx context.Context, id *ID, result any) error {
	if !id.IsSet() {
		return nil
	}
	resp, err := newResponseMessage(*id, result, nil)
	if err != nil {
		return err
	}
	return c.send(ctx, resp)
}

func (c *connImpl[T]) replyError(ctx context.Context, id *ID, respErr *Error) error {
	if !id.IsSet() {
		return nil
	}
	resp, err := newResponseMessage(*id, nil, respErr)
	if err != nil {
		return err
	}
	return c.send(ctx, resp)
}

func (c *connImpl[T]) close(err error) error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		c.logger.Debug("jsonrpc connection closed with error", log.Error(err))
	}
	return c.stream.Close()
}

func (c *connImpl[T]) readLoop(ctx context.Context) {
	for {
		var m message
		err := c.stream.Read(ctx, &m)
		if errors.Is(err, ErrCodeParseError) {
			c.logger.Warn("ignore malformed message", log.Error(err))
			continue
		}
		if err != nil {
			_ = c.close(err)
			return
		}

		m.validate()

		switch m.msgType {
		case typeRequest, typeNotification:
			req := &Request{
				ID:     m.ID,
				Method: *m.Method,
				Params: m.Params,
			}
			c.handler(ctx, c, req)

		case typeResponse:
			c.logger.Debug("ignore response from client", log.Any("id", m.ID))

		default:
			c.logger.Warn("ignore invalid message: neither request nor response")
			_ = c.replyError(ctx, m.ID, ErrInvalidRequest("invalid message"))
		}
	}
}

func (c *connImpl[T]) send(ctx context.Context, m *message) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	return c.stream.Write(ctx, m)
}
