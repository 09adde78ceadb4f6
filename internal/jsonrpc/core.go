package jsonrpc

import (
	"context"

	"github.com/imtaco/livecast/internal/log"
)

type handlerImpl[T any] struct {
	methods map[string]MethodHandler[T]
	logger  *log.Logger
}

func NewHandler[T any](logger *log.Logger) Handler[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &handlerImpl[T]{
		methods: make(map[string]MethodHandler[T]),
		logger:  logger,
	}
}

// Def registers a method handler. Not safe to call once connections are open.
func (s *handlerImpl[T]) Def(method string, handler MethodHandler[T]) {
	if _, ok := s.methods[method]; ok {
		panic("method already defined: " + method)
	}
	s.methods[method] = handler
}

func (s *handlerImpl[T]) NewConn(stream ObjectStream, v *T) Conn[T] {
	return newConn(stream, v, s.handle, s.logger)
}

func (s *handlerImpl[T]) handle(ctx context.Context, conn *connImpl[T], req *Request) {
	s.logger.Debug("rpc request received",
		log.String("method", req.Method),
		log.Any("id", req.ID))

	handler, ok := s.methods[req.Method]
	if !ok {
		s.logger.Warn("method not found",
			log.String("method", req.Method),
			log.Any("id", req.ID))
		_ = conn.replyError(ctx, req.ID, ErrMethodNotFound(req.Method))
		return
	}

	result, err := handler(ctx, conn.mctx, req.Params)
	if err := s.reply(ctx, conn, req, result, err); err != nil {
		s.logger.Error("failed to send rpc reply",
			log.String("method", req.Method),
			log.Any("id", req.ID),
			log.Error(err))
	}
}

func (s *handlerImpl[T]) reply(
	ctx context.Context,
	conn *connImpl[T],
	req *Request,
	result any,
	err error,
) error {
	if err == nil {
		return conn.reply(ctx, req.ID, result)
	}

	rpcErr := FromError(err)
	if rpcErr.Code == CodeInternalError {
		s.logger.Error("rpc handler failed",
			log.String("method", req.Method),
			log.Any("id", req.ID),
			log.Error(err))
	} else {
		s.logger.Debug("rpc handler rejected request",
			log.String("method", req.Method),
			log.Any("id", req.ID),
			log.Int64("error_code", rpcErr.Code),
			log.String("error_message", rpcErr.Message))
	}
	return conn.replyError(ctx, req.ID, rpcErr)
}
