package websocket

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/spf13/viper"

	"github.com/imtaco/livecast/internal/jsonrpc"
	"github.com/imtaco/livecast/internal/log"
)

type Config struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// ReadLimit caps a single inbound message in bytes.
	ReadLimit int64 `mapstructure:"read_limit"`
	// SendBuffer is how many outbound messages may queue before the peer is
	// dropped as too slow.
	SendBuffer int `mapstructure:"send_buffer"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("allowed_origins"), []string{"*"})
	v.SetDefault(p("read_limit"), 128<<10)
	v.SetDefault(p("send_buffer"), defaultSendBuffer)
}

// Server upgrades HTTP requests and serves JSON-RPC on the socket. Register
// methods with Def before serving.
type Server[T any] struct {
	jsonrpc.Handler[T]
	hooks  ConnectionHooks[T]
	cfg    Config
	logger *log.Logger
}

func NewServer[T any](
	hooks ConnectionHooks[T],
	cfg Config,
	logger *log.Logger,
) *Server[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if hooks == nil {
		hooks = &defaultHooks[T]{}
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	return &Server[T]{
		Handler: jsonrpc.NewHandler[T](logger),
		hooks:   hooks,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Server[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWebSocket(w, r)
}

// HandleWebSocket blocks until the socket is closed.
func (s *Server[T]) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	initValue, passed, err := s.hooks.OnVerify(r)
	if err != nil {
		s.logger.Warn("connection verification error",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		http.Error(w, "fail to verify", http.StatusInternalServerError)
		return
	} else if !passed {
		s.logger.Info("connection verification failed",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}
	if s.cfg.ReadLimit > 0 {
		wsConn.SetReadLimit(s.cfg.ReadLimit)
	}

	stream := newStream(wsConn, s.cfg.SendBuffer, s.logger)
	rpcConn := s.Handler.NewConn(stream, initValue)

	s.logger.Debug("websocket connection established",
		log.String("remote_addr", r.RemoteAddr),
		log.String("user_agent", r.UserAgent()))

	s.hooks.OnConnect(rpcConn.Context())
	if err := rpcConn.Open(r.Context()); err != nil {
		s.logger.Error("failed to open rpc connection",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		_ = stream.Close()
		s.hooks.OnDisconnect(rpcConn.Context(), int(websocket.StatusInternalError))
		return
	}

	stream.wait()
	s.hooks.OnDisconnect(rpcConn.Context(), stream.closeCode())
}
