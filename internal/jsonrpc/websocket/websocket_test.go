package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/suite"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/jsonrpc"
	"github.com/imtaco/livecast/internal/log"
)

const waitTimeout = 2 * time.Second

type peer struct {
	Name string
}

type testHooks struct {
	connected    chan jsonrpc.MethodContext[peer]
	disconnected chan int
}

func (h *testHooks) OnVerify(r *http.Request) (*peer, bool, error) {
	switch name := r.URL.Query().Get("name"); name {
	case "":
		return nil, false, nil
	case "boom":
		return nil, false, errors.New(errors.ErrServer, "verifier down")
	default:
		return &peer{Name: name}, true, nil
	}
}

func (h *testHooks) OnConnect(mctx jsonrpc.MethodContext[peer]) {
	h.connected <- mctx
}

func (h *testHooks) OnDisconnect(_ jsonrpc.MethodContext[peer], code int) {
	h.disconnected <- code
}

type wireMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error   `json:"error,omitempty"`
}

type WebsocketTestSuite struct {
	suite.Suite
	hooks    *testHooks
	server   *Server[peer]
	httpSrv  *httptest.Server
	notified chan string
}

func TestWebsocketSuite(t *testing.T) {
	suite.Run(t, new(WebsocketTestSuite))
}

func (s *WebsocketTestSuite) SetupTest() {
	s.hooks = &testHooks{
		connected:    make(chan jsonrpc.MethodContext[peer], 4),
		disconnected: make(chan int, 4),
	}
	s.notified = make(chan string, 4)
	s.server = NewServer[peer](s.hooks, Config{ReadLimit: 1024}, log.NewNop())

	s.server.Def("whoami", func(_ context.Context, mctx jsonrpc.MethodContext[peer], _ *json.RawMessage) (any, error) {
		return map[string]string{"name": mctx.Get().Name}, nil
	})
	s.server.Def("note", func(_ context.Context, _ jsonrpc.MethodContext[peer], params *json.RawMessage) (any, error) {
		var p struct {
			Text string `json:"text" validate:"required"`
		}
		if err := jsonrpc.ShouldBindParams(params, &p); err != nil {
			return nil, err
		}
		s.notified <- p.Text
		return nil, nil
	})
	s.httpSrv = httptest.NewServer(s.server)
}

func (s *WebsocketTestSuite) TearDownTest() {
	s.httpSrv.Close()
}

func (s *WebsocketTestSuite) dial(name string) *websocket.Conn {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	url := "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/?name=" + name
	conn, _, err := websocket.Dial(ctx, url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func (s *WebsocketTestSuite) read(conn *websocket.Conn) wireMessage {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	var m wireMessage
	s.Require().NoError(wsjson.Read(ctx, conn, &m))
	return m
}

func (s *WebsocketTestSuite) write(conn *websocket.Conn, frame string) {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	s.Require().NoError(conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

func (s *WebsocketTestSuite) TestRequestGetsReply() {
	conn := s.dial("ada")

	s.write(conn, `{"jsonrpc":"2.0","id":1,"method":"whoami"}`)
	m := s.read(conn)
	s.Require().NotNil(m.Result)
	s.JSONEq(`{"name":"ada"}`, string(*m.Result))
	s.JSONEq(`1`, string(*m.ID))
}

func (s *WebsocketTestSuite) TestMalformedFrameIsSkipped() {
	conn := s.dial("ada")

	s.write(conn, `{not json`)
	s.write(conn, `{"jsonrpc":"2.0","id":"a","method":"whoami"}`)
	m := s.read(conn)
	s.Require().NotNil(m.Result)
	s.JSONEq(`"a"`, string(*m.ID))
}

func (s *WebsocketTestSuite) TestNotificationHasNoReply() {
	conn := s.dial("ada")

	s.write(conn, `{"jsonrpc":"2.0","method":"note","params":{"text":"hi"}}`)
	select {
	case got := <-s.notified:
		s.Equal("hi", got)
	case <-time.After(waitTimeout):
		s.Fail("notification not handled")
	}

	// a failed notification is not answered either, the next reply is for id 2
	s.write(conn, `{"jsonrpc":"2.0","method":"note","params":{}}`)
	s.write(conn, `{"jsonrpc":"2.0","id":2,"method":"whoami"}`)
	m := s.read(conn)
	s.JSONEq(`2`, string(*m.ID))
}

func (s *WebsocketTestSuite) TestErrorsCarryKindCodes() {
	conn := s.dial("ada")

	s.write(conn, `{"jsonrpc":"2.0","id":3,"method":"note","params":{}}`)
	m := s.read(conn)
	s.Require().NotNil(m.Error)
	s.Equal(int64(jsonrpc.CodeInvalidParams), m.Error.Code)

	s.write(conn, `{"jsonrpc":"2.0","id":4,"method":"nope"}`)
	m = s.read(conn)
	s.Require().NotNil(m.Error)
	s.Equal(int64(jsonrpc.CodeMethodNotFound), m.Error.Code)
}

func (s *WebsocketTestSuite) TestServerPush() {
	conn := s.dial("ada")

	var mctx jsonrpc.MethodContext[peer]
	select {
	case mctx = <-s.hooks.connected:
	case <-time.After(waitTimeout):
		s.FailNow("not connected")
	}
	s.Equal("ada", mctx.Get().Name)

	s.Require().NoError(mctx.Peer().Notify(context.Background(), "session-started", map[string]string{"sessionId": "s1"}))
	m := s.read(conn)
	s.Equal("session-started", m.Method)
	s.Nil(m.ID)
	s.JSONEq(`{"sessionId":"s1"}`, string(*m.Params))
}

func (s *WebsocketTestSuite) TestDisconnectReportsCloseCode() {
	conn := s.dial("ada")
	<-s.hooks.connected

	s.Require().NoError(conn.Close(websocket.StatusGoingAway, "tab closed"))
	select {
	case code := <-s.hooks.disconnected:
		s.Equal(int(websocket.StatusGoingAway), code)
	case <-time.After(waitTimeout):
		s.Fail("disconnect not reported")
	}
}

func (s *WebsocketTestSuite) TestOversizedFrameCloses() {
	conn := s.dial("ada")
	<-s.hooks.connected

	s.write(conn, `{"jsonrpc":"2.0","method":"note","params":{"text":"`+strings.Repeat("x", 2048)+`"}}`)
	select {
	case <-s.hooks.disconnected:
	case <-time.After(waitTimeout):
		s.Fail("oversized frame did not close the socket")
	}
}

func (s *WebsocketTestSuite) TestVerifyRefusals() {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	base := "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/"

	_, resp, err := websocket.Dial(ctx, base, nil)
	s.Require().Error(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, base+"?name=boom", nil)
	s.Require().Error(err)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
}
