package jsonrpc

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
)

func rawJSON(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

type state struct {
	Name string
}

type JSONRPCSuite struct {
	suite.Suite
	stream *stubStream
	conn   *connImpl[state]
}

func TestJSONRPCSuite(t *testing.T) {
	suite.Run(t, new(JSONRPCSuite))
}

func (s *JSONRPCSuite) SetupTest() {
	s.stream, s.conn = s.newConnWithHandler(nil)
}

func (s *JSONRPCSuite) newHandler() *handlerImpl[state] {
	return NewHandler[state](log.NewTest(s.T())).(*handlerImpl[state])
}

func (s *JSONRPCSuite) newConnWithHandler(handler handlerFunc[state]) (*stubStream, *connImpl[state]) {
	stream := newStubStream()
	if handler == nil {
		handler = func(context.Context, *connImpl[state], *Request) {}
	}
	return stream, newConn(stream, &state{Name: "init"}, handler, log.NewTest(s.T()))
}

func (s *JSONRPCSuite) TestNewHandlerRequiresLogger() {
	s.Panics(func() {
		NewHandler[state](nil)
	})
}

func (s *JSONRPCSuite) TestDefRejectsDuplicateMethods() {
	core := s.newHandler()
	h := func(context.Context, MethodContext[state], *json.RawMessage) (any, error) {
		return nil, nil
	}
	core.Def("sum", h)
	s.Panics(func() {
		core.Def("sum", h)
	})
}

func (s *JSONRPCSuite) TestHandleMethodNotFoundSendsError() {
	core := s.newHandler()
	req := &Request{ID: newStringID("1"), Method: "missing"}
	core.handle(context.Background(), s.conn, req)
	s.Require().Len(s.stream.writes, 1)
	s.Require().NotNil(s.stream.writes[0].Error)
	s.EqualValues(CodeMethodNotFound, s.stream.writes[0].Error.Code)
}

func (s *JSONRPCSuite) TestHandleDispatchesRegisteredHandler() {
	core := s.newHandler()
	core.Def("echo", func(_ context.Context, mctx MethodContext[state], _ *json.RawMessage) (any, error) {
		return map[string]string{"name": mctx.Get().Name}, nil
	})
	req := &Request{ID: newIntID(2), Method: "echo"}
	core.handle(context.Background(), s.conn, req)
	s.Require().Len(s.stream.writes, 1)
	var out map[string]string
	s.Require().NoError(json.Unmarshal(*s.stream.writes[0].Result, &out))
	s.Equal("init", out["name"])
	s.Equal("2", s.stream.writes[0].ID.String())
}

func (s *JSONRPCSuite) TestNotificationGetsNoReply() {
	core := s.newHandler()
	called := false
	core.Def("fire", func(context.Context, MethodContext[state], *json.RawMessage) (any, error) {
		called = true
		return nil, errors.New(errors.ErrConflict, "taken")
	})
	core.handle(context.Background(), s.conn, &Request{Method: "fire"})
	s.True(called)
	s.Empty(s.stream.writes)
}

func (s *JSONRPCSuite) TestReplyMapsDomainKinds() {
	core := s.newHandler()
	cases := []struct {
		err  error
		code int64
		msg  string
	}{
		{errors.New(errors.ErrValidation, "bad signal"), CodeInvalidParams, "bad signal"},
		{errors.New(errors.ErrUnauthorized, "no token"), CodeUnauthorized, "no token"},
		{errors.New(errors.ErrForbidden, "not owner"), CodeForbidden, "not owner"},
		{errors.New(errors.ErrNotFound, "no session"), CodeNotFound, "no session"},
		{errors.New(errors.ErrConflict, "slot taken"), CodeConflict, "slot taken"},
		{errors.New(errors.ErrPrecondition, "ended"), CodePrecondition, "ended"},
		{errors.Wrap(errors.ErrServer, stderrors.New("etcd down"), "get"), CodeInternalError, "server error"},
		{stderrors.New("boom"), CodeInternalError, "server error"},
	}
	for i, tc := range cases {
		req := &Request{ID: newIntID(uint64(i + 1)), Method: "rpc"}
		s.Require().NoError(core.reply(context.Background(), s.conn, req, nil, tc.err))
		got := s.stream.writes[len(s.stream.writes)-1].Error
		s.Require().NotNil(got)
		s.EqualValues(tc.code, got.Code)
		s.Equal(tc.msg, got.Message)

		var data errorData
		s.Require().NoError(json.Unmarshal(*got.Data, &data))
		s.Equal(string(errors.KindOf(tc.err)), data.Kind)
	}
}

func (s *JSONRPCSuite) TestReplyPassesRPCErrorsThrough() {
	core := s.newHandler()
	req := &Request{ID: newStringID("4"), Method: "rpc"}
	rpcErr := ErrInvalidRequest("bad")
	s.Require().NoError(core.reply(context.Background(), s.conn, req, nil, rpcErr))
	s.Require().Len(s.stream.writes, 1)
	s.Equal(rpcErr, s.stream.writes[0].Error)
}

func (s *JSONRPCSuite) TestNotifySendsNotification() {
	s.Require().NoError(s.conn.Notify(context.Background(), "ping", map[string]int{"v": 1}))
	s.Require().Len(s.stream.writes, 1)
	s.Nil(s.stream.writes[0].ID)
	s.Equal(typeNotification, s.stream.writes[0].msgType)
	s.Equal("2.0", s.stream.writes[0].JSONRPC)
	s.Equal(`{"v":1}`, string(*s.stream.writes[0].Params))
}

func (s *JSONRPCSuite) TestNotifyRejectsClosedConn() {
	s.Require().NoError(s.conn.Close())
	s.ErrorIs(s.conn.Notify(context.Background(), "ping", nil), ErrClosed)
	s.ErrorIs(s.conn.Close(), ErrClosed)
}

func (s *JSONRPCSuite) TestNewResponseMessageEncodesResult() {
	id := newStringID("abc")
	msg, err := newResponseMessage(*id, map[string]string{"ready": "yes"}, nil)
	s.Require().NoError(err)
	s.Equal(id.String(), msg.ID.String())
	s.Equal(typeResponse, msg.msgType)
	s.Equal(`{"ready":"yes"}`, string(*msg.Result))
	s.Nil(msg.Error)
}

func (s *JSONRPCSuite) TestMessageValidateClassifiesMessages() {
	method := "echo"
	raw := json.RawMessage("{}")

	req := &message{Method: &method, ID: newStringID("1"), Params: &raw}
	req.validate()
	s.Equal(typeRequest, req.msgType)

	notify := &message{Method: &method, Params: &raw}
	notify.validate()
	s.Equal(typeNotification, notify.msgType)

	resp := &message{ID: newStringID("2"), Result: rawJSON("{}")}
	resp.validate()
	s.Equal(typeResponse, resp.msgType)

	invalid := &message{Method: &method, Result: rawJSON("{}")}
	invalid.validate()
	s.Equal(typeUnknown, invalid.msgType)

	wrongVersion := &message{JSONRPC: "1.0", Method: &method}
	wrongVersion.validate()
	s.Equal(typeUnknown, wrongVersion.msgType)

	empty := &message{}
	empty.validate()
	s.Equal(typeUnknown, empty.msgType)
}

func (s *JSONRPCSuite) TestIDRoundTripsStringAndNumber() {
	var id ID
	s.Require().NoError(json.Unmarshal([]byte(`"abc"`), &id))
	s.Equal(`"abc"`, id.String())

	s.Require().NoError(json.Unmarshal([]byte(`7`), &id))
	s.Equal("7", id.String())
	bs, err := json.Marshal(&id)
	s.Require().NoError(err)
	s.Equal("7", string(bs))

	s.Error(json.Unmarshal([]byte(`{}`), &id))
}

func (s *JSONRPCSuite) TestShouldBindParamsValidation() {
	var dst struct {
		Value int `json:"value" validate:"required,min=1"`
	}

	err := ShouldBindParams(nil, &dst)
	s.True(errors.Is(err, errors.ErrValidation))

	raw := json.RawMessage(`{"value":"bad"`)
	err = ShouldBindParams(&raw, &dst)
	s.True(errors.Is(err, errors.ErrValidation))

	raw = json.RawMessage(`{"value":5}`)
	s.Require().NoError(ShouldBindParams(&raw, &dst))
	s.Equal(5, dst.Value)

	raw = json.RawMessage(`{"value":0}`)
	err = ShouldBindParams(&raw, &dst)
	s.True(errors.Is(err, errors.ErrValidation))
	s.Contains(errors.Message(err), "value")
}

func (s *JSONRPCSuite) TestReadLoopDispatchesInOrder() {
	var got []string
	handler := func(_ context.Context, _ *connImpl[state], req *Request) {
		got = append(got, req.Method)
	}
	stream, conn := s.newConnWithHandler(handler)
	first, second := "first", "second"
	stream.enqueueRead(&message{ID: newStringID("a"), Method: &first}, nil)
	stream.enqueueRead(nil, errors.New(ErrCodeParseError, "garbage"))
	stream.enqueueRead(&message{Method: &second}, nil)

	conn.readLoop(context.Background())

	s.Equal([]string{"first", "second"}, got)
	s.True(stream.closed)
}

func (s *JSONRPCSuite) TestReadLoopIgnoresResponses() {
	called := false
	handler := func(context.Context, *connImpl[state], *Request) { called = true }
	stream, conn := s.newConnWithHandler(handler)
	stream.enqueueRead(&message{ID: newStringID("r"), Result: rawJSON(`1`)}, nil)

	conn.readLoop(context.Background())

	s.False(called)
	s.Empty(stream.writes)
}

func (s *JSONRPCSuite) TestReadLoopRejectsInvalidRequest() {
	stream, conn := s.newConnWithHandler(nil)
	stream.enqueueRead(&message{ID: newStringID("x")}, nil)

	conn.readLoop(context.Background())

	s.Require().Len(stream.writes, 1)
	s.EqualValues(CodeInvalidRequest, stream.writes[0].Error.Code)
}

type readItem struct {
	msg *message
	err error
}

type stubStream struct {
	writes    []*message
	writeErr  error
	closed    bool
	readQueue []readItem
}

func newStubStream() *stubStream {
	return &stubStream{}
}

func (s *stubStream) enqueueRead(msg *message, err error) {
	s.readQueue = append(s.readQueue, readItem{msg: msg, err: err})
}

func (s *stubStream) Open(context.Context) error {
	return nil
}

func (s *stubStream) Read(_ context.Context, dst any) error {
	if len(s.readQueue) == 0 {
		return io.EOF
	}
	item := s.readQueue[0]
	s.readQueue = s.readQueue[1:]
	if item.err != nil {
		return item.err
	}
	out := dst.(*message)
	*out = *item.msg
	return nil
}

func (s *stubStream) Write(_ context.Context, obj any) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, obj.(*message))
	return nil
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}
