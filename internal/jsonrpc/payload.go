package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/imtaco/livecast/internal/errors"
)

type messageType int

const (
	typeUnknown messageType = iota
	typeRequest
	typeResponse
	typeNotification

	jsonRPCVersion = "2.0"
)

type Request struct {
	ID     *ID              `json:"id"`
	Method string           `json:"method"`
	Params *json.RawMessage `json:"params,omitempty"`
}

type message struct {
	JSONRPC string `json:"jsonrpc,omitempty"`
	ID      *ID    `json:"id,omitempty"`

	Method *string          `json:"method,omitempty"`
	Params *json.RawMessage `json:"params,omitempty"`

	Result *json.RawMessage `json:"result,omitempty"`
	Error  *Error           `json:"error,omitempty"`

	msgType messageType `json:"-"`
}

func (m *message) validate() {
	switch {
	case m.JSONRPC != "" && m.JSONRPC != jsonRPCVersion:
		m.msgType = typeUnknown
	case m.Method != nil:
		switch {
		case m.Result != nil || m.Error != nil:
			m.msgType = typeUnknown
		case m.ID.IsSet():
			m.msgType = typeRequest
		default:
			m.msgType = typeNotification
		}
	case m.Result != nil || m.Error != nil:
		if m.ID.IsSet() {
			m.msgType = typeResponse
		} else {
			m.msgType = typeUnknown
		}
	default:
		m.msgType = typeUnknown
	}
}

func newNotificationMessage(method string, params any) (*message, error) {
	bs, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(ErrCodeParseError, err, "failed to marshal params")
	}
	raw := json.RawMessage(bs)
	return &message{
		JSONRPC: jsonRPCVersion,
		Method:  &method,
		Params:  &raw,
		msgType: typeNotification,
	}, nil
}

func newResponseMessage(id ID, result any, rpcErr *Error) (*message, error) {
	var resultRaw *json.RawMessage
	if rpcErr == nil {
		bs, err := json.Marshal(result)
		if err != nil {
			return nil, errors.Wrap(ErrCodeParseError, err, "failed to marshal result")
		}
		raw := json.RawMessage(bs)
		resultRaw = &raw
	}
	return &message{
		JSONRPC: jsonRPCVersion,
		ID:      &id,
		Result:  resultRaw,
		Error:   rpcErr,
		msgType: typeResponse,
	}, nil
}

// ID is a JSON-RPC 2.0 request id, either a string or an integer.
type ID struct {
	Num      uint64
	Str      string
	isString bool
}

func newStringID(id string) *ID {
	return &ID{Str: id, isString: true}
}

func newIntID(id uint64) *ID {
	return &ID{Num: id}
}

func (id *ID) IsSet() bool {
	return id != nil && (id.isString || id.Num != 0)
}

func (id *ID) String() string {
	if id.isString {
		return strconv.Quote(id.Str)
	}
	return strconv.FormatUint(id.Num, 10)
}

func (id *ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.Str)
	}
	return json.Marshal(id.Num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var vStr string
	if err := json.Unmarshal(data, &vStr); err == nil {
		*id = ID{Str: vStr, isString: true}
		return nil
	}
	var vInt uint64
	if err := json.Unmarshal(data, &vInt); err != nil {
		return err
	}
	*id = ID{Num: vInt}
	return nil
}

// Error is a JSON-RPC response error.
type Error struct {
	Code    int64            `json:"code"`
	Message string           `json:"message"`
	Data    *json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error: code %v, message: %s", e.Code, e.Message)
}
