package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestIsMatchesCodeThroughWrapping() {
	err := New(ErrNotFound, "session abc not found")
	wrapped := fmt.Errorf("lookup: %w", err)

	s.True(Is(wrapped, ErrNotFound))
	s.False(Is(wrapped, ErrConflict))
}

func (s *ErrorsTestSuite) TestWrapNilStaysNil() {
	s.NoError(Wrap(ErrServer, nil, "ignored"))
	s.NoError(Wrapf(ErrServer, nil, "ignored %d", 1))
}

func (s *ErrorsTestSuite) TestKindOf() {
	s.Equal(ErrPrecondition, KindOf(New(ErrPrecondition, "already ended")))
	s.Equal(ErrServer, KindOf(stderrors.New("boom")))
	s.Equal(Code(""), KindOf(nil))
	s.Equal(ErrUpload, KindOf(Wrap(ErrUpload, stderrors.New("s3 down"), "put object")))
}

func (s *ErrorsTestSuite) TestMessageHidesServerCauses() {
	s.Equal("server error", Message(Wrap(ErrServer, stderrors.New("dial tcp 10.0.0.1"), "get")))
	s.Equal("upload error", Message(Wrap(ErrUpload, stderrors.New("bucket missing"), "put")))
	s.Equal("title is required", Message(New(ErrValidation, "title is required")))
}

func (s *ErrorsTestSuite) TestAs() {
	err := fmt.Errorf("outer: %w", New(ErrForbidden, "not owner"))
	e, ok := As[*Error](err)
	s.Require().True(ok)
	s.Equal(ErrForbidden, e.Code)

	_, ok = As[*Error](stderrors.New("plain"))
	s.False(ok)
}
