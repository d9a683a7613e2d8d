package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorsSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsSuite))
}

func (s *ErrorsSuite) TestNewAndNewf() {
	err := New(CodeValidation, "bad input")
	s.Equal("bad input", err.Error())
	s.Equal(CodeValidation, CodeOf(err))

	err = Newf(CodeNotFound, "model version %d out of range", 7)
	s.Equal("model version 7 out of range", err.Error())
}

func (s *ErrorsSuite) TestWrap() {
	s.Run("nil cause yields nil", func() {
		s.Nil(Wrap(nil, CodeInternal, "ignored"))
	})

	s.Run("cause remains reachable via errors.Is", func() {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to check blacklist")

		s.True(errors.Is(err, cause))
		s.Contains(err.Error(), "connection refused")
		s.Contains(err.Error(), "failed to check blacklist")
	})
}

func (s *ErrorsSuite) TestHasCode() {
	inner := New(CodeConflict, "proof already used")
	outer := Wrap(inner, CodeInternal, "settlement failed")

	s.True(HasCode(outer, CodeInternal))
	s.True(HasCode(outer, CodeConflict))
	s.False(HasCode(outer, CodeNotFound))
	s.False(HasCode(nil, CodeInternal))
	s.False(HasCode(errors.New("plain"), CodeInternal))

	wrapped := fmt.Errorf("context: %w", inner)
	s.True(HasCode(wrapped, CodeConflict))
}

func (s *ErrorsSuite) TestCodeOf() {
	s.Equal(CodeInternal, CodeOf(errors.New("plain")))
	s.Equal(CodeForbidden, CodeOf(New(CodeForbidden, "actor is blacklisted")))
	s.Equal(CodeInternal, CodeOf(Wrap(New(CodeConflict, "inner"), CodeInternal, "outer")))
}

func (s *ErrorsSuite) TestToHTTPStatus() {
	for code, want := range map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvariantViolation: http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeInternal:           http.StatusInternalServerError,
	} {
		s.Equal(want, ToHTTPStatus(code))
	}
}
