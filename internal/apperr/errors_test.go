package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve borrow 7: %w", InvalidState("该借用记录已审批过，无法重复审批"))

	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "该借用记录已审批过，无法重复审批", MessageOf(err))
	assert.True(t, errors.Is(err, &Error{Kind: KindInvalidState}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict}))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "服务器内部错误", MessageOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(err)))
}

func TestHTTPStatus(t *testing.T) {
	testCases := map[Kind]int{
		KindNotFound:        http.StatusNotFound,
		KindInvalidArgument: http.StatusBadRequest,
		KindInvalidState:    http.StatusBadRequest,
		KindForbidden:       http.StatusForbidden,
		KindConflict:        http.StatusConflict,
		KindUnauthenticated: http.StatusUnauthorized,
	}
	for kind, status := range testCases {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, status, HTTPStatus(kind))
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindInternal, "查询失败", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "查询失败: boom", err.Error())
}
