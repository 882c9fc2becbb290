package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	err := BadRequest(CodeEmptyCart, "订单至少要有 %d 件商品", 1)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, CodeEmptyCart, err.Code)
	assert.Contains(t, err.Message, "1")

	assert.Equal(t, http.StatusNotFound, NotFound(CodeOrderNotFound, "x").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthenticated("x").Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("x").Status)
	assert.Equal(t, http.StatusInternalServerError, Storage(errors.New("boom")).Status)
}

func TestFrom(t *testing.T) {
	ae := BadRequest(CodeValidation, "非法入参")
	assert.Same(t, ae, From(ae))

	// 包装过的业务错误也能还原
	wrapped := fmt.Errorf("上层: %w", ae)
	assert.Same(t, ae, From(wrapped))

	// 非业务错误统一按存储错误返回，不暴露内部细节
	got := From(errors.New("dial tcp: connection refused"))
	assert.Equal(t, CodeStorageUnavailable, got.Code)
	assert.NotContains(t, got.Message, "dial tcp")
}

func TestIs(t *testing.T) {
	err := BadRequest(CodeInsufficientStock, "库存不足")
	require.True(t, Is(err, CodeInsufficientStock))
	assert.False(t, Is(err, CodeEmptyCart))
	assert.False(t, Is(errors.New("plain"), CodeEmptyCart))
	assert.True(t, Is(fmt.Errorf("wrap: %w", err), CodeInsufficientStock))
}
