package keygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		k := NewKey()
		assert.Len(t, k, 24)
		assert.True(t, IsKey(k), "生成的键必须能被 IsKey 识别: %s", k)
		assert.False(t, seen[k], "键不能重复: %s", k)
		seen[k] = true
	}
}

func TestIsKey(t *testing.T) {
	assert.True(t, IsKey("507f1f77bcf86cd799439011"))
	assert.True(t, IsKey("507F1F77BCF86CD799439011"))

	assert.False(t, IsKey(""))
	assert.False(t, IsKey("507f1f77bcf86cd79943901"))   // 23 位
	assert.False(t, IsKey("507f1f77bcf86cd7994390111")) // 25 位
	assert.False(t, IsKey("507f1f77bcf86cd79943901g"))  // 非十六进制
	assert.False(t, IsKey("123456789012345678901234 ")) // 尾随空格
}
