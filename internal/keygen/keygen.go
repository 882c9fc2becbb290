package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

var keyPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NewKey 生成 24 位十六进制对象键（12 字节随机数）
func NewKey() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand 不可用时无法继续
	}
	return hex.EncodeToString(b[:])
}

// IsKey 判断字符串是否为合法对象键
func IsKey(s string) bool {
	return keyPattern.MatchString(s)
}
