package log

import (
	"go.uber.org/zap"
)

// InitLogger 初始化全局 zap logger
func InitLogger() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// InitDevLogger 开发模式下使用可读性更好的输出
func InitDevLogger() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
