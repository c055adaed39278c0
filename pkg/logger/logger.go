// logger.go

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New 根据日志级别创建日志器，debug模式下输出易读的控制台格式
func New(level string, debug bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if debug {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter 使用指定输出创建日志器
func NewWithWriter(out io.Writer, level string) zerolog.Logger {
	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "pixelstorm").
		Logger()
}

// ParseLevel 解析日志级别，无法识别时使用info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop 返回丢弃所有输出的日志器，供测试使用
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
