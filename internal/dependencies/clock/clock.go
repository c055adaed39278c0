package clock

import "time"

// Clock 提供可在测试中替换的时间来源
type Clock interface {
	Now() time.Time
}

// RealClock 使用系统时钟
type RealClock struct{}

// New 创建系统时钟
func New() *RealClock {
	return &RealClock{}
}

// Now 返回当前时间
func (c *RealClock) Now() time.Time {
	return time.Now()
}
