package mocks

import (
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/clock"
)

// MockClock 测试用时钟
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock 创建指向指定时间的时钟
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now 返回模拟的当前时间
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance 将时钟向前推进
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set 设置当前时间
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}
