package clock

import "time"

// Timer 可取消的延迟任务
type Timer interface {
	// Stop 取消任务，任务已执行或已取消时返回false
	Stop() bool
}

// Scheduler 延迟执行任务
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler 基于 time.AfterFunc 的调度器
type RealScheduler struct{}

// NewScheduler 创建系统调度器
func NewScheduler() *RealScheduler {
	return &RealScheduler{}
}

// AfterFunc 在 d 之后于新的goroutine中执行 f
func (s *RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
