package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/clock"
)

// MockScheduler 与 MockClock 联动的调度器，任务只在 Advance 时同步执行
type MockScheduler struct {
	mu    sync.Mutex
	clock *MockClock
	seq   int
	tasks []*mockTask
}

var _ clock.Scheduler = (*MockScheduler)(nil)

type mockTask struct {
	seq      int
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
	owner    *MockScheduler
}

// Stop 取消任务
func (t *mockTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewMockScheduler 创建绑定到时钟的调度器
func NewMockScheduler(c *MockClock) *MockScheduler {
	return &MockScheduler{clock: c}
}

// AfterFunc 登记一个在 clock.Now()+d 到期的任务
func (s *MockScheduler) AfterFunc(d time.Duration, f func()) clock.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &mockTask{seq: s.seq, deadline: s.clock.Now().Add(d), fn: f, owner: s}
	s.tasks = append(s.tasks, t)
	return t
}

// Pending 未执行且未取消的任务数
func (s *MockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance 推进时钟并按到期顺序执行到期任务
func (s *MockScheduler) Advance(d time.Duration) {
	s.clock.Advance(d)
	now := s.clock.Now()

	s.mu.Lock()
	var due []*mockTask
	remaining := s.tasks[:0]
	for _, t := range s.tasks {
		switch {
		case t.stopped || t.fired:
		case !t.deadline.After(now):
			t.fired = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	s.tasks = remaining
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.fn()
	}
}
