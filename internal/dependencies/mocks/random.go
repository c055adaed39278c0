package mocks

import (
	"sync"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/random"
)

// MockRandom 测试用随机数来源，按队列顺序返回预设值
type MockRandom struct {
	mu sync.Mutex

	floats     []float64
	floatIndex int

	ints     []int
	intIndex int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom 创建测试用随机数来源
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Float64 返回下一个预设值，队列耗尽时返回0.5
func (r *MockRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.floatIndex >= len(r.floats) {
		return 0.5
	}
	v := r.floats[r.floatIndex]
	r.floatIndex++
	return v
}

// Intn 返回下一个预设值，队列耗尽时返回0
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intIndex >= len(r.ints) {
		return 0
	}
	v := r.ints[r.intIndex]
	r.intIndex++
	return v
}

// QueueFloat64 追加 Float64 的返回值
func (r *MockRandom) QueueFloat64(values ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.floats = append(r.floats, values...)
}

// QueueIntn 追加 Intn 的返回值
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueSpawn 追加一次出生点，坐标按世界坐标给出
func (r *MockRandom) QueueSpawn(x, y, min, max float64) {
	r.QueueFloat64((x-min)/(max-min), (y-min)/(max-min))
}
