package random

import (
	"math/rand/v2"
)

// Random 提供可在测试中替换的随机数来源
type Random interface {
	// Float64 返回 [0, 1) 区间的随机数
	Float64() float64

	// Intn 返回 [0, n) 区间的随机整数
	Intn(n int) int
}

// MathRandom 基于 math/rand/v2 的实现
type MathRandom struct{}

// New 创建随机数来源
func New() *MathRandom {
	return &MathRandom{}
}

// Float64 返回 [0, 1) 区间的随机数
func (r *MathRandom) Float64() float64 {
	return rand.Float64()
}

// Intn 返回 [0, n) 区间的随机整数
func (r *MathRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}
