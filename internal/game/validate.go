package game

import (
	"math"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// ClampPosition 将坐标限制在 [MinCoord, MaxCoord]
func ClampPosition(v models.Vector2D) models.Vector2D {
	return models.Vector2D{X: clamp(v.X), Y: clamp(v.Y)}
}

func clamp(v float64) float64 {
	return math.Max(MinCoord, math.Min(MaxCoord, v))
}

// inWorld 投射物必须严格位于 (0, WorldSize)
func inWorld(v models.Vector2D) bool {
	return v.X > 0 && v.X < WorldSize && v.Y > 0 && v.Y < WorldSize
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
