package game

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"pgregory.net/rapid"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/mocks"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
)

func newPropertyEngine() (*Engine, *world.Store, *mocks.MockScheduler) {
	store := world.NewStore()
	c := mocks.NewMockClock(epoch)
	sched := mocks.NewMockScheduler(c)
	e := NewEngine(store, &recorder{}, zerolog.Nop()).
		WithClock(c).
		WithRandom(mocks.NewMockRandom()).
		WithScheduler(sched)
	return e, store, sched
}

func TestMoveAlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, store, _ := newPropertyEngine()
		e.Join(context.Background(), "a", Identity{}, "a")

		x := rapid.Float64Range(-1e9, 1e9).Draw(t, "x")
		y := rapid.Float64Range(-1e9, 1e9).Draw(t, "y")
		if _, err := e.Move("a", x, y, 5); err != nil {
			t.Fatalf("move: %v", err)
		}

		p, _ := store.Get("a")
		if p.Position.X < MinCoord || p.Position.X > MaxCoord || p.Position.Y < MinCoord || p.Position.Y > MaxCoord {
			t.Fatalf("position %v out of bounds", p.Position)
		}
	})
}

func TestShootDirectionIsUnit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, _, _ := newPropertyEngine()
		e.Join(context.Background(), "a", Identity{}, "a")

		dx := rapid.Float64Range(-1e6, 1e6).Draw(t, "dx")
		dy := rapid.Float64Range(-1e6, 1e6).Draw(t, "dy")
		proj, err := e.Shoot("a", dx, dy)
		if dx == 0 && dy == 0 {
			if err == nil {
				t.Fatalf("zero direction accepted")
			}
			return
		}
		if err != nil {
			t.Fatalf("shoot: %v", err)
		}
		if math.Abs(proj.Direction.Length()-1) > 1e-9 {
			t.Fatalf("direction %v not normalized", proj.Direction)
		}
		if proj.Speed != ProjectileSpeed {
			t.Fatalf("speed %v", proj.Speed)
		}
	})
}

func TestShootWithinCooldownRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, _, sched := newPropertyEngine()
		e.Join(context.Background(), "a", Identity{}, "a")

		if _, err := e.Shoot("a", 1, 0); err != nil {
			t.Fatalf("first shot: %v", err)
		}
		gap := time.Duration(rapid.Int64Range(0, int64(ShootCooldown)-1).Draw(t, "gap"))
		sched.Advance(gap)
		if _, err := e.Shoot("a", 0, 1); err != ErrShootCooldown {
			t.Fatalf("shot after %v: got %v", gap, err)
		}
	})
}

// 任意射击与tick序列下，生命值始终在 [0, 100] 且 alive == health > 0
func TestHealthInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, store, sched := newPropertyEngine()
		ids := []string{"a", "b", "c"}
		for _, id := range ids {
			e.Join(context.Background(), id, Identity{}, id)
			// MockRandom 默认出生在地图中心，随机错开位置
			x := rapid.Float64Range(MinCoord, MaxCoord).Draw(t, "x")
			y := rapid.Float64Range(MinCoord, MaxCoord).Draw(t, "y")
			if _, err := e.Move(id, x, y, 0); err != nil {
				t.Fatalf("move: %v", err)
			}
		}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "action") {
			case 0:
				shooter := rapid.SampledFrom(ids).Draw(t, "shooter")
				angle := rapid.Float64Range(0, 2*math.Pi).Draw(t, "angle")
				_, _ = e.Shoot(shooter, math.Cos(angle), math.Sin(angle))
			case 1:
				e.Tick()
			case 2:
				ms := rapid.IntRange(1, 2000).Draw(t, "ms")
				sched.Advance(time.Duration(ms) * time.Millisecond)
			}

			for _, p := range store.AllPlayers() {
				if p.Health < 0 || p.Health > MaxHealth {
					t.Fatalf("player %s health %d", p.ID, p.Health)
				}
				if p.Alive != (p.Health > 0) {
					t.Fatalf("player %s alive=%v health=%d", p.ID, p.Alive, p.Health)
				}
			}
			for _, proj := range store.AllProjectiles() {
				if math.Abs(proj.Direction.Length()-1) > 1e-9 {
					t.Fatalf("projectile %s direction %v", proj.ID, proj.Direction)
				}
			}
		}
	})
}
