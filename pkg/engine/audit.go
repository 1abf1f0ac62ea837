// pkg/engine/audit.go
package engine

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-asteroids/pkg/entity"
	"github.com/opd-ai/go-asteroids/pkg/health"
	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// WorldChecks returns the invariants every live world satisfies, as health
// checks: bodies lie inside the boundary, no two bodies overlap, and fired
// bullets share the world of their ship.
func WorldChecks(w *entity.World) []health.HealthCheck {
	return []health.HealthCheck{
		health.CheckFunc{CheckName: "bodies_inside", Fn: func(ctx context.Context) error {
			for _, b := range w.Entities() {
				c := physics.Circle{Center: b.Position().Vec(), Radius: b.Radius()}
				if !physics.Inside(c, w.Width(), w.Height()) {
					return fmt.Errorf("%s %d at %v is outside the world", b.Kind(), b.ID(), b.Position())
				}
			}
			return nil
		}},
		health.CheckFunc{CheckName: "no_overlap", Fn: func(ctx context.Context) error {
			bodies := w.Entities()
			for i, a := range bodies {
				for _, b := range bodies[i+1:] {
					if err := ctx.Err(); err != nil {
						return err
					}
					overlap, err := entity.Overlap(a, b)
					if err != nil {
						return err
					}
					if overlap {
						return &entity.OverlapError{First: a, Second: b}
					}
				}
			}
			return nil
		}},
		health.CheckFunc{CheckName: "bullet_ownership", Fn: func(ctx context.Context) error {
			for _, b := range w.Bullets() {
				ship := b.Ship()
				if ship == nil {
					continue
				}
				if !ship.HasFired(b) || ship.World() != w {
					return fmt.Errorf("bullet %d is not in flight from ship %d", b.ID(), ship.ID())
				}
			}
			return nil
		}},
	}
}
