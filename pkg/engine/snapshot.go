// pkg/engine/snapshot.go
package engine

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/opd-ai/go-asteroids/pkg/entity"
)

// Stats counts what happened during a run
type Stats struct {
	Ticks              uint64
	Elapsed            float64
	ObjectCollisions   int
	BoundaryCollisions int
	BulletsFired       int
	Destroyed          int
	Entities           int
}

// Stats returns the counters of the run so far
func (s *Simulation) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Elapsed = s.elapsed
	stats.Entities = s.World.NbEntities()
	return stats
}

// BodyState is the observable state of one body in the world. Loaded counts
// the bullets in a ship's magazine; Bounces is a bullet's bounce count.
type BodyState struct {
	ID          entity.ID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	VX          float64   `json:"vx"`
	VY          float64   `json:"vy"`
	Radius      float64   `json:"radius"`
	Orientation float64   `json:"orientation,omitempty"`
	Loaded      int       `json:"loaded,omitempty"`
	Bounces     int       `json:"bounces,omitempty"`
}

// Snapshot is the state of every body in the world, ordered by ID
type Snapshot struct {
	Name    string      `json:"name"`
	Tick    uint64      `json:"tick"`
	Elapsed float64     `json:"elapsed"`
	Bodies  []BodyState `json:"bodies"`
}

// Snapshot captures the world as it is now
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bodies := s.World.Entities()
	snap := Snapshot{
		Name:    s.Config.Name,
		Tick:    s.stats.Ticks,
		Elapsed: s.elapsed,
		Bodies:  make([]BodyState, len(bodies)),
	}
	for i, b := range bodies {
		state := BodyState{
			ID:     b.ID(),
			Name:   s.NameOf(b),
			Kind:   b.Kind().String(),
			X:      b.Position().X(),
			Y:      b.Position().Y(),
			VX:     b.Velocity().X(),
			VY:     b.Velocity().Y(),
			Radius: b.Radius(),
		}
		switch v := b.(type) {
		case *entity.Ship:
			state.Orientation = v.Orientation()
			state.Loaded = v.NbBulletsLoaded()
		case *entity.Bullet:
			state.Bounces = v.BounceCount()
		}
		snap.Bodies[i] = state
	}
	return snap
}

// Digest fingerprints the snapshot with xxhash64. IDs are left out so that
// two runs of the same scenario digest equally even when their bodies were
// numbered differently.
func (s Snapshot) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeFloat := func(v float64) { writeUint(math.Float64bits(v)) }
	writeString := func(v string) {
		writeUint(uint64(len(v)))
		h.WriteString(v)
	}

	writeString(s.Name)
	writeUint(s.Tick)
	writeFloat(s.Elapsed)
	writeUint(uint64(len(s.Bodies)))
	for _, b := range s.Bodies {
		writeString(b.Name)
		writeString(b.Kind)
		writeFloat(b.X)
		writeFloat(b.Y)
		writeFloat(b.VX)
		writeFloat(b.VY)
		writeFloat(b.Radius)
		writeFloat(b.Orientation)
		writeUint(uint64(b.Loaded))
		writeUint(uint64(b.Bounces))
	}
	return h.Sum64()
}
