// Package engine provides unit tests for simulation.go
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/opd-ai/go-asteroids/pkg/config"
	"github.com/opd-ai/go-asteroids/pkg/event"
	"github.com/opd-ai/go-asteroids/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

// duelConfig is the default duel cut short: alpha's bullet reaches bravo a
// little after 2.2 seconds while bravo's bullet misses alpha.
func duelConfig() *config.SimulationConfig {
	cfg := config.DefaultConfig()
	cfg.Run.Duration = 5
	return cfg
}

func newTestSimulation(t *testing.T, cfg *config.SimulationConfig) *Simulation {
	t.Helper()
	sim, err := NewSimulation(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewSimulation() error = %v", err)
	}
	return sim
}

// countEvents counts the events of each type published on bus
func countEvents(bus *event.Bus, types ...event.Type) map[event.Type]int {
	counts := make(map[event.Type]int)
	for _, typ := range types {
		typ := typ
		bus.Subscribe(typ, func(event.Event) { counts[typ]++ })
	}
	return counts
}

func TestNewSimulation_BuildsWorld(t *testing.T) {
	sim := newTestSimulation(t, config.DefaultConfig())

	if sim.Status() != StatusWaiting {
		t.Errorf("Status() = %v, want waiting", sim.Status())
	}
	if n := sim.World.NbEntities(); n != 2 {
		t.Errorf("NbEntities() = %d, want 2", n)
	}

	alpha, ok := sim.ShipByName("alpha")
	if !ok {
		t.Fatal("ShipByName(alpha) not found")
	}
	if alpha.NbBulletsLoaded() != 3 {
		t.Errorf("alpha has %d bullets loaded, want 3", alpha.NbBulletsLoaded())
	}
	if name := sim.NameOf(alpha.Magazine()[0]); name != "alpha-1" {
		t.Errorf("first bullet named %q, want alpha-1", name)
	}
	if _, ok := sim.ShipByName("charlie"); ok {
		t.Error("ShipByName(charlie) should not be found")
	}
	if got := sim.Survivors(); len(got) != 2 || got[0] != "alpha" || got[1] != "bravo" {
		t.Errorf("Survivors() = %v, want [alpha bravo]", got)
	}
}

func TestNewSimulation_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SimulationConfig)
		field  string
	}{
		{"zero time step", func(c *config.SimulationConfig) { c.Run.TimeStep = 0 }, "Run.TimeStep"},
		{"unknown ship in command", func(c *config.SimulationConfig) { c.Commands[0].Ship = "ghost" }, "Commands[0].Ship"},
		{"ship outside world", func(c *config.SimulationConfig) { c.Ships[0].X = -1 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			sim, err := NewSimulation(cfg, quietLogger())
			if err == nil {
				t.Fatal("expected an error")
			}
			if sim != nil {
				t.Error("expected a nil simulation")
			}
			var verr *config.ValidationError
			if tt.field != "" && (!errors.As(err, &verr) || verr.Field != tt.field) {
				t.Errorf("error = %v, want a validation error on %s", err, tt.field)
			}
		})
	}
}

func TestSimulation_StartStop_Transitions(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulation(t, config.DefaultConfig())
	counts := countEvents(sim.EventBus, event.SimulationStarted, event.SimulationEnded)

	if err := sim.Step(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("Step() before Start error = %v, want ErrNotActive", err)
	}
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sim.Status() != StatusActive {
		t.Errorf("Status() = %v, want active", sim.Status())
	}
	if err := sim.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	sim.Stop(ctx)
	sim.Stop(ctx)
	if sim.Status() != StatusEnded {
		t.Errorf("Status() = %v, want ended", sim.Status())
	}
	if err := sim.Step(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("Step() after Stop error = %v, want ErrNotActive", err)
	}
	if counts[event.SimulationStarted] != 1 || counts[event.SimulationEnded] != 1 {
		t.Errorf("events = %v, want one start and one end", counts)
	}
}

func TestSimulation_Step_AdvancesTime(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulation(t, config.DefaultConfig())
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := sim.Step(ctx); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	stats := sim.Stats()
	if stats.Ticks != 3 {
		t.Errorf("Ticks = %d, want 3", stats.Ticks)
	}
	if math.Abs(sim.Elapsed()-0.3) > 1e-9 {
		t.Errorf("Elapsed() = %v, want 0.3", sim.Elapsed())
	}
	// alpha fired at 0 and its bullet is in flight
	if stats.BulletsFired != 1 || stats.Entities != 3 {
		t.Errorf("stats = %+v, want one bullet fired and three bodies", stats)
	}
}

func TestSimulation_Run_Duel(t *testing.T) {
	sim := newTestSimulation(t, duelConfig())
	counts := countEvents(sim.EventBus, event.BulletFired, event.EntityDestroyed, event.EntityCollision)

	var destroyed []string
	sim.EventBus.Subscribe(event.EntityDestroyed, func(e event.Event) {
		destroyed = append(destroyed, e.(*event.EntityEvent).Name)
	})

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sim.Status() != StatusEnded {
		t.Errorf("Status() = %v, want ended", sim.Status())
	}
	if math.Abs(sim.Elapsed()-5) > 1e-9 {
		t.Errorf("Elapsed() = %v, want 5", sim.Elapsed())
	}
	if got := sim.Survivors(); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("Survivors() = %v, want [alpha]", got)
	}

	stats := sim.Stats()
	if stats.Ticks != 50 {
		t.Errorf("Ticks = %d, want 50", stats.Ticks)
	}
	if stats.BulletsFired != 2 || counts[event.BulletFired] != 2 {
		t.Errorf("bullets fired = %d (%d events), want 2", stats.BulletsFired, counts[event.BulletFired])
	}
	// bravo, the bullet that hit it and the two bullets left in its magazine
	if stats.Destroyed != 4 || counts[event.EntityDestroyed] != 4 {
		t.Errorf("destroyed = %d (%d events), want 4: %v", stats.Destroyed, counts[event.EntityDestroyed], destroyed)
	}
	if stats.ObjectCollisions != 1 || counts[event.EntityCollision] != 1 {
		t.Errorf("object collisions = %d, want 1", stats.ObjectCollisions)
	}
	// alpha and bravo's released bullet
	if stats.Entities != 2 {
		t.Errorf("Entities = %d, want 2", stats.Entities)
	}
}

func TestSimulation_Run_SkipsCommandsForDestroyedShips(t *testing.T) {
	cfg := duelConfig()
	cfg.Commands = append(cfg.Commands, config.CommandConfig{At: 3, Ship: "bravo", Action: config.ActionFire})
	sim := newTestSimulation(t, cfg)

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fired := sim.Stats().BulletsFired; fired != 2 {
		t.Errorf("BulletsFired = %d, want 2", fired)
	}
}

func TestSimulation_Run_StopWhenEmpty(t *testing.T) {
	cfg := &config.SimulationConfig{
		Name:    "lone-bullet",
		World:   config.WorldConfig{Width: 100, Height: 100},
		Physics: config.DefaultPhysicsConfig(),
		Run:     config.DefaultRunConfig(),
		Bullets: []config.BulletConfig{{Name: "stray", X: 50, Y: 50, VX: 100, Radius: 1}},
	}
	cfg.Run.StopWhenEmpty = true
	sim := newTestSimulation(t, cfg)

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// the bullet dies on its third wall hit, at 2.45
	if e := sim.Elapsed(); e < 2.45 || e > 2.5+1e-9 {
		t.Errorf("Elapsed() = %v, want 2.5", e)
	}
	stats := sim.Stats()
	if stats.BoundaryCollisions != 3 || stats.Destroyed != 1 || stats.Entities != 0 {
		t.Errorf("stats = %+v, want 3 wall hits and 1 destroyed", stats)
	}
}

func TestSimulation_Run_LastShipStanding(t *testing.T) {
	cfg := config.DefaultConfig()
	sim := newTestSimulation(t, cfg)
	sim.CustomStop = LastShipStanding()

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if e := sim.Elapsed(); e < 2 || e > 2.5 {
		t.Errorf("Elapsed() = %v, want the run to end when bravo dies", e)
	}
	if got := sim.Survivors(); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("Survivors() = %v, want [alpha]", got)
	}
}

func TestSimulation_Run_ContextCancelled(t *testing.T) {
	sim := newTestSimulation(t, config.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sim.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if sim.Status() != StatusEnded {
		t.Errorf("Status() = %v, want ended", sim.Status())
	}
	if sim.Elapsed() != 0 {
		t.Errorf("Elapsed() = %v, want 0", sim.Elapsed())
	}
}

func TestSimulation_Run_Thrust(t *testing.T) {
	cfg := &config.SimulationConfig{
		Name:    "thrust",
		World:   config.WorldConfig{Width: 1000, Height: 1000},
		Physics: config.DefaultPhysicsConfig(),
		Run:     config.RunConfig{TimeStep: 0.1, Duration: 1},
		Ships:   []config.ShipConfig{{Name: "solo", X: 500, Y: 500, Radius: 20, ThrusterForce: 1e17}},
		Commands: []config.CommandConfig{
			{At: 0, Ship: "solo", Action: config.ActionThrustOn},
			{At: 0.5, Ship: "solo", Action: config.ActionThrustOff},
		},
	}
	sim := newTestSimulation(t, cfg)

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	solo, _ := sim.ShipByName("solo")
	if solo.ThrusterActive() {
		t.Error("thruster should be off")
	}
	if solo.Velocity().X() <= 0 || solo.Velocity().Y() != 0 {
		t.Errorf("velocity = %v, want a push along x", solo.Velocity())
	}
	if solo.Position().X() <= 500 {
		t.Errorf("position = %v, want the ship to have moved along x", solo.Position())
	}
}

func TestSimulation_Run_Audit(t *testing.T) {
	cfg := duelConfig()
	cfg.Run.Audit = true
	sim := newTestSimulation(t, cfg)

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() with audit error = %v", err)
	}
}

func TestSnapshot_DigestIsDeterministic(t *testing.T) {
	run := func() Snapshot {
		sim := newTestSimulation(t, duelConfig())
		if err := sim.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return sim.Snapshot()
	}

	first, second := run(), run()
	if first.Digest() != second.Digest() {
		t.Errorf("digests differ: %016x != %016x", first.Digest(), second.Digest())
	}

	initial := newTestSimulation(t, duelConfig()).Snapshot()
	if initial.Digest() == first.Digest() {
		t.Error("digest did not change after running")
	}
	if len(first.Bodies) != 2 || first.Bodies[0].Name != "alpha" {
		t.Errorf("bodies = %+v, want alpha first", first.Bodies)
	}
	if first.Bodies[0].Loaded != 2 {
		t.Errorf("alpha loaded = %d, want 2", first.Bodies[0].Loaded)
	}
	if first.Bodies[1].Name != "bravo-1" || first.Bodies[1].Bounces != 1 {
		t.Errorf("second body = %+v, want bravo-1 after one bounce", first.Bodies[1])
	}
}

func TestWorldChecks_PassOnValidWorld(t *testing.T) {
	sim := newTestSimulation(t, config.DefaultConfig())

	names := make(map[string]bool)
	for _, check := range WorldChecks(sim.World) {
		names[check.Name()] = true
		if err := check.Check(context.Background()); err != nil {
			t.Errorf("%s: %v", check.Name(), err)
		}
	}
	for _, want := range []string{"bodies_inside", "no_overlap", "bullet_ownership"} {
		if !names[want] {
			t.Errorf("missing check %s", want)
		}
	}
}

func TestSimulation_ConcurrentReaders(t *testing.T) {
	sim := newTestSimulation(t, duelConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				_ = sim.Stats()
				_ = sim.Snapshot()
				_ = sim.Survivors()
				_ = sim.Status()
			}
		}()
	}

	err := sim.Run(context.Background())
	cancel()
	wg.Wait()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
