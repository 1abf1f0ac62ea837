// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/go-asteroids/pkg/config"
	"github.com/opd-ai/go-asteroids/pkg/entity"
	"github.com/opd-ai/go-asteroids/pkg/event"
	"github.com/opd-ai/go-asteroids/pkg/health"
	"github.com/opd-ai/go-asteroids/pkg/logging"
	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// Status is the lifecycle stage of a simulation
type Status int

const (
	StatusWaiting Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// timeEpsilon absorbs the rounding of accumulated time steps when comparing
// simulated times
const timeEpsilon = 1e-9

// ErrNotActive is returned when stepping a simulation that is not running
var ErrNotActive = errors.New("simulation is not active")

// StopCondition ends a run early
type StopCondition interface {
	ShouldStop(sim *Simulation) bool
}

// StopConditionFunc adapts a function to StopCondition
type StopConditionFunc func(sim *Simulation) bool

// ShouldStop calls f
func (f StopConditionFunc) ShouldStop(sim *Simulation) bool { return f(sim) }

// LastShipStanding stops a run once at most one ship is left in the world
func LastShipStanding() StopCondition {
	return StopConditionFunc(func(sim *Simulation) bool {
		return len(sim.Survivors()) <= 1
	})
}

// Simulation drives a World through a scenario: it applies scripted
// commands, evolves the world in fixed steps and publishes what happens on
// its event bus. Bus handlers run while the simulation is locked and must not
// call back into it.
type Simulation struct {
	Config      *config.SimulationConfig
	World       *entity.World
	EventBus    *event.Bus
	CustomStop  StopCondition
	status      Status
	mu          sync.RWMutex
	logger      *logging.Logger
	names       map[entity.ID]string
	ships       map[string]*entity.Ship
	tracked     []entity.Body
	destroyed   map[entity.ID]bool
	commands    []config.CommandConfig
	nextCommand int
	elapsed     float64
	stats       Stats
	audit       *health.HealthChecker
}

// NewSimulation validates cfg and builds its world: every ship with its
// magazine loaded, then every free bullet. A nil logger logs to stdout.
func NewSimulation(cfg *config.SimulationConfig, logger *logging.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "new simulation")
	}
	if logger == nil {
		logger = logging.NewLogger()
	}

	limits := cfg.Physics.Limits()
	world, err := entity.NewWorld(cfg.World.Width, cfg.World.Height, limits)
	if err != nil {
		return nil, logging.WrapError(err, "new simulation %s", cfg.Name)
	}

	sim := &Simulation{
		Config:    cfg,
		World:     world,
		EventBus:  event.NewEventBus(),
		logger:    logger.With("scenario", cfg.Name),
		names:     make(map[entity.ID]string),
		ships:     make(map[string]*entity.Ship),
		destroyed: make(map[entity.ID]bool),
	}

	for _, sc := range cfg.Ships {
		if err := sim.addShip(sc, limits); err != nil {
			return nil, logging.WrapError(err, "new simulation %s: ship %s", cfg.Name, sc.Name)
		}
	}
	for _, bc := range cfg.Bullets {
		if err := sim.addBullet(bc, limits); err != nil {
			return nil, logging.WrapError(err, "new simulation %s: bullet %s", cfg.Name, bc.Name)
		}
	}

	sim.commands = append([]config.CommandConfig(nil), cfg.Commands...)
	sort.SliceStable(sim.commands, func(i, j int) bool { return sim.commands[i].At < sim.commands[j].At })

	if cfg.Run.Audit {
		sim.audit = health.NewHealthChecker()
		for _, check := range WorldChecks(world) {
			sim.audit.AddCheck(check)
		}
	}
	return sim, nil
}

func (s *Simulation) addShip(sc config.ShipConfig, limits entity.Limits) error {
	var opts []entity.ShipOption
	if sc.Mass > 0 {
		opts = append(opts, entity.WithMass(sc.Mass))
	}
	if sc.ThrusterForce > 0 {
		opts = append(opts, entity.WithThrusterForce(sc.ThrusterForce))
	}

	pos, err := physics.NewPosition(sc.X, sc.Y)
	if err != nil {
		return err
	}
	vel, err := physics.NewVelocity(sc.VX, sc.VY)
	if err != nil {
		return err
	}
	ship, err := entity.NewShip(pos, vel, sc.Radius, sc.Orientation, limits, opts...)
	if err != nil {
		return err
	}

	bullets := make([]*entity.Bullet, sc.Magazine)
	for i := range bullets {
		b, err := entity.NewBullet(pos, physics.Velocity{}, sc.BulletRadius, limits)
		if err != nil {
			return err
		}
		bullets[i] = b
		s.track(b, fmt.Sprintf("%s-%d", sc.Name, i+1))
	}
	if err := ship.LoadBullets(bullets...); err != nil {
		return err
	}
	if err := s.World.AddEntity(ship); err != nil {
		return err
	}

	s.track(ship, sc.Name)
	s.ships[sc.Name] = ship
	return nil
}

func (s *Simulation) addBullet(bc config.BulletConfig, limits entity.Limits) error {
	pos, err := physics.NewPosition(bc.X, bc.Y)
	if err != nil {
		return err
	}
	vel, err := physics.NewVelocity(bc.VX, bc.VY)
	if err != nil {
		return err
	}
	b, err := entity.NewBullet(pos, vel, bc.Radius, limits)
	if err != nil {
		return err
	}
	if err := s.World.AddEntity(b); err != nil {
		return err
	}
	s.track(b, bc.Name)
	return nil
}

func (s *Simulation) track(b entity.Body, name string) {
	s.names[b.ID()] = name
	s.tracked = append(s.tracked, b)
}

// NameOf returns the scenario name of a body built by the simulation
func (s *Simulation) NameOf(b entity.Body) string {
	if b == nil {
		return ""
	}
	return s.names[b.ID()]
}

// ShipByName returns the ship the scenario named name, destroyed or not
func (s *Simulation) ShipByName(name string) (*entity.Ship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ship, ok := s.ships[name]
	return ship, ok
}

// Status returns the lifecycle stage
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Elapsed returns the simulated time run so far
func (s *Simulation) Elapsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// Survivors returns the names of the ships still in the world, sorted
func (s *Simulation) Survivors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name, ship := range s.ships {
		if !ship.IsTerminated() && ship.World() == s.World {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Start moves the simulation from waiting to active
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return fmt.Errorf("start %s: simulation is %s", s.Config.Name, s.status)
	}
	s.status = StatusActive
	s.logger.Info(ctx, "simulation started",
		"bodies", s.World.NbEntities(),
		"width", s.World.Width(),
		"height", s.World.Height())
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationStarted, s, s.Config.Name, s.elapsed))
	return nil
}

// Stop ends an active simulation. Stopping twice has no further effect.
func (s *Simulation) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return
	}
	s.status = StatusEnded
	s.logger.Info(ctx, "simulation ended",
		"elapsed", s.elapsed,
		"ticks", s.stats.Ticks,
		"object_collisions", s.stats.ObjectCollisions,
		"boundary_collisions", s.stats.BoundaryCollisions,
		"destroyed", s.stats.Destroyed)
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationEnded, s, s.Config.Name, s.elapsed))
}

// Step applies the commands that are due and evolves the world by one
// configured time step.
func (s *Simulation) Step(ctx context.Context) error {
	return s.step(ctx, s.Config.Run.TimeStep)
}

func (s *Simulation) step(ctx context.Context, duration float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return fmt.Errorf("step %s: %w", s.Config.Name, ErrNotActive)
	}

	s.applyDueCommands(ctx)
	s.publishDestroyed(ctx)

	if err := s.World.Evolve(duration, &busListener{sim: s, ctx: ctx}); err != nil {
		s.logger.Error(ctx, "evolve failed", err, "tick", s.stats.Ticks, "elapsed", s.elapsed)
		return logging.WrapError(err, "step %s at %.6g", s.Config.Name, s.elapsed)
	}
	s.elapsed += duration
	s.stats.Ticks++
	s.publishDestroyed(ctx)

	if s.audit != nil {
		if err := s.audit.Err(ctx); err != nil {
			s.logger.Error(ctx, "world audit failed", err, "tick", s.stats.Ticks)
			return logging.WrapError(err, "audit %s at %.6g", s.Config.Name, s.elapsed)
		}
	}
	return nil
}

// Run starts the simulation if needed and steps it until the configured
// duration has elapsed, the world is empty and StopWhenEmpty is set, the
// custom stop condition holds, or ctx is done. The last step is shortened to
// end exactly on the duration. The simulation is stopped on return.
func (s *Simulation) Run(ctx context.Context) error {
	if timeout := s.Config.Run.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if s.Status() == StatusWaiting {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	defer s.Stop(ctx)

	for !s.finished() {
		select {
		case <-ctx.Done():
			s.logger.Warn(ctx, "simulation interrupted", "elapsed", s.Elapsed(), "reason", ctx.Err().Error())
			return ctx.Err()
		default:
		}

		remaining := s.Config.Run.Duration - s.Elapsed()
		d := s.Config.Run.TimeStep
		if remaining < d {
			d = remaining
		}
		if err := s.step(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) finished() bool {
	if s.Config.Run.Duration-s.Elapsed() <= timeEpsilon {
		return true
	}
	if s.Config.Run.StopWhenEmpty && s.World.NbEntities() == 0 {
		return true
	}
	return s.CustomStop != nil && s.CustomStop.ShouldStop(s)
}

// applyDueCommands runs every command whose time has come. Commands for a
// ship that no longer flies are skipped.
func (s *Simulation) applyDueCommands(ctx context.Context) {
	for ; s.nextCommand < len(s.commands); s.nextCommand++ {
		cmd := s.commands[s.nextCommand]
		if cmd.At > s.elapsed+timeEpsilon {
			return
		}
		ship := s.ships[cmd.Ship]
		if ship.IsTerminated() || ship.World() == nil {
			s.logger.Warn(ctx, "command skipped", "ship", cmd.Ship, "action", cmd.Action, "at", cmd.At)
			continue
		}
		if err := s.apply(ctx, ship, cmd); err != nil {
			s.logger.Warn(ctx, "command failed", "ship", cmd.Ship, "action", cmd.Action, "error", err.Error())
		}
	}
}

func (s *Simulation) apply(ctx context.Context, ship *entity.Ship, cmd config.CommandConfig) error {
	switch cmd.Action {
	case config.ActionFire:
		b, err := ship.FireBullet()
		if err != nil {
			return err
		}
		if b == nil {
			s.logger.Debug(ctx, "nothing to fire", "ship", cmd.Ship)
			return nil
		}
		s.stats.BulletsFired++
		s.logger.Debug(ctx, "bullet fired", "ship", cmd.Ship, "bullet", s.NameOf(b), "destroyed", b.IsTerminated())
		s.EventBus.Publish(event.NewEntityEvent(event.BulletFired, s, uint64(b.ID()), b.Kind().String(), s.NameOf(b)))
		return nil
	case config.ActionTurn:
		return ship.Turn(cmd.Angle)
	case config.ActionThrustOn:
		return ship.SetThrusterActive(true)
	case config.ActionThrustOff:
		return ship.SetThrusterActive(false)
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
}

// publishDestroyed reports every tracked body terminated since the last call
func (s *Simulation) publishDestroyed(ctx context.Context) {
	for _, b := range s.tracked {
		if !b.IsTerminated() || s.destroyed[b.ID()] {
			continue
		}
		s.destroyed[b.ID()] = true
		s.stats.Destroyed++
		name := s.NameOf(b)
		s.logger.Debug(ctx, "entity destroyed", "kind", b.Kind().String(), "name", name, "elapsed", s.elapsed)
		s.EventBus.Publish(event.NewEntityEvent(event.EntityDestroyed, s, uint64(b.ID()), b.Kind().String(), name))
	}
}
