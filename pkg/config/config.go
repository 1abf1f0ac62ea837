// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-asteroids/pkg/entity"
	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// Scripted command actions
const (
	ActionFire      = "fire"
	ActionTurn      = "turn"
	ActionThrustOn  = "thrust_on"
	ActionThrustOff = "thrust_off"
)

// SimulationConfig describes one scenario: the world, the bodies placed in
// it, and the commands issued to ships while it runs.
type SimulationConfig struct {
	Name     string          `json:"name" yaml:"name"`
	World    WorldConfig     `json:"world" yaml:"world"`
	Physics  PhysicsConfig   `json:"physics" yaml:"physics"`
	Run      RunConfig       `json:"run" yaml:"run"`
	Ships    []ShipConfig    `json:"ships" yaml:"ships"`
	Bullets  []BulletConfig  `json:"bullets,omitempty" yaml:"bullets,omitempty"`
	Commands []CommandConfig `json:"commands,omitempty" yaml:"commands,omitempty"`
}

// WorldConfig contains the world dimensions
type WorldConfig struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PhysicsConfig contains the physical parameters shared by every body
type PhysicsConfig struct {
	MinShipRadius   float64 `json:"minShipRadius" yaml:"minShipRadius"`
	MinBulletRadius float64 `json:"minBulletRadius" yaml:"minBulletRadius"`
	ShipDensity     float64 `json:"shipDensity" yaml:"shipDensity"`
	BulletDensity   float64 `json:"bulletDensity" yaml:"bulletDensity"`
	ThrusterForce   float64 `json:"thrusterForce" yaml:"thrusterForce"`
	MaxBounces      int     `json:"maxBounces" yaml:"maxBounces"`
	SpeedLimit      float64 `json:"speedLimit" yaml:"speedLimit"`
}

// RunConfig controls how long and in what increments a scenario runs.
// TimeStep and Duration are simulated seconds; Timeout bounds wall-clock time
// (nanoseconds in JSON, a Go duration string in YAML) and is disabled when 0.
// Audit checks the world invariants after every step.
type RunConfig struct {
	TimeStep      float64       `json:"timeStep" yaml:"timeStep"`
	Duration      float64       `json:"duration" yaml:"duration"`
	StopWhenEmpty bool          `json:"stopWhenEmpty" yaml:"stopWhenEmpty"`
	Audit         bool          `json:"audit,omitempty" yaml:"audit,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ShipConfig places a ship. Mass 0 keeps the mass derived from the radius;
// Magazine bullets of BulletRadius are loaded before the run starts.
type ShipConfig struct {
	Name          string  `json:"name" yaml:"name"`
	X             float64 `json:"x" yaml:"x"`
	Y             float64 `json:"y" yaml:"y"`
	VX            float64 `json:"vx" yaml:"vx"`
	VY            float64 `json:"vy" yaml:"vy"`
	Radius        float64 `json:"radius" yaml:"radius"`
	Orientation   float64 `json:"orientation" yaml:"orientation"`
	Mass          float64 `json:"mass,omitempty" yaml:"mass,omitempty"`
	Magazine      int     `json:"magazine,omitempty" yaml:"magazine,omitempty"`
	BulletRadius  float64 `json:"bulletRadius,omitempty" yaml:"bulletRadius,omitempty"`
	ThrusterForce float64 `json:"thrusterForce,omitempty" yaml:"thrusterForce,omitempty"`
}

// BulletConfig places a free bullet that belongs to no ship
type BulletConfig struct {
	Name   string  `json:"name" yaml:"name"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	VX     float64 `json:"vx" yaml:"vx"`
	VY     float64 `json:"vy" yaml:"vy"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// CommandConfig is an action applied to a named ship once simulated time
// reaches At. Angle is only used by turn.
type CommandConfig struct {
	At     float64 `json:"at" yaml:"at"`
	Ship   string  `json:"ship" yaml:"ship"`
	Action string  `json:"action" yaml:"action"`
	Angle  float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
}

// ValidationError reports the first configuration field that is unusable
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

func invalid(field string, value interface{}, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: err.Error()}
}

// Limits converts the physics section into the parameters bodies are built with
func (p PhysicsConfig) Limits() entity.Limits {
	return entity.Limits{
		MinShipRadius:   p.MinShipRadius,
		MinBulletRadius: p.MinBulletRadius,
		ShipDensity:     p.ShipDensity,
		BulletDensity:   p.BulletDensity,
		ThrusterForce:   p.ThrusterForce,
		MaxBounces:      p.MaxBounces,
		SpeedLimit:      p.SpeedLimit,
	}
}

// DefaultPhysicsConfig returns the standard physical parameters
func DefaultPhysicsConfig() PhysicsConfig {
	l := entity.DefaultLimits()
	return PhysicsConfig{
		MinShipRadius:   l.MinShipRadius,
		MinBulletRadius: l.MinBulletRadius,
		ShipDensity:     l.ShipDensity,
		BulletDensity:   l.BulletDensity,
		ThrusterForce:   l.ThrusterForce,
		MaxBounces:      l.MaxBounces,
		SpeedLimit:      l.SpeedLimit,
	}
}

// DefaultRunConfig returns a 60 second run in 0.1 second steps
func DefaultRunConfig() RunConfig {
	return RunConfig{
		TimeStep: 0.1,
		Duration: 60,
	}
}

// Validate checks the whole scenario and returns a *ValidationError naming
// the first bad field.
func (c *SimulationConfig) Validate() error {
	if c == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}
	if _, err := validation.ValidateEntityName(c.Name); err != nil {
		return invalid("Name", c.Name, err)
	}
	if err := validation.ValidateDimension(c.World.Width); err != nil {
		return invalid("World.Width", c.World.Width, err)
	}
	if err := validation.ValidateDimension(c.World.Height); err != nil {
		return invalid("World.Height", c.World.Height, err)
	}
	if err := c.Physics.Limits().Validate(); err != nil {
		return invalid("Physics", c.Physics, err)
	}
	if err := validation.ValidateDuration(c.Run.TimeStep); err != nil || c.Run.TimeStep == 0 || !validation.IsFinite(c.Run.TimeStep) {
		return &ValidationError{Field: "Run.TimeStep", Value: c.Run.TimeStep, Message: "must be positive and finite"}
	}
	if err := validation.ValidateDuration(c.Run.Duration); err != nil || !validation.IsFinite(c.Run.Duration) {
		return &ValidationError{Field: "Run.Duration", Value: c.Run.Duration, Message: "must be non-negative and finite"}
	}
	if c.Run.Timeout < 0 {
		return &ValidationError{Field: "Run.Timeout", Value: c.Run.Timeout, Message: "must not be negative"}
	}

	names := make(map[string]bool)
	for i, s := range c.Ships {
		if err := c.validateShip(i, s, names); err != nil {
			return err
		}
	}
	for i, b := range c.Bullets {
		field := fmt.Sprintf("Bullets[%d]", i)
		if err := validateName(field, b.Name, names); err != nil {
			return err
		}
		if err := validatePlacement(field, b.X, b.Y, b.VX, b.VY); err != nil {
			return err
		}
		if err := validation.ValidateRadius(b.Radius, c.Physics.MinBulletRadius); err != nil {
			return invalid(field+".Radius", b.Radius, err)
		}
	}

	ships := make(map[string]bool, len(c.Ships))
	for _, s := range c.Ships {
		ships[s.Name] = true
	}
	for i, cmd := range c.Commands {
		field := fmt.Sprintf("Commands[%d]", i)
		if err := validation.ValidateDuration(cmd.At); err != nil || !validation.IsFinite(cmd.At) {
			return &ValidationError{Field: field + ".At", Value: cmd.At, Message: "must be non-negative and finite"}
		}
		if !ships[cmd.Ship] {
			return &ValidationError{Field: field + ".Ship", Value: cmd.Ship, Message: "no ship with this name"}
		}
		switch cmd.Action {
		case ActionFire, ActionThrustOn, ActionThrustOff:
		case ActionTurn:
			if err := validation.ValidateComponent(cmd.Angle); err != nil {
				return invalid(field+".Angle", cmd.Angle, err)
			}
		default:
			return &ValidationError{Field: field + ".Action", Value: cmd.Action, Message: "unknown action"}
		}
	}
	return nil
}

func (c *SimulationConfig) validateShip(i int, s ShipConfig, names map[string]bool) error {
	field := fmt.Sprintf("Ships[%d]", i)
	if err := validateName(field, s.Name, names); err != nil {
		return err
	}
	if err := validatePlacement(field, s.X, s.Y, s.VX, s.VY); err != nil {
		return err
	}
	if err := validation.ValidateRadius(s.Radius, c.Physics.MinShipRadius); err != nil {
		return invalid(field+".Radius", s.Radius, err)
	}
	if err := validation.ValidateOrientation(s.Orientation); err != nil {
		return invalid(field+".Orientation", s.Orientation, err)
	}
	if s.Mass != 0 {
		if err := validation.ValidateMass(s.Mass, 0); err != nil {
			return invalid(field+".Mass", s.Mass, err)
		}
	}
	if s.ThrusterForce < 0 || !validation.IsFinite(s.ThrusterForce) {
		return &ValidationError{Field: field + ".ThrusterForce", Value: s.ThrusterForce, Message: "must be non-negative and finite"}
	}
	if s.Magazine < 0 {
		return &ValidationError{Field: field + ".Magazine", Value: s.Magazine, Message: "must not be negative"}
	}
	if s.Magazine > 0 {
		if err := validation.ValidateRadius(s.BulletRadius, c.Physics.MinBulletRadius); err != nil {
			return invalid(field+".BulletRadius", s.BulletRadius, err)
		}
		if s.BulletRadius > s.Radius {
			return &ValidationError{Field: field + ".BulletRadius", Value: s.BulletRadius, Message: "bullets must fit inside the ship"}
		}
	}
	return nil
}

func validateName(field, name string, seen map[string]bool) error {
	clean, err := validation.ValidateEntityName(name)
	if err != nil {
		return invalid(field+".Name", name, err)
	}
	if seen[clean] {
		return &ValidationError{Field: field + ".Name", Value: name, Message: "duplicate name"}
	}
	seen[clean] = true
	return nil
}

func validatePlacement(field string, x, y, vx, vy float64) error {
	if _, err := physics.NewPosition(x, y); err != nil {
		return invalid(field+".Position", fmt.Sprintf("(%v, %v)", x, y), err)
	}
	if _, err := physics.NewVelocity(vx, vy); err != nil {
		return invalid(field+".Velocity", fmt.Sprintf("(%v, %v)", vx, vy), err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a scenario from a file. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON. Sections missing from the file keep
// the default physics and run settings.
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &SimulationConfig{
		Physics: DefaultPhysicsConfig(),
		Run:     DefaultRunConfig(),
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a scenario to a file in the format its extension names
func SaveConfig(config *SimulationConfig, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: config is nil")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a duel: two armed ships facing each other across a
// 1000 x 1000 world, each firing once.
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Name: "duel",
		World: WorldConfig{
			Width:  1000,
			Height: 1000,
		},
		Physics: DefaultPhysicsConfig(),
		Run:     DefaultRunConfig(),
		Ships: []ShipConfig{
			{
				Name:         "alpha",
				X:            200,
				Y:            500,
				Radius:       20,
				Orientation:  0,
				Magazine:     3,
				BulletRadius: 3,
			},
			{
				Name:         "bravo",
				X:            800,
				Y:            500,
				Radius:       20,
				Orientation:  3.141592653589793,
				Magazine:     3,
				BulletRadius: 3,
			},
		},
		Commands: []CommandConfig{
			{At: 0, Ship: "alpha", Action: ActionFire},
			{At: 0.5, Ship: "bravo", Action: ActionTurn, Angle: 0.2},
			{At: 1, Ship: "bravo", Action: ActionFire},
		},
	}
}
