package powergrid

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// SimConfig shapes the simulated grid.
type SimConfig struct {
	PanelCount         int
	PanelMaxOutputWatt float64

	LocalCellCount  int
	DockedCellCount int

	CellMaxOutputWatt  float64
	CellMaxInputWatt   float64
	CellCapacityWh     float64
	InitialChargeRatio float64

	// SunDriftRadPerSec rotates the sun direction over time so the
	// controller has something to chase.
	SunDriftRadPerSec float64

	// BaseLoadWatt is drawn from discharging cells.
	BaseLoadWatt float64
}

// SimulatedGrid is an in-memory GridScanner with simple kinematics: the
// body integrates commanded actuator rates, panels produce a cosine
// falloff of their rated output, and cells charge from the array surplus.
// Safe for concurrent use; device I/O and the drift job run on different
// goroutines.
type SimulatedGrid struct {
	mu  sync.Mutex
	cfg SimConfig

	sunPitch, sunYaw   float64
	bodyPitch, bodyYaw float64

	actuators []*simActuator
	panels    []*simPanel
	local     []*simCell
	docked    []*simCell
}

func NewSimulatedGrid(cfg SimConfig) *SimulatedGrid {
	g := &SimulatedGrid{cfg: cfg, sunPitch: 0.4, sunYaw: -0.7}
	g.actuators = []*simActuator{
		{grid: g, id: "gyro_fore"},
		{grid: g, id: "gyro_aft"},
	}
	for i := 0; i < cfg.PanelCount; i++ {
		g.panels = append(g.panels, &simPanel{grid: g, id: fmt.Sprintf("solar_%d", i)})
	}
	for i := 0; i < cfg.LocalCellCount; i++ {
		g.local = append(g.local, g.newCell(fmt.Sprintf("cell_%d", i)))
	}
	for i := 0; i < cfg.DockedCellCount; i++ {
		g.docked = append(g.docked, g.newCell(fmt.Sprintf("docked_cell_%d", i)))
	}
	return g
}

func (g *SimulatedGrid) newCell(id string) *simCell {
	return &simCell{
		grid:     g,
		id:       id,
		enabled:  true,
		storedWh: g.cfg.CellCapacityWh * g.cfg.InitialChargeRatio,
	}
}

// Step advances the simulation: sun drift, body rotation, power flows.
func (g *SimulatedGrid) Step(dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	secs := dt.Seconds()
	g.sunYaw = wrapAngle(g.sunYaw + g.cfg.SunDriftRadPerSec*secs)

	for _, act := range g.actuators {
		g.bodyPitch = wrapAngle(g.bodyPitch + act.axes[AxisPitch]*secs)
		g.bodyYaw = wrapAngle(g.bodyYaw + act.axes[AxisYaw]*secs)
	}

	hours := secs / 3600
	surplus := g.arrayOutputLocked()
	for _, cell := range append(append([]*simCell{}, g.local...), g.docked...) {
		cell.step(hours, &surplus, g.cfg)
	}
}

func (g *SimulatedGrid) arrayOutputLocked() float64 {
	var total float64
	for _, p := range g.panels {
		total += p.currentOutputLocked()
	}
	return total
}

// alignmentFactor is the cosine falloff of panel effectiveness against
// the sun direction, floored at zero.
func (g *SimulatedGrid) alignmentFactor() float64 {
	f := math.Cos(g.bodyPitch-g.sunPitch) * math.Cos(g.bodyYaw-g.sunYaw)
	return math.Max(0, f)
}

func (g *SimulatedGrid) Actuators() ([]RotationActuator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RotationActuator, len(g.actuators))
	for i, a := range g.actuators {
		out[i] = a
	}
	return out, nil
}

func (g *SimulatedGrid) SolarPanels() ([]PowerSource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PowerSource, len(g.panels))
	for i, p := range g.panels {
		out[i] = p
	}
	return out, nil
}

func (g *SimulatedGrid) LocalCells() ([]StorageCell, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]StorageCell, len(g.local))
	for i, c := range g.local {
		out[i] = c
	}
	return out, nil
}

func (g *SimulatedGrid) DockedCells() ([]StorageCell, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]StorageCell, len(g.docked))
	for i, c := range g.docked {
		out[i] = c
	}
	return out, nil
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// simActuator

type simActuator struct {
	grid     *SimulatedGrid
	id       string
	axes     [AxisCount]float64
	override bool
}

func (a *simActuator) ID() string   { return a.id }
func (a *simActuator) Name() string { return a.id }

func (a *simActuator) AxisValue(axis Axis) float64 {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return a.axes[axis]
}

func (a *simActuator) SetAxisValue(axis Axis, value float64) error {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	a.axes[axis] = value
	return nil
}

func (a *simActuator) Override() bool {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return a.override
}

func (a *simActuator) SetOverride(enabled bool) error {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	a.override = enabled
	return nil
}

// simPanel

type simPanel struct {
	grid *SimulatedGrid
	id   string
}

func (p *simPanel) ID() string   { return p.id }
func (p *simPanel) Name() string { return p.id }

func (p *simPanel) currentOutputLocked() float64 {
	return p.grid.cfg.PanelMaxOutputWatt * p.grid.alignmentFactor()
}

func (p *simPanel) StatusText() string {
	p.grid.mu.Lock()
	defer p.grid.mu.Unlock()
	return fmt.Sprintf("Type: Solar Panel\nMax Output: %s\nCurrent Output: %s",
		FormatPower(p.grid.cfg.PanelMaxOutputWatt),
		FormatPower(p.currentOutputLocked()))
}

// simCell

type simCell struct {
	grid     *SimulatedGrid
	id       string
	enabled  bool
	charge   bool
	storedWh float64

	inputW  float64
	outputW float64
}

func (c *simCell) ID() string   { return c.id }
func (c *simCell) Name() string { return c.id }

func (c *simCell) Enabled() bool {
	c.grid.mu.Lock()
	defer c.grid.mu.Unlock()
	return c.enabled
}

func (c *simCell) SetEnabled(enabled bool) error {
	c.grid.mu.Lock()
	defer c.grid.mu.Unlock()
	c.enabled = enabled
	return nil
}

func (c *simCell) SetChargeMode(charge bool) error {
	c.grid.mu.Lock()
	defer c.grid.mu.Unlock()
	c.charge = charge
	return nil
}

func (c *simCell) step(hours float64, surplusWatt *float64, cfg SimConfig) {
	c.inputW = 0
	c.outputW = 0
	if !c.enabled {
		return
	}
	if c.charge {
		c.inputW = math.Min(cfg.CellMaxInputWatt, math.Max(0, *surplusWatt))
		*surplusWatt -= c.inputW
		c.storedWh = math.Min(cfg.CellCapacityWh, c.storedWh+c.inputW*hours)
	} else if c.storedWh > 0 {
		c.outputW = math.Min(cfg.CellMaxOutputWatt, cfg.BaseLoadWatt)
		c.storedWh = math.Max(0, c.storedWh-c.outputW*hours)
	}
}

func (c *simCell) StatusText() string {
	c.grid.mu.Lock()
	defer c.grid.mu.Unlock()
	cfg := c.grid.cfg
	text := fmt.Sprintf("Type: Battery\nMax Output: %s\nMax Required Input: %s\nMax Stored Power: %s\nCurrent Input: %s\nCurrent Output: %s\nStored power: %s",
		FormatPower(cfg.CellMaxOutputWatt),
		FormatPower(cfg.CellMaxInputWatt),
		FormatStoredEnergy(cfg.CellCapacityWh),
		FormatPower(c.inputW),
		FormatPower(c.outputW),
		FormatStoredEnergy(c.storedWh))
	if c.charge {
		text += fmt.Sprintf("\n%s: 1 hour", chargeModeMarker)
	}
	return text
}

// ensure interface compliance
var (
	_ GridScanner      = (*SimulatedGrid)(nil)
	_ RotationActuator = (*simActuator)(nil)
	_ PowerSource      = (*simPanel)(nil)
	_ StorageCell      = (*simCell)(nil)
)
