package powergrid

import "fmt"

// Scriptable in-memory devices for tests. Status text is rendered from
// the recorded fields so tests exercise the real parser.

type TestActuator struct {
	Id           string
	Axes         [AxisCount]float64
	OverrideFlag bool
}

func (a *TestActuator) ID() string                  { return a.Id }
func (a *TestActuator) Name() string                { return a.Id }
func (a *TestActuator) AxisValue(axis Axis) float64 { return a.Axes[axis] }
func (a *TestActuator) AxisValues() [AxisCount]float64 {
	return a.Axes
}

func (a *TestActuator) SetAxisValue(axis Axis, value float64) error {
	a.Axes[axis] = value
	return nil
}

func (a *TestActuator) Override() bool { return a.OverrideFlag }

func (a *TestActuator) SetOverride(enabled bool) error {
	a.OverrideFlag = enabled
	return nil
}

type TestPanel struct {
	Id            string
	MaxOutputWatt float64
	CurrentWatt   float64
	BadStatus     bool
}

func (p *TestPanel) ID() string   { return p.Id }
func (p *TestPanel) Name() string { return p.Id }

func (p *TestPanel) StatusText() string {
	if p.BadStatus {
		return "Type: Solar Panel\nno readings available"
	}
	return fmt.Sprintf("Type: Solar Panel\nMax Output: %s\nCurrent Output: %s",
		FormatPower(p.MaxOutputWatt), FormatPower(p.CurrentWatt))
}

type TestCell struct {
	Id             string
	MaxOutputWatt  float64
	MaxInputWatt   float64
	CapacityWh     float64
	InputWatt      float64
	OutputWatt     float64
	StoredWh       float64
	EnabledFlag    bool
	ChargeFlag     bool
	BadStatus      bool
	EnabledSets    int
	ChargeModeSets int
}

func (c *TestCell) ID() string   { return c.Id }
func (c *TestCell) Name() string { return c.Id }

func (c *TestCell) StatusText() string {
	if c.BadStatus {
		return "Type: Battery\nno readings available"
	}
	text := fmt.Sprintf("Type: Battery\nMax Output: %s\nMax Required Input: %s\nMax Stored Power: %s\nCurrent Input: %s\nCurrent Output: %s\nStored power: %s",
		FormatPower(c.MaxOutputWatt), FormatPower(c.MaxInputWatt),
		FormatStoredEnergy(c.CapacityWh), FormatPower(c.InputWatt),
		FormatPower(c.OutputWatt), FormatStoredEnergy(c.StoredWh))
	if c.ChargeFlag {
		text += fmt.Sprintf("\n%s: 20 minutes", chargeModeMarker)
	}
	return text
}

func (c *TestCell) Enabled() bool { return c.EnabledFlag }

func (c *TestCell) SetEnabled(enabled bool) error {
	c.EnabledFlag = enabled
	c.EnabledSets++
	return nil
}

func (c *TestCell) SetChargeMode(charge bool) error {
	c.ChargeFlag = charge
	c.ChargeModeSets++
	return nil
}

// TestGrid is a fixed GridScanner over scripted devices.
type TestGrid struct {
	ActuatorList []RotationActuator
	PanelList    []PowerSource
	LocalList    []StorageCell
	DockedList   []StorageCell
}

func (g *TestGrid) Actuators() ([]RotationActuator, error) { return g.ActuatorList, nil }
func (g *TestGrid) SolarPanels() ([]PowerSource, error)    { return g.PanelList, nil }
func (g *TestGrid) LocalCells() ([]StorageCell, error)     { return g.LocalList, nil }
func (g *TestGrid) DockedCells() ([]StorageCell, error)    { return g.DockedList, nil }

// ensure interface compliance
var (
	_ RotationActuator = (*TestActuator)(nil)
	_ PowerSource      = (*TestPanel)(nil)
	_ StorageCell      = (*TestCell)(nil)
	_ GridScanner      = (*TestGrid)(nil)
)
