package actor

import (
	"testing"
	"time"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/util/actorutil"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testGrid() *powergrid.TestGrid {
	return &powergrid.TestGrid{
		ActuatorList: []powergrid.RotationActuator{
			&powergrid.TestActuator{Id: "GYRO_A"},
			&powergrid.TestActuator{Id: "GYRO_B"},
		},
		PanelList: []powergrid.PowerSource{
			&powergrid.TestPanel{Id: "PANEL_A", MaxOutputWatt: 60_000, CurrentWatt: 20_000},
			&powergrid.TestPanel{Id: "PANEL_B", BadStatus: true},
		},
		LocalList: []powergrid.StorageCell{
			&powergrid.TestCell{Id: "CELL_A", MaxOutputWatt: 12_000, MaxInputWatt: 12_000,
				CapacityWh: 50_000, StoredWh: 20_000, EnabledFlag: true, ChargeFlag: true},
		},
		DockedList: []powergrid.StorageCell{
			&powergrid.TestCell{Id: "DOCK_A", MaxOutputWatt: 12_000, MaxInputWatt: 12_000,
				CapacityWh: 50_000, StoredWh: 5_000},
		},
	}
}

func spawnGridActor(t *testing.T, grid *powergrid.TestGrid) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewGridActor(grid, powergrid.AxisPitch, powergrid.AxisYaw, 0.5, logger)
	})
	pid := context.Spawn(props)
	time.Sleep(100 * time.Millisecond)
	return as, context, pid
}

func TestGetGridInfoGridActor(t *testing.T) {

	assert := assert.New(t)

	as, context, pid := spawnGridActor(t, testGrid())

	result, err := context.RequestFuture(pid, domain.GetGridInfoRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetGridInfoResponse)

	assert.Equal(resp.Info.ActuatorCount, 2, "actuator count")
	assert.Equal(resp.Info.SolarCount, 2, "solar count")
	assert.Equal(resp.Info.LocalCellCount, 1, "local cell count")
	assert.Equal(resp.Info.DockedCellCount, 1, "docked cell count")

	context.Stop(pid)
	as.Shutdown()
}

func TestGetGridSnapshotGridActor(t *testing.T) {

	assert := assert.New(t)

	as, context, pid := spawnGridActor(t, testGrid())

	result, err := context.RequestFuture(pid, domain.GetGridSnapshotRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetGridSnapshotResponse)

	// the unparseable panel is excluded, never read as zero
	assert.Equal(len(resp.Snapshot.Solar), 1, "parsed solar count")
	assert.Equal(resp.Snapshot.SkippedDevices, 1, "skipped devices")
	assert.Equal(resp.Snapshot.ArrayMaxOutputWatt(), float64(60_000), "array max output")

	assert.Equal(len(resp.Snapshot.LocalCells), 1, "local cell count")
	cell := resp.Snapshot.LocalCells[0]
	assert.True(cell.Enabled, "cell enabled")
	assert.True(cell.Charging, "charge marker parsed from status text")
	assert.Equal(cell.Reading.CurrentStoredWattHour, float64(20_000), "stored energy")

	assert.True(resp.Snapshot.DockedCells[0].Docked, "docked flag")

	context.Stop(pid)
	as.Shutdown()
}

func TestApplyControlPlanGridActor(t *testing.T) {

	assert := assert.New(t)

	grid := testGrid()
	gyroA := grid.ActuatorList[0].(*powergrid.TestActuator)
	gyroB := grid.ActuatorList[1].(*powergrid.TestActuator)
	gyroA.Axes = [powergrid.AxisCount]float64{0, 0.2, 0}
	gyroB.Axes = [powergrid.AxisCount]float64{0, 0.2, 0}
	gyroA.OverrideFlag = true

	as, context, pid := spawnGridActor(t, grid)

	on := true
	charge := false
	plan := domain.ControlPlan{
		Rotate:      &domain.RotateCommand{Axis: powergrid.AxisYaw, Direction: -1},
		SetOverride: &on,
		ChargeActions: []domain.ChargeAction{
			{CellID: "CELL_A", SetEnabled: &on, SetCharge: &charge},
			{CellID: "NOT_A_CELL", SetEnabled: &on},
		},
	}

	result, err := context.RequestFuture(pid, domain.ApplyControlPlanRequest{Plan: plan}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ApplyControlPlanResponse)
	assert.False(resp.HasResponseError(), "no apply error")

	// rotation rewrites every axis: pitch zeroed, yaw carries rate × direction
	assert.Equal(gyroA.Axes, [powergrid.AxisCount]float64{0, 0, -0.5}, "gyro A axes")
	assert.Equal(gyroB.Axes, [powergrid.AxisCount]float64{0, 0, -0.5}, "gyro B axes")

	// override only touched where it differs
	assert.True(gyroB.OverrideFlag, "gyro B override acquired")
	assert.True(gyroA.OverrideFlag, "gyro A override untouched")

	cell := grid.LocalList[0].(*powergrid.TestCell)
	assert.True(cell.EnabledFlag, "cell enabled")
	assert.False(cell.ChargeFlag, "cell charge mode cleared")

	context.Stop(pid)
	as.Shutdown()
}
