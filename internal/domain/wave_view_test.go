package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waveWith(status WaveStatus, tasks ...PickTask) *OutboundWave {
	return &OutboundWave{
		ID:         9,
		WaveNumber: "W-0009",
		Status:     status,
		Orders: []OutboundOrder{
			*plannedOrder(line(1, "10", "10", LineStatusAllocated)),
		},
		PickTasks: tasks,
	}
}

func TestControlsFor(t *testing.T) {
	tests := []struct {
		status   WaveStatus
		tasks    int
		expected WaveControls
	}{
		{
			status: WaveStatusPlanning,
			expected: WaveControls{
				AddOrders:   Control{Visible: true, Enabled: true},
				RemoveOrder: Control{Visible: true, Enabled: true},
				Allocate:    Control{Visible: true, Enabled: true},
				Release:     Control{},
				TasksTab:    Control{Visible: true},
			},
		},
		{
			status: WaveStatusAllocated,
			tasks:  3,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				Allocate:    Control{},
				Release:     Control{Visible: true, Enabled: true},
				TasksTab:    Control{Visible: true, Enabled: true},
			},
		},
		{
			status: WaveStatusReleased,
			tasks:  3,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				TasksTab:    Control{Visible: true, Enabled: true},
			},
		},
		{
			status: WaveStatusInProgress,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				TasksTab:    Control{Visible: true, Enabled: true},
			},
		},
		{
			status: WaveStatusCompleted,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				TasksTab:    Control{Visible: true, Enabled: true},
			},
		},
		{
			status: WaveStatusCancelled,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				TasksTab:    Control{Visible: true},
			},
		},
		{
			status: WaveStatusCancelled,
			tasks:  2,
			expected: WaveControls{
				AddOrders:   Control{Visible: true},
				RemoveOrder: Control{Visible: true},
				TasksTab:    Control{Visible: true, Enabled: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, ControlsFor(tt.status, tt.tasks))
		})
	}
}

func TestComposeWaveView_Planning(t *testing.T) {
	view := ComposeWaveView(waveWith(WaveStatusPlanning), nil, nil)

	assert.True(t, view.Controls.AddOrders.Enabled)
	assert.True(t, view.Controls.Allocate.Enabled)
	assert.False(t, view.Controls.Release.Visible)
	assert.False(t, view.Controls.Release.Enabled)
	assert.False(t, view.Controls.TasksTab.Enabled)
	assert.False(t, view.ReadOnly)
	assert.Empty(t, view.ShortageBanner)

	require.Len(t, view.Orders, 1)
	assert.True(t, view.Orders[0].Projection.CanRelease)
}

func TestComposeWaveView_AllocatedShowsShortageBanner(t *testing.T) {
	wave := waveWith(WaveStatusAllocated,
		PickTask{ID: 1, Status: TaskStatusPending, QtyToPick: dec("5")},
		PickTask{ID: 2, Status: TaskStatusShort, QtyToPick: dec("3")},
	)

	view := ComposeWaveView(wave, nil, nil)

	assert.True(t, view.Controls.Release.Enabled)
	assert.False(t, view.Controls.AddOrders.Enabled)
	assert.True(t, view.Controls.RemoveOrder.Visible)
	assert.False(t, view.Controls.RemoveOrder.Enabled)
	assert.True(t, view.Controls.TasksTab.Enabled)
	assert.False(t, view.ReadOnly)
	require.Len(t, view.ShortageBanner, 1)
	assert.Equal(t, int64(2), view.ShortageBanner[0].ID)
}

func TestComposeWaveView_ReleasedIsReadOnly(t *testing.T) {
	wave := waveWith(WaveStatusReleased, PickTask{ID: 4, Status: TaskStatusShort})

	view := ComposeWaveView(wave, nil, nil)

	assert.True(t, view.ReadOnly)
	assert.False(t, view.Controls.AddOrders.Enabled)
	assert.False(t, view.Controls.RemoveOrder.Enabled)
	assert.False(t, view.Controls.Release.Visible)
	assert.Len(t, view.ShortageBanner, 1)
}

func TestComposeWaveView_FetchedOrdersAndTasksOverrideEmbedded(t *testing.T) {
	wave := waveWith(WaveStatusAllocated, PickTask{ID: 1, Status: TaskStatusShort})
	fetched := []OutboundOrder{*plannedOrder(line(1, "10", "6", LineStatusPartial))}
	tasks := []PickTask{{ID: 8, Status: TaskStatusAssigned}}

	view := ComposeWaveView(wave, fetched, tasks)

	require.Len(t, view.Orders, 1)
	assert.True(t, view.Orders[0].Projection.HasShortages)
	assert.Equal(t, tasks, view.Tasks)
	assert.Empty(t, view.ShortageBanner)
}

func TestComposeWaveView_NilWave(t *testing.T) {
	view := ComposeWaveView(nil, nil, nil)

	assert.True(t, view.ReadOnly)
	assert.NotNil(t, view.Orders)
	assert.NotNil(t, view.ShortageBanner)
	assert.False(t, view.Controls.AddOrders.Enabled)
}

func TestWaveGating(t *testing.T) {
	planning := waveWith(WaveStatusPlanning)
	allocated := waveWith(WaveStatusAllocated)

	assert.True(t, CanAllocateWave(planning))
	assert.False(t, CanAllocateWave(allocated))
	assert.True(t, CanReleaseWave(allocated))
	assert.False(t, CanReleaseWave(planning))
	assert.True(t, CanModifyWaveOrders(planning))
	assert.False(t, CanModifyWaveOrders(allocated))
	assert.False(t, CanModifyWaveOrders(nil))

	assert.True(t, planning.ContainsOrder(1))
	assert.False(t, planning.ContainsOrder(2))
}

func TestActionResourceType(t *testing.T) {
	assert.Equal(t, ResourceOutboundOrder, ActionReleaseOrder.ResourceType())
	assert.Equal(t, ResourceOutboundWave, ActionRemoveOrderFromWave.ResourceType())
	assert.Equal(t, ResourcePickTask, ActionCompletePickTask.ResourceType())
	assert.Equal(t, ResourceInboundShipment, ActionReceiveItem.ResourceType())
	assert.Equal(t, ResourceInboundOrder, ActionCloseInboundOrder.ResourceType())
	assert.Equal(t, ResourceType(""), Action("unknown").ResourceType())
}
