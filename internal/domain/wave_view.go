package domain

// Control describes one wave screen affordance
type Control struct {
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

var (
	absent   = Control{}
	disabled = Control{Visible: true}
	enabled  = Control{Visible: true, Enabled: true}
)

// WaveControls is the set of controls rendered on the wave screen
type WaveControls struct {
	AddOrders   Control `json:"add_orders"`
	RemoveOrder Control `json:"remove_order"`
	Allocate    Control `json:"allocate"`
	Release     Control `json:"release"`
	TasksTab    Control `json:"tasks_tab"`
}

// WaveOrderView is one order in a wave with its projection
type WaveOrderView struct {
	Order      OutboundOrder   `json:"order"`
	Projection OrderProjection `json:"projection"`
}

// WaveView is the composed read model of a wave screen
type WaveView struct {
	Wave           OutboundWave    `json:"wave"`
	Orders         []WaveOrderView `json:"orders"`
	Tasks          []PickTask      `json:"tasks"`
	Controls       WaveControls    `json:"controls"`
	ShortageBanner []PickTask      `json:"shortage_banner"`
	ReadOnly       bool            `json:"read_only"`
}

// ControlsFor maps a wave status and task count to the control set.
// Removal stays visible outside PLANNING so operators can see the state.
func ControlsFor(status WaveStatus, taskCount int) WaveControls {
	switch status {
	case WaveStatusPlanning:
		return WaveControls{
			AddOrders:   enabled,
			RemoveOrder: enabled,
			Allocate:    enabled,
			Release:     absent,
			TasksTab:    disabled,
		}
	case WaveStatusAllocated:
		return WaveControls{
			AddOrders:   disabled,
			RemoveOrder: disabled,
			Allocate:    absent,
			Release:     enabled,
			TasksTab:    enabled,
		}
	case WaveStatusReleased, WaveStatusInProgress, WaveStatusCompleted:
		return WaveControls{
			AddOrders:   disabled,
			RemoveOrder: disabled,
			TasksTab:    enabled,
		}
	default:
		tasks := disabled
		if taskCount > 0 {
			tasks = enabled
		}
		return WaveControls{
			AddOrders:   disabled,
			RemoveOrder: disabled,
			TasksTab:    tasks,
		}
	}
}

// ComposeWaveView builds the wave screen. orders overrides the wave's
// embedded order summaries when fuller copies were fetched; tasks falls
// back to the wave's own pick tasks when nil.
func ComposeWaveView(wave *OutboundWave, orders []OutboundOrder, tasks []PickTask) WaveView {
	if wave == nil {
		return WaveView{
			Orders:         []WaveOrderView{},
			Tasks:          []PickTask{},
			Controls:       ControlsFor(WaveStatusCancelled, 0),
			ShortageBanner: []PickTask{},
			ReadOnly:       true,
		}
	}

	if orders == nil {
		orders = wave.Orders
	}
	if tasks == nil {
		tasks = wave.PickTasks
	}
	if tasks == nil {
		tasks = []PickTask{}
	}

	orderViews := make([]WaveOrderView, 0, len(orders))
	for i := range orders {
		orderViews = append(orderViews, WaveOrderView{
			Order:      orders[i],
			Projection: Project(&orders[i]),
		})
	}

	controls := ControlsFor(wave.Status, len(tasks))

	banner := make([]PickTask, 0)
	if controls.TasksTab.Enabled {
		for _, t := range tasks {
			if t.Status == TaskStatusShort {
				banner = append(banner, t)
			}
		}
	}

	return WaveView{
		Wave:           *wave,
		Orders:         orderViews,
		Tasks:          tasks,
		Controls:       controls,
		ShortageBanner: banner,
		ReadOnly:       wave.Status != WaveStatusPlanning && wave.Status != WaveStatusAllocated,
	}
}
