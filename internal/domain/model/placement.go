package model

import "time"

// PlacementState ピン配置操作の状態
type PlacementState string

const (
	PlacementIdle      PlacementState = "idle"
	PlacementPlacing   PlacementState = "placing"
	PlacementCommitted PlacementState = "committed"
	PlacementCancelled PlacementState = "cancelled"
)

// Placement 確定前のピン配置操作。座標はコミットまでコントローラが保持する
type Placement struct {
	ID         string         `json:"id"`
	State      PlacementState `json:"state"`
	Coordinate Coordinate     `json:"coordinate"`
	// PinID コミット後に作成されたピンのID
	PinID     string    `json:"pin_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal これ以上遷移しない状態か
func (p Placement) IsTerminal() bool {
	return p.State == PlacementCommitted || p.State == PlacementCancelled
}
