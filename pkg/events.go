package mmt

import "gonum.org/v1/gonum/spatial/r3"

// StripRecord is one fired strip as delivered by the digitization. A
// negative VMMChip or MMFEBoard means the address is not known and is
// derived from the strip.
type StripRecord struct {
	EventID    int     `json:"event_id"`
	BCTime     int     `json:"bc_time"`
	Time       float64 `json:"time"`
	GlobalTime float64 `json:"global_time"`
	Charge     float64 `json:"charge"`
	VMMChip    int     `json:"vmm_chip"`
	MMFEBoard  int     `json:"mmfe_board"`
	Plane      int     `json:"plane"`
	Strip      int     `json:"strip"`
	StationEta int     `json:"station_eta"`
	StationPhi int     `json:"station_phi"`
	Multiplet  int     `json:"multiplet"`
	GasGap     int     `json:"gas_gap"`
	LocalX     float64 `json:"local_x"`

	// truth, used for the misalignment shift
	TruthTheta float64 `json:"truth_theta"`
	TruthPhi   float64 `json:"truth_phi"`
	TruthNBG   bool    `json:"truth_nbg"`
	Truth      r3.Vec  `json:"truth"`
	Recon      r3.Vec  `json:"recon"`
}

type EventType struct {
	EventID int           `json:"event_id"`
	Records []StripRecord `json:"records"`
}

// HitEvent is an event after conversion. Hits and MMTHits are parallel to
// Entries. Records below the charge threshold are dropped.
type HitEvent struct {
	EventID int
	Entries []HitEntry
	Hits    []Hit
	MMTHits []MMTHit
	Dropped int
	Error   bool
}
