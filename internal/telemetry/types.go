// Output records with greptime tags
package telemetry

import (
	"encoding/json"
	"math"
	"os"
	"time"
)

// StatusRow is the per-tick summary of the relay chain.
type StatusRow struct {
	RunID               string    `json:"run_id"`      // TAG
	Policy              string    `json:"policy"`      // TAG
	Tick                int       `json:"tick"`        // FIELD
	RelayCount          int       `json:"relay_count"` // FIELD
	MobileX             float64   `json:"mobile_x"`    // FIELD
	MobileY             float64   `json:"mobile_y"`    // FIELD
	MaxHopM             float64   `json:"max_hop_m"`   // FIELD
	EndToEndPathLossDB  float64   `json:"end_to_end_path_loss_db"`
	EndToEndSINRDB      float64   `json:"end_to_end_sinr_db"`
	EndToEndCapacityBps float64   `json:"end_to_end_capacity_bps"`
	LinkDown            bool      `json:"link_down"`
	NoLink              bool      `json:"no_link,omitempty"`
	Deployed            bool      `json:"deployed,omitempty"`
	Timestamp           time.Time `json:"ts"` // TIME INDEX
}

// LinkRow describes one hop of the chain on a reported tick.
type LinkRow struct {
	RunID            string    `json:"run_id"` // TAG
	Index            int       `json:"index"`  // TAG
	Tick             int       `json:"tick"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	DistanceM        float64   `json:"distance_m"`
	ReceivedPowerDBm float64   `json:"received_power_dbm"`
	FadingDB         float64   `json:"fading_db"`
	InterferenceDBm  float64   `json:"interference_dbm"`
	NoiseDBm         float64   `json:"noise_dbm"`
	SINRDB           float64   `json:"sinr_db"`
	CapacityBps      float64   `json:"capacity_bps"`
	Down             bool      `json:"down"`
	Timestamp        time.Time `json:"ts"`
}

// DeploymentRow records a relay insertion.
type DeploymentRow struct {
	RunID      string    `json:"run_id"`   // TAG
	RelayID    int       `json:"relay_id"` // TAG
	Tick       int       `json:"tick"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	RelayCount int       `json:"relay_count"`
	HopBeforeM float64   `json:"hop_before_m"`
	HopAfterM  float64   `json:"hop_after_m"`
	Timestamp  time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB, overridable through the environment.
var (
	StatusTableName     = tableName("GREPTIMEDB_STATUS_TABLE", "relay_chain_status")
	LinkTableName       = tableName("GREPTIMEDB_LINK_TABLE", "relay_chain_links")
	DeploymentTableName = tableName("GREPTIMEDB_DEPLOYMENT_TABLE", "relay_deployments")
)

func (StatusRow) TableName() string     { return StatusTableName }
func (LinkRow) TableName() string       { return LinkTableName }
func (DeploymentRow) TableName() string { return DeploymentTableName }

// nullable maps values JSON cannot carry (±Inf, NaN) to null.
func nullable(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// orNegInf reverses nullable; a missing level is read back as -Inf.
func orNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

func (r StatusRow) MarshalJSON() ([]byte, error) {
	type alias StatusRow
	return json.Marshal(struct {
		alias
		EndToEndSINRDB *float64 `json:"end_to_end_sinr_db"`
	}{alias(r), nullable(r.EndToEndSINRDB)})
}

func (r *StatusRow) UnmarshalJSON(b []byte) error {
	type alias StatusRow
	aux := struct {
		*alias
		EndToEndSINRDB *float64 `json:"end_to_end_sinr_db"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.EndToEndSINRDB = orNegInf(aux.EndToEndSINRDB)
	return nil
}

func (r LinkRow) MarshalJSON() ([]byte, error) {
	type alias LinkRow
	return json.Marshal(struct {
		alias
		FadingDB        *float64 `json:"fading_db"`
		InterferenceDBm *float64 `json:"interference_dbm"`
		SINRDB          *float64 `json:"sinr_db"`
	}{alias(r), nullable(r.FadingDB), nullable(r.InterferenceDBm), nullable(r.SINRDB)})
}

func (r *LinkRow) UnmarshalJSON(b []byte) error {
	type alias LinkRow
	aux := struct {
		*alias
		FadingDB        *float64 `json:"fading_db"`
		InterferenceDBm *float64 `json:"interference_dbm"`
		SINRDB          *float64 `json:"sinr_db"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.FadingDB = orNegInf(aux.FadingDB)
	r.InterferenceDBm = orNegInf(aux.InterferenceDBm)
	r.SINRDB = orNegInf(aux.SINRDB)
	return nil
}
