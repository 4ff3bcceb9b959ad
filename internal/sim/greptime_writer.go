package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"relaychain-sim/internal/telemetry"
)

// defaultGreptimePort is the GreptimeDB gRPC port.
const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes chain records to GreptimeDB via the ingester client.
// Tables are created by the server on first insert.
type GreptimeDBWriter struct {
	client          greptimeClient
	statusTable     string
	linkTable       string
	deploymentTable string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptimedb endpoint %q: %w", endpoint, err)
		}
		host, port = h, n
	}
	if database == "" {
		database = "public"
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:          client,
		statusTable:     telemetry.StatusTableName,
		linkTable:       telemetry.LinkTableName,
		deploymentTable: telemetry.DeploymentTableName,
	}, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptimedb write: %w", err)
	}
	return nil
}

type column struct {
	name string
	kind types.ColumnType
	tag  bool
}

func newTable(name string, cols []column) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.kind)
		} else {
			err = tbl.AddFieldColumn(c.name, c.kind)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}

var statusColumns = []column{
	{"run_id", types.STRING, true},
	{"policy", types.STRING, true},
	{"tick", types.INT64, false},
	{"relay_count", types.INT64, false},
	{"mobile_x", types.FLOAT64, false},
	{"mobile_y", types.FLOAT64, false},
	{"max_hop_m", types.FLOAT64, false},
	{"end_to_end_path_loss_db", types.FLOAT64, false},
	{"end_to_end_sinr_db", types.FLOAT64, false},
	{"end_to_end_capacity_bps", types.FLOAT64, false},
	{"link_down", types.BOOLEAN, false},
}

// WriteStatus inserts a single status row.
func (w *GreptimeDBWriter) WriteStatus(row telemetry.StatusRow) error {
	return w.WriteStatuses([]telemetry.StatusRow{row})
}

// WriteStatuses inserts multiple status rows.
func (w *GreptimeDBWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.statusTable, statusColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Policy, int64(r.Tick), int64(r.RelayCount),
			r.MobileX, r.MobileY, r.MaxHopM, r.EndToEndPathLossDB, r.EndToEndSINRDB, r.EndToEndCapacityBps,
			r.LinkDown, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

var linkColumns = []column{
	{"run_id", types.STRING, true},
	{"hop", types.INT64, true},
	{"tick", types.INT64, false},
	{"from_entity", types.STRING, false},
	{"to_entity", types.STRING, false},
	{"distance_m", types.FLOAT64, false},
	{"received_power_dbm", types.FLOAT64, false},
	{"interference_dbm", types.FLOAT64, false},
	{"noise_dbm", types.FLOAT64, false},
	{"sinr_db", types.FLOAT64, false},
	{"capacity_bps", types.FLOAT64, false},
	{"down", types.BOOLEAN, false},
}

// WriteLinks inserts the hops of a reported tick.
func (w *GreptimeDBWriter) WriteLinks(rows []telemetry.LinkRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.linkTable, linkColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, int64(r.Index), int64(r.Tick), r.From, r.To,
			r.DistanceM, r.ReceivedPowerDBm, r.InterferenceDBm, r.NoiseDBm, r.SINRDB,
			r.CapacityBps, r.Down, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

var deploymentColumns = []column{
	{"run_id", types.STRING, true},
	{"relay_id", types.INT64, true},
	{"tick", types.INT64, false},
	{"x", types.FLOAT64, false},
	{"y", types.FLOAT64, false},
	{"relay_count", types.INT64, false},
	{"hop_before_m", types.FLOAT64, false},
	{"hop_after_m", types.FLOAT64, false},
}

// WriteDeployment inserts a relay deployment.
func (w *GreptimeDBWriter) WriteDeployment(r telemetry.DeploymentRow) error {
	tbl, err := newTable(w.deploymentTable, deploymentColumns)
	if err != nil {
		return err
	}
	if err := tbl.AddRow(r.RunID, int64(r.RelayID), int64(r.Tick), r.X, r.Y,
		int64(r.RelayCount), r.HopBeforeM, r.HopAfterM, r.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}
