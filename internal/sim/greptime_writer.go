package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"airops-sim/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes unit, engagement and state rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client          greptimeClient
	unitTable       string
	engagementTable string
	stateTable      string
	timeout         time.Duration
	log             *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port). Tables are
// created by the server on first write.
func NewGreptimeDBWriter(endpoint, database string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &GreptimeDBWriter{
		client:          client,
		unitTable:       telemetry.UnitTableName,
		engagementTable: telemetry.EngagementTableName,
		stateTable:      telemetry.StateTableName,
		timeout:         5 * time.Second,
		log:             log.With("component", "greptime"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, n int) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger().Error("write failed", "table", name, "err", err)
		return err
	}
	w.logger().Debug("wrote rows", "table", name, "rows", n)
	return nil
}

// column describes one tag or field column.
type column struct {
	name string
	typ  types.ColumnType
	tag  bool
}

func newTable(name string, cols []column) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
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

var unitColumns = []column{
	{"scenario_id", types.STRING, true},
	{"unit_id", types.STRING, true},
	{"kind", types.STRING, true},
	{"side_name", types.STRING, false},
	{"name", types.STRING, false},
	{"class_name", types.STRING, false},
	{"lat", types.FLOAT64, false},
	{"lon", types.FLOAT64, false},
	{"alt", types.FLOAT64, false},
	{"heading", types.FLOAT64, false},
	{"speed", types.FLOAT64, false},
	{"fuel", types.FLOAT64, false},
	{"ammunition", types.INT64, false},
	{"target_id", types.STRING, false},
	{"sim_time", types.INT64, false},
}

var engagementColumns = []column{
	{"scenario_id", types.STRING, true},
	{"weapon_id", types.STRING, true},
	{"outcome", types.STRING, false},
	{"shooter_id", types.STRING, false},
	{"target_id", types.STRING, false},
	{"side_name", types.STRING, false},
	{"lat", types.FLOAT64, false},
	{"lon", types.FLOAT64, false},
	{"roll", types.FLOAT64, false},
	{"sim_time", types.INT64, false},
}

var stateColumns = []column{
	{"scenario_id", types.STRING, true},
	{"current_side", types.STRING, false},
	{"sim_time", types.INT64, false},
	{"time_compression", types.INT64, false},
	{"aircraft", types.INT64, false},
	{"ships", types.INT64, false},
	{"facilities", types.INT64, false},
	{"airbases", types.INT64, false},
	{"weapons", types.INT64, false},
	{"launches", types.INT64, false},
	{"hits", types.INT64, false},
	{"paused", types.BOOLEAN, false},
}

// Write inserts a single unit row.
func (w *GreptimeDBWriter) Write(row telemetry.UnitRow) error {
	return w.WriteBatch([]telemetry.UnitRow{row})
}

// WriteBatch inserts multiple unit rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.UnitRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.unitTable, unitColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.ScenarioID, r.UnitID, r.Kind, r.SideName, r.Name, r.ClassName,
			r.Lat, r.Lon, r.Alt, r.Heading, r.Speed, r.Fuel, int64(r.Ammunition), r.TargetID,
			r.SimTime, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.unitTable, tbl, len(rows))
}

// WriteEngagement inserts a single engagement row.
func (w *GreptimeDBWriter) WriteEngagement(row telemetry.EngagementRow) error {
	return w.WriteEngagements([]telemetry.EngagementRow{row})
}

// WriteEngagements inserts multiple engagement rows.
func (w *GreptimeDBWriter) WriteEngagements(rows []telemetry.EngagementRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.engagementTable, engagementColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.ScenarioID, r.WeaponID, r.Outcome, r.ShooterID, r.TargetID, r.SideName,
			r.Lat, r.Lon, r.Roll, r.SimTime, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.engagementTable, tbl, len(rows))
}

// WriteState inserts a single tick state row.
func (w *GreptimeDBWriter) WriteState(row telemetry.TickStateRow) error {
	return w.WriteStates([]telemetry.TickStateRow{row})
}

// WriteStates inserts multiple tick state rows.
func (w *GreptimeDBWriter) WriteStates(rows []telemetry.TickStateRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.stateTable, stateColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.ScenarioID, r.CurrentSide, r.SimTime, int64(r.TimeCompression),
			int64(r.Aircraft), int64(r.Ships), int64(r.Facilities), int64(r.Airbases), int64(r.Weapons),
			int64(r.Launches), int64(r.Hits), r.Paused, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.stateTable, tbl, len(rows))
}
