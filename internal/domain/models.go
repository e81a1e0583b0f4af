package domain

// TimeLayout is the storage and wire format for every timestamp in the
// system. Stores assign timestamps in UTC at append time; probers never
// supply them, so clock skew across concurrent probes cannot produce
// out-of-order rows.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// Server is one monitored game server endpoint.
type Server struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Port      int    `json:"port"`
	CreatedAt string `json:"created_at"`
}

// PingResult is one timestamped probe outcome for a server. Optional fields
// are populated only when Online is true; offline probes carry no latency,
// player counts, version or message. Rows are immutable once written — the
// store appends, it never updates.
type PingResult struct {
	ID            int64   `json:"id" gorm:"primaryKey"`
	ServerID      int64   `json:"server_id" gorm:"index:idx_ping_results_server_date,priority:1"`
	PingedAt      string  `json:"pinged_at" gorm:"index:idx_ping_results_server_date,priority:2"`
	Online        bool    `json:"online"`
	LatencyMS     *int64  `json:"latency_ms"`
	PlayersOnline *int64  `json:"player_count"`
	PlayersMax    *int64  `json:"players_max"`
	Version       *string `json:"version"`
	MOTD          *string `json:"motd"`
}
