package probe

import "context"

// Result is the unified outcome of a single status ping.
//
// The optional fields are set only when Online is true. Reason classifies a
// failed probe (connect error, timeout, malformed reply) for logging only;
// it is never persisted — storage sees nothing beyond online/offline.
type Result struct {
	Online        bool
	LatencyMS     *int64
	PlayersOnline *int64
	PlayersMax    *int64
	Version       *string
	MOTD          *string
	Reason        string
}

// Pinger performs a single bounded-time status query against one server.
type Pinger interface {
	Ping(ctx context.Context, host string, port int) Result
}
