package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/craftwatch/internal/domain"
	"github.com/hamed0406/craftwatch/internal/probe"
	"github.com/hamed0406/craftwatch/internal/repo"
)

const (
	// DefaultInterval is the scheduled probe cadence. Ticks are aligned
	// to interval boundaries from the Unix epoch, so they land on round
	// wall-clock times regardless of when the process started.
	DefaultInterval = 10 * time.Minute

	// DefaultTimeout bounds each individual probe.
	DefaultTimeout = 3 * time.Second
)

// ErrUnknownServer is returned by PingOne for ids not in the registry.
var ErrUnknownServer = errors.New("unknown server")

// Pinger owns the periodic probe loop. Each tick fans out one goroutine per
// registered server with no join in the tick path: a hung probe cannot
// delay the next tick or its sibling probes, only its own 3s budget.
type Pinger struct {
	Logger   *zap.Logger
	Servers  repo.ServerStore
	Results  repo.ResultStore
	Probe    probe.Pinger
	Interval time.Duration
	Timeout  time.Duration
}

func NewPinger(
	logger *zap.Logger,
	servers repo.ServerStore,
	results repo.ResultStore,
	p probe.Pinger,
	interval time.Duration,
	timeout time.Duration,
) *Pinger {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pinger{
		Logger:   logger,
		Servers:  servers,
		Results:  results,
		Probe:    p,
		Interval: interval,
		Timeout:  timeout,
	}
}

// Run waits until the next aligned interval boundary, then probes every
// server on each tick until ctx is cancelled. The ticker fires on a fixed
// cadence independent of how long any probe takes.
func (p *Pinger) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(alignDelay(time.Now(), p.Interval)):
	}

	t := time.NewTicker(p.Interval)
	defer t.Stop()

	p.pingAll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("pinger_stopped")
			return
		case <-t.C:
			p.pingAll(ctx)
		}
	}
}

// alignDelay is the wait from now until the next interval boundary measured
// from the Unix epoch.
func alignDelay(now time.Time, interval time.Duration) time.Duration {
	period := int64(interval / time.Second)
	if period <= 0 {
		return 0
	}
	past := now.Unix() % period
	return time.Duration(period-past) * time.Second
}

func (p *Pinger) pingAll(ctx context.Context) {
	servers, err := p.Servers.List(ctx)
	if err != nil {
		p.Logger.Warn("pinger_list_error", zap.Error(err))
		return
	}
	for _, srv := range servers {
		go func() {
			_ = p.pingServer(ctx, &srv)
		}()
	}
}

// PingOne runs a single probe-and-append cycle outside the periodic
// cadence. It shares the probe contract and store with scheduled ticks and
// has no effect on tick timing. The returned error reflects the lookup and
// the store write only — an offline probe outcome is still a success.
func (p *Pinger) PingOne(ctx context.Context, serverID int64) error {
	srv, err := p.Servers.GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrUnknownServer
	}
	return p.pingServer(ctx, srv)
}

func (p *Pinger) pingServer(ctx context.Context, srv *domain.Server) error {
	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out := p.Probe.Ping(cctx, srv.Address, srv.Port)

	row := &domain.PingResult{
		ServerID:      srv.ID,
		Online:        out.Online,
		LatencyMS:     out.LatencyMS,
		PlayersOnline: out.PlayersOnline,
		PlayersMax:    out.PlayersMax,
		Version:       out.Version,
		MOTD:          out.MOTD,
	}
	if _, err := p.Results.Append(ctx, row); err != nil {
		p.Logger.Warn("ping_append_error",
			zap.Int64("server_id", srv.ID),
			zap.String("address", srv.Address),
			zap.Error(err),
		)
		return err
	}

	p.Logger.Debug("ping_done",
		zap.Int64("server_id", srv.ID),
		zap.String("address", srv.Address),
		zap.Bool("online", out.Online),
		zap.String("reason", out.Reason),
	)
	return nil
}
