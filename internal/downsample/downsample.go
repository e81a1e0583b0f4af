// Package downsample compresses an ordered ping history into a small,
// chart-ready sequence. The compression is transition-faithful: runs of
// constant online/offline state are handled independently, so a short
// outage between two long online stretches survives in full detail instead
// of being averaged away.
package downsample

import (
	"time"

	"github.com/hamed0406/craftwatch/internal/domain"
)

// BlipSeconds is the longest a run of same-state observations can span and
// still be kept at edge-level detail. Segments at or under this are never
// chunk-averaged, whatever their state.
const BlipSeconds int64 = 20 * 60

// Downsample reduces an ascending-by-time sequence of observations for one
// server to a chart-ready sequence. It is pure and deterministic: the input
// is never mutated, the output is never longer than the input, and output
// timestamps are non-decreasing. An empty input yields an empty output.
//
// Emitted points are PingResult-shaped but not necessarily stored rows:
// long online segments produce synthetic points with averaged player counts.
func Downsample(points []domain.PingResult, r domain.Range) []domain.PingResult {
	out := make([]domain.PingResult, 0, len(points))
	if len(points) == 0 {
		return out
	}

	chunkSeconds := r.ChunkSeconds()

	segStart := 0
	for i := 1; i < len(points); i++ {
		if points[i].Online != points[segStart].Online {
			out = append(out, compressSegment(points[segStart:i], chunkSeconds)...)
			segStart = i
		}
	}
	return append(out, compressSegment(points[segStart:], chunkSeconds)...)
}

// compressSegment reduces one maximal run of same-state observations.
func compressSegment(seg []domain.PingResult, chunkSeconds int64) []domain.PingResult {
	first := seg[0]
	last := seg[len(seg)-1]
	duration := parseTime(last.PingedAt) - parseTime(first.PingedAt)

	// Short segments are blips: keep them in full when they are just one
	// or two points, otherwise collapse to the boundary pair.
	if duration <= BlipSeconds {
		if len(seg) <= 2 {
			return append([]domain.PingResult(nil), seg...)
		}
		return []domain.PingResult{first, last}
	}

	// A long offline stretch has no player data to average; a flat line
	// between its two edges says everything.
	if !first.Online {
		return []domain.PingResult{first, last}
	}

	return chunkAverage(seg, chunkSeconds)
}

// chunkAverage walks a long online segment accumulating player counts and
// emits one synthetic point per elapsed chunk width. Each emitted point
// copies the chunk's reference member (its first), replaces the player
// count with the integer-truncated average over the chunk, and carries the
// chunk's last real timestamp — points never claim data past the last
// actual sample.
func chunkAverage(seg []domain.PingResult, chunkSeconds int64) []domain.PingResult {
	out := make([]domain.PingResult, 0, len(seg)/2+1)

	ref := seg[0]
	chunkStart := parseTime(ref.PingedAt)
	var sum, count int64

	for _, p := range seg {
		if p.PlayersOnline != nil {
			sum += *p.PlayersOnline
		}
		count++

		t := parseTime(p.PingedAt)
		if t-chunkStart >= chunkSeconds {
			out = append(out, averaged(ref, p.PingedAt, sum/count))
			ref = p
			chunkStart = t
			sum, count = 0, 0
		}
	}

	// trailing partial chunk; it keeps the reference member's own
	// timestamp since no later flush point exists
	if count > 0 {
		out = append(out, averaged(ref, ref.PingedAt, sum/count))
	}
	return out
}

func averaged(ref domain.PingResult, pingedAt string, avgPlayers int64) domain.PingResult {
	p := ref
	p.PingedAt = pingedAt
	p.PlayersOnline = &avgPlayers
	return p
}

// parseTime converts a stored timestamp to Unix seconds. Malformed values
// collapse to the epoch instead of failing the query; that keeps the
// endpoint total but skews duration and chunk math for the bad row.
func parseTime(s string) int64 {
	t, err := time.Parse(domain.TimeLayout, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
