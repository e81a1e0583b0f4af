package domain

// Range selects how much history a chart query covers.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// ParseRange maps a query parameter to a Range. Anything unrecognized
// (including empty) falls back to day, matching the API default.
func ParseRange(s string) Range {
	switch s {
	case string(RangeWeek):
		return RangeWeek
	case string(RangeMonth):
		return RangeMonth
	default:
		return RangeDay
	}
}

// WindowSeconds is how far back a non-incremental history query reaches.
func (r Range) WindowSeconds() int64 {
	switch r {
	case RangeWeek:
		return 60 * 60 * 24 * 7
	case RangeMonth:
		return 60 * 60 * 24 * 30
	default:
		return 60 * 60 * 24
	}
}

// ChunkSeconds is the averaging bucket width for long online segments:
// 1h chunks for a week (~24 points per day), 6h for a month (~4 per day).
// Day ranges are never downsampled, so their width is unused in practice.
func (r Range) ChunkSeconds() int64 {
	switch r {
	case RangeMonth:
		return 6 * 60 * 60
	case RangeWeek:
		return 60 * 60
	default:
		return 15 * 60
	}
}

// Downsampled reports whether chart queries for this range are compressed
// before being returned. Day queries always return raw rows so live charts
// see exact points.
func (r Range) Downsampled() bool {
	return r == RangeWeek || r == RangeMonth
}
