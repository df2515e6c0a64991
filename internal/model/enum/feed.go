package enum

import "strings"

// Feed selects the tick source.
type Feed uint8

const (
	_feed_beg Feed = iota
	FeedCoinbase
	FeedSim
	_feed_end
)

func (f Feed) IsAvailable() bool {
	return f > _feed_beg && f < _feed_end
}

func (f Feed) String() string {
	switch f {
	case FeedCoinbase:
		return "coinbase"
	case FeedSim:
		return "sim"
	default:
		return "unknown"
	}
}

// ParseFeed returns the feed for name, or an unavailable Feed.
func ParseFeed(name string) Feed {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "coinbase":
		return FeedCoinbase
	case "sim":
		return FeedSim
	default:
		return _feed_beg
	}
}
