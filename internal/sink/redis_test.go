package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "bars:BTC-USD", channelFor("bars:{symbol}", "BTC-USD"))
	assert.Equal(t, "bars", channelFor("bars", "BTC-USD"))
	assert.Equal(t, "ETH-USD.1m.ETH-USD", channelFor("{symbol}.1m.{symbol}", "ETH-USD"))
}
