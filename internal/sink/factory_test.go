package sink

import (
	"context"
	"path/filepath"
	"testing"

	"tickbar/internal/model/enum"
	"tickbar/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLogAndParquet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parquet.Path = filepath.Join(t.TempDir(), "bars.parquet")

	m, err := Build(context.Background(), []enum.Sink{enum.SinkLog, enum.SinkParquet}, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Emit(context.Background(), tradedBar(1)))
	require.NoError(t, m.Close())
	assert.FileExists(t, cfg.Parquet.Path)
}

func TestBuildRejectsBadSinks(t *testing.T) {
	_, err := Build(context.Background(), []enum.Sink{enum.ParseSink("carrier-pigeon")}, DefaultConfig(), nil)
	require.ErrorIs(t, err, exception.ErrUnknownSink)

	_, err = Build(context.Background(), []enum.Sink{enum.SinkKafka}, DefaultConfig(), nil)
	require.ErrorIs(t, err, exception.ErrInvalidArgument)

	cfg := DefaultConfig()
	cfg.QueueSize = -1
	_, err = Build(context.Background(), []enum.Sink{enum.SinkLog}, cfg, nil)
	require.ErrorIs(t, err, exception.ErrInvalidArgument)
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, defaultQueueSize, cfg.QueueSize)
	assert.Equal(t, "bars", cfg.Kafka.Topic)
	assert.Equal(t, "bars:{symbol}", cfg.Redis.Channel)
	require.NoError(t, cfg.Validate())
}
