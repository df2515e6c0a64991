package sink

import (
	"context"

	"tickbar/internal/model"

	"github.com/yanun0323/logs"
)

// Log writes one line per bar.
type Log struct{}

func (Log) Emit(_ context.Context, b model.Bar) error {
	logs.Infof("Bar: %s", b)
	return nil
}

func (Log) Close() error {
	return nil
}
