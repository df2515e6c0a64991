package sink

import (
	"tickbar/internal/model"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// Encode renders a bar as JSON. Decimals are quoted strings, absent prices are null.
func Encode(b model.Bar) ([]byte, error) {
	payload, err := sonic.Marshal(b)
	if err != nil {
		return nil, errors.Wrap(err, "marshal bar").With("seq", b.Seq)
	}
	return payload, nil
}
