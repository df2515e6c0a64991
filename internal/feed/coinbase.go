package feed

import (
	"context"
	"time"

	"tickbar/internal/model"
	"tickbar/internal/obs"
	"tickbar/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

const (
	_coinbaseWsUrl   = "wss://ws-feed.exchange.coinbase.com"
	_coinbaseChannel = "ticker"
)

// Coinbase streams trades from the Coinbase Exchange ticker channel.
type Coinbase struct {
	url     string
	product string
	metrics *obs.Metrics
}

func NewCoinbase(url, product string, metrics *obs.Metrics) *Coinbase {
	if url == "" {
		url = _coinbaseWsUrl
	}
	return &Coinbase{
		url:     url,
		product: product,
		metrics: metrics,
	}
}

type CoinbaseSubscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// CoinbaseMessage covers the ticker, subscriptions and error messages.
type CoinbaseMessage struct {
	Type      string              `json:"type"`
	ProductID string              `json:"product_id"`
	TradeID   int64               `json:"trade_id"`
	Price     decimal.NullDecimal `json:"price"`
	LastSize  decimal.NullDecimal `json:"last_size"`
	Time      time.Time           `json:"time"`
	Message   string              `json:"message"`
	Reason    string              `json:"reason"`
}

func (c *Coinbase) Run(ctx context.Context, h Handler) error {
	wss := ws.New(ctx, c.url)
	defer wss.Close()

	if err := wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	ch, cancel := wss.Subscribe()
	defer cancel()

	if err := c.subscribe(ctx, wss); err != nil {
		return err
	}
	logs.Infof("coinbase feed subscribed, product: %s, channel: %s", c.product, _coinbaseChannel)

	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return errors.New("coinbase feed closed")
			}

			msg, ok := ws.ReadMessage[CoinbaseMessage](m)
			if !ok {
				continue
			}

			c.handle(msg, h)
		}
	}
}

func (c *Coinbase) subscribe(ctx context.Context, wss *ws.WebSocket) error {
	appendIntoRegister := true
	if err := wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, conn *ws.WebSocket) error {
			payload := CoinbaseSubscribeRequest{
				Type:       "subscribe",
				ProductIDs: []string{c.product},
				Channels:   []string{_coinbaseChannel},
			}

			if err := conn.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			msg, ok := ws.ReadMessage[CoinbaseMessage](m)
			if !ok {
				return false, nil
			}
			return subscribeResult(msg)
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

func subscribeResult(msg CoinbaseMessage) (bool, error) {
	switch msg.Type {
	case "subscriptions":
		return true, nil
	case "error":
		return false, errors.Wrapf(exception.ErrFeedSubscribe, "%s: %s", msg.Message, msg.Reason)
	default:
		return false, nil
	}
}

func (c *Coinbase) handle(msg CoinbaseMessage, h Handler) {
	tick, ok, err := parseTicker(msg, c.product)
	if !ok {
		return
	}
	if err != nil {
		c.metrics.IncInvalidTick()
		logs.Warnf("drop coinbase tick, trade id: %d, err: %+v", msg.TradeID, err)
		return
	}
	h.OnTick(tick)
}

// parseTicker reports ok=false for messages that carry no trade. Trades that
// fail validation come back with ok=true and an error.
func parseTicker(msg CoinbaseMessage, product string) (model.Tick, bool, error) {
	if msg.Type != _coinbaseChannel || !msg.Price.Valid || !msg.LastSize.Valid {
		return model.Tick{}, false, nil
	}

	symbol := msg.ProductID
	if symbol == "" {
		symbol = product
	}
	at := msg.Time
	if at.IsZero() {
		at = time.Now()
	}

	tick := model.Tick{
		Symbol:  symbol,
		TradeID: msg.TradeID,
		Price:   msg.Price.Decimal,
		Size:    msg.LastSize.Decimal,
		Time:    at,
	}
	if err := tick.Validate(); err != nil {
		return model.Tick{}, true, err
	}
	return tick, true, nil
}
