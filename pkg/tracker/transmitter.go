package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

// Method reports which transport carried a payload.
type Method string

const (
	MethodBeacon    Method = "beacon"
	MethodKeepAlive Method = "keepalive"
	MethodNone      Method = "none"
)

// Transmitter picks a transport for each payload: the beacon first, then the
// keep-alive fallback. It never blocks on the network.
type Transmitter struct {
	beacon   Beaconer
	fallback Sender
	timeout  time.Duration
	log      *slog.Logger
}

// NewTransmitter needs at least one of beacon and fallback.
func NewTransmitter(beacon Beaconer, fallback Sender, log *slog.Logger) (*Transmitter, error) {
	if beacon == nil && fallback == nil {
		return nil, ErrNoTransport
	}
	return &Transmitter{
		beacon:   beacon,
		fallback: fallback,
		timeout:  defaultSendTimeout,
		log:      logger.OrNoop(log),
	}, nil
}

// Guarantee returns the delivery guarantee of every transmission.
func (t *Transmitter) Guarantee() DeliveryGuarantee { return BestEffortAtMostOnce }

// Transmit hands body to a transport and returns the one chosen. The fallback
// runs on its own goroutine; its errors are logged only.
func (t *Transmitter) Transmit(body []byte) Method {
	if t.beacon != nil && t.beacon.Beacon(body) {
		return MethodBeacon
	}
	if t.fallback == nil {
		t.log.Warn("payload dropped: beacon unavailable and no fallback",
			logger.Component("tracker.transmitter"),
			logger.Count("bytes", len(body)),
		)
		return MethodNone
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.fallback.Send(ctx, body); err != nil {
			t.log.Warn("keep-alive delivery failed",
				logger.Component("tracker.transmitter"),
				logger.Error(err),
			)
		}
	}()
	return MethodKeepAlive
}
