// Package poller consumes vendor change events and drops the vendor cache
// when the backend announces a change.
package poller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	Topic   = "vendor-events"
	GroupID = "ixplor-gateway"
)

const (
	EventVendorCreated = "vendor.created"
	EventVendorUpdated = "vendor.updated"
	EventVendorDeleted = "vendor.deleted"
)

type VendorEvent struct {
	Type     string `json:"type"`
	VendorID string `json:"vendorId"`
}

// MessageReader is the part of *kafka.Reader the poller uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator is cleared on every vendor change.
type Invalidator interface {
	Clear(ctx context.Context)
}

type Poller struct {
	reader MessageReader
	cache  Invalidator
	log    logrus.FieldLogger
}

func NewPoller(cache Invalidator, log logrus.FieldLogger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(reader, cache, log)
}

func NewPollerWithReader(reader MessageReader, cache Invalidator, log logrus.FieldLogger) *Poller {
	return &Poller{reader: reader, cache: cache, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.handleNext(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Warn("error closing vendor events reader")
	}
}

func (p *Poller) handleNext(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.WithError(err).Warn("error reading vendor event")
		}
		return
	}

	var ev VendorEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.log.WithError(err).WithField("offset", m.Offset).Warn("malformed vendor event skipped")
		return
	}

	switch ev.Type {
	case EventVendorCreated, EventVendorUpdated, EventVendorDeleted:
	default:
		p.log.WithField("type", ev.Type).Debug("vendor event ignored")
		return
	}

	p.cache.Clear(ctx)
	p.log.WithFields(logrus.Fields{"type": ev.Type, "vendor_id": ev.VendorID}).Info("vendor cache cleared")
}
