// Package notify pushes alert events to dashboards and downstream systems.
// Delivery is best effort: a failing sink never fails the request that
// produced the event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/types"
)

const (
	EventAlertCreated = "alert.created"
	EventAlertUpdated = "alert.updated"
)

type Event struct {
	Type  string      `json:"type"`
	Alert types.Alert `json:"alert"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type sink struct {
	name string
	n    Notifier
}

// Fanout delivers each event to every registered sink.
type Fanout struct {
	sinks []sink
	log   *logger.Logger
}

func NewFanout(log *logger.Logger) *Fanout {
	return &Fanout{log: log.Component("notify")}
}

func (f *Fanout) Add(name string, n Notifier) {
	f.sinks = append(f.sinks, sink{name: name, n: n})
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.n.Notify(ctx, ev); err != nil {
			f.log.WithError(err).WithField("sink", s.name).WithField("alert_id", ev.Alert.ID).Warn("notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			}
		}
	}
	return errors.Join(errs...)
}
