// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package ingest opens a bounded collection window against the AIS push feed:
// dial, subscribe with the configured bounding boxes and message-type filter,
// then demultiplex inbound envelopes into the track store until the window
// elapses or the connection drops. A dropped connection is a recoverable
// condition - everything accumulated before the drop stays in the store and
// the caller decides whether partial data is good enough.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/pelorus/internal/config"
	"github.com/tomtom215/pelorus/internal/logging"
	"github.com/tomtom215/pelorus/internal/metrics"
	"github.com/tomtom215/pelorus/internal/models"
)

// ErrFeedInterrupted reports a collection window cut short by a connection
// failure. State accumulated before the failure has been retained.
var ErrFeedInterrupted = errors.New("ingest: feed connection interrupted")

// Sink receives demultiplexed feed messages. *trackstore.Store satisfies it.
type Sink interface {
	ApplyPosition(mmsi string, pos models.Position)
	MergeStatic(mmsi string, static models.StaticDescriptor)
}

// Subscriber runs collection windows against the feed.
type Subscriber struct {
	cfg    config.AISConfig
	sink   Sink
	dialer *websocket.Dialer
	now    func() time.Time
}

// New creates a Subscriber writing into sink.
func New(cfg config.AISConfig, sink Sink) *Subscriber {
	return &Subscriber{
		cfg: cfg,
		sink: sink,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		now: time.Now,
	}
}

// Window describes one collection request. Zero-valued fields fall back to
// the subscriber's configuration, so callers override only what they need
// (the API lets a client narrow the region or stretch the duration per
// refresh).
type Window struct {
	Boxes    []config.BoundingBox
	Duration time.Duration
	FeedKey  string
}

// Collect opens the feed and processes messages until the window elapses,
// ctx is cancelled, or the connection closes. Returns nil on a complete
// window, ErrFeedInterrupted (wrapped) on a mid-window connection failure,
// and a plain error when the feed could not be opened at all.
func (s *Subscriber) Collect(ctx context.Context, win Window) error {
	duration := win.Duration
	if duration <= 0 {
		duration = s.cfg.CollectDuration
	}

	start := s.now()
	windowCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	conn, resp, err := s.dialer.DialContext(windowCtx, s.cfg.FeedURL, nil)
	if err != nil {
		metrics.IngestSessions.WithLabelValues("failed").Inc()
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("dial feed: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(s.subscription(win)); err != nil {
		metrics.IngestSessions.WithLabelValues("failed").Inc()
		return fmt.Errorf("send subscription: %w", err)
	}

	// Closing the connection is the only way to unblock ReadMessage when the
	// window elapses or the caller cancels.
	go func() {
		<-windowCtx.Done()
		_ = conn.Close()
	}()

	logging.Info().
		Str("feed", s.cfg.FeedURL).
		Dur("window", duration).
		Int("boxes", len(s.boxes(win))).
		Msg("collection window opened")

	err = s.readLoop(conn)
	metrics.IngestDuration.Observe(s.now().Sub(start).Seconds())

	// A read error after the deadline fired is the normal end of the window.
	if windowCtx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		metrics.IngestSessions.WithLabelValues("complete").Inc()
		logging.Info().Dur("window", duration).Msg("collection window complete")
		return nil
	}
	if err != nil {
		metrics.IngestSessions.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", ErrFeedInterrupted, err)
	}
	metrics.IngestSessions.WithLabelValues("complete").Inc()
	return nil
}

// readLoop consumes envelopes until the connection fails or closes.
func (s *Subscriber) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		s.dispatch(data)
	}
}

// dispatch decodes and routes one inbound envelope. Malformed envelopes and
// messages without a tracking identifier are dropped silently; both happen at
// a non-trivial rate on the real feed and are expected.
func (s *Subscriber) dispatch(data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.IngestDropped.WithLabelValues("malformed").Inc()
		return
	}

	now := s.now()
	switch env.MessageType {
	case models.MessageTypePositionReport:
		pr := env.Message.PositionReport
		if pr == nil || pr.UserID == 0 {
			metrics.IngestDropped.WithLabelValues("no_mmsi").Inc()
			return
		}
		mmsi := fmt.Sprintf("%d", pr.UserID)
		s.sink.ApplyPosition(mmsi, models.PositionFromReport(pr, env.MetaData.ShipName, now))
		metrics.IngestMessages.WithLabelValues(models.MessageTypePositionReport).Inc()

	case models.MessageTypeShipStaticData:
		sd := env.Message.ShipStaticData
		if sd == nil || sd.UserID == 0 {
			metrics.IngestDropped.WithLabelValues("no_mmsi").Inc()
			return
		}
		mmsi := fmt.Sprintf("%d", sd.UserID)
		s.sink.MergeStatic(mmsi, models.StaticFromReport(sd, now))
		metrics.IngestMessages.WithLabelValues(models.MessageTypeShipStaticData).Inc()

	default:
		metrics.IngestDropped.WithLabelValues("unknown_type").Inc()
	}
}

// boxes returns the effective bounding boxes for a window.
func (s *Subscriber) boxes(win Window) []config.BoundingBox {
	if len(win.Boxes) > 0 {
		return win.Boxes
	}
	return s.cfg.Boxes
}

// subscription builds the payload sent immediately after connect.
func (s *Subscriber) subscription(win Window) models.Subscription {
	src := s.boxes(win)
	boxes := make([][][2]float64, len(src))
	for i, b := range src {
		boxes[i] = [][2]float64{{b.LatMin, b.LonMin}, {b.LatMax, b.LonMax}}
	}
	key := win.FeedKey
	if key == "" {
		key = s.cfg.FeedKey
	}
	return models.Subscription{
		APIKey:             key,
		BoundingBoxes:      boxes,
		FilterMessageTypes: []string{models.MessageTypePositionReport, models.MessageTypeShipStaticData},
	}
}
