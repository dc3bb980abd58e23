// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/pelorus/internal/enrich"
	"github.com/tomtom215/pelorus/internal/ingest"
)

type countingRefresher struct {
	calls atomic.Int64
	err   error
}

func (c *countingRefresher) Refresh(_ context.Context, _ ingest.Window) (enrich.Result, error) {
	c.calls.Add(1)
	return enrich.Result{}, c.err
}

func TestServeRunsPeriodically(t *testing.T) {
	ref := &countingRefresher{}
	svc := NewService(ref, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if n := ref.calls.Load(); n < 2 {
		t.Errorf("refreshed %d times in 150ms at 20ms interval", n)
	}
}

func TestServeContinuesAfterFailure(t *testing.T) {
	// A failed refresh is logged and the loop keeps going; only context
	// cancellation stops the service.
	ref := &countingRefresher{err: errors.New("feed down")}
	svc := NewService(ref, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)
	if n := ref.calls.Load(); n < 2 {
		t.Errorf("service stopped after a failure: %d calls", n)
	}
}

func TestServiceName(t *testing.T) {
	if NewService(nil, time.Second).String() != "periodic-refresh" {
		t.Error("unexpected service name")
	}
}
