// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scheduler runs periodic maintenance. Its single job is to
// rebuild the similarity index so soft-deleted memories age out of
// recall results.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/mnemos-ai/mnemos-mcp/internal/recall"
)

// Scheduler handles periodic recall index rebuilds
type Scheduler struct {
	searcher *recall.Searcher
	interval time.Duration
	stopChan chan bool
}

// NewScheduler creates a new scheduler
func NewScheduler(searcher *recall.Searcher, intervalMinutes int) *Scheduler {
	return &Scheduler{
		searcher: searcher,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopChan: make(chan bool),
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.rebuildIndex()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopChan <- true
}

// rebuildIndex refreshes every collection the searcher has served so far
func (s *Scheduler) rebuildIndex() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.searcher.RebuildAll(ctx); err != nil {
		log.Printf("Failed to rebuild recall index: %v", err)
	}
}
