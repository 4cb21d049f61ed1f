// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trend computes per-auditor consistency reports across
// historical audit cycles.
//
// The analysis is read-only over frozen cycle snapshots and is not part
// of the live-write path.
package trend

import (
	"iter"
	"math"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
)

// DefaultDivergenceThreshold flags a cycle where an auditor's mean desk
// score drifts from the peer's by more than this amount.
const DefaultDivergenceThreshold = 0.5

// Summary is one cycle's consistency figure for a chosen auditor.
type Summary struct {
	Cycle string `json:"cycle"`

	// AuditorMean and PeerMean average desk scores over instruments
	// where both the auditor and the peer scored. Zero when no such
	// instrument exists in the cycle.
	AuditorMean float64 `json:"auditor_mean"`
	PeerMean    float64 `json:"peer_mean"`
	Difference  float64 `json:"difference"`

	// SampleSize is the number of jointly scored instruments.
	SampleSize int `json:"sample_size"`

	// Divergent is set when Difference exceeds the configured threshold.
	Divergent bool `json:"divergent"`
}

// Summaries yields one Summary per cycle, in cycle order. The sequence is
// lazy and restartable; iterating never mutates the cycles.
func Summaries(cycles []evaluation.HistoricalCycle, auditorID string, threshold float64) iter.Seq[Summary] {
	return func(yield func(Summary) bool) {
		for _, c := range cycles {
			if !yield(summarize(c, auditorID, threshold)) {
				return
			}
		}
	}
}

// Analyze collects the per-cycle summaries into a slice.
func Analyze(cycles []evaluation.HistoricalCycle, auditorID string, threshold float64) []Summary {
	out := make([]Summary, 0, len(cycles))
	for s := range Summaries(cycles, auditorID, threshold) {
		out = append(out, s)
	}
	return out
}

func summarize(c evaluation.HistoricalCycle, auditorID string, threshold float64) Summary {
	var mine, peers float64
	var n int

	for i := range c.Instruments {
		inst := &c.Instruments[i]
		if !inst.Assigned(auditorID) {
			continue
		}
		my, okMine := deskScore(inst, auditorID)
		peer, okPeer := deskScore(inst, inst.Peer(auditorID))
		if !okMine || !okPeer {
			continue
		}
		mine += my
		peers += peer
		n++
	}

	s := Summary{Cycle: c.Name, SampleSize: n}
	if n > 0 {
		s.AuditorMean = mine / float64(n)
		s.PeerMean = peers / float64(n)
		s.Difference = math.Abs(s.AuditorMean - s.PeerMean)
		s.Divergent = s.Difference > threshold
	}
	return s
}

func deskScore(inst *evaluation.Instrument, auditorID string) (float64, bool) {
	ev, ok := inst.Evaluations[auditorID]
	if !ok || ev.DeskScore == nil {
		return 0, false
	}
	return *ev.DeskScore, true
}
