// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring converts numeric audit scores into compliance verdicts
// and aggregates.
//
// All functions are pure. Scores live on the 0-4 desk-evaluation scale;
// range checks happen at the mutation boundary, not here.
package scoring

// ComplianceStatus is the categorical verdict derived from a numeric score.
// It is never persisted independently of the score it was derived from.
type ComplianceStatus string

const (
	Compliant              ComplianceStatus = "compliant"
	ConditionallyCompliant ComplianceStatus = "conditionally_compliant"
	NonCompliant           ComplianceStatus = "non_compliant"
)

// Score scale bounds and classification thresholds.
const (
	ScoreMin = 0.0
	ScoreMax = 4.0

	// CompliantMin is the lowest score classified as compliant.
	CompliantMin = 3.5
	// ConditionalMin is the lowest score classified as conditionally
	// compliant. Anything below is non-compliant.
	ConditionalMin = 2.5
)

// Scorable is the view of an instrument the scoring engine needs.
//
// FinalScore reports the instrument's effective figure and whether one
// exists at all; instruments without a score are excluded from aggregates.
type Scorable interface {
	// FinalScore returns the final audit score when present, otherwise
	// the final desk score. ok is false when neither is set.
	FinalScore() (score float64, ok bool)

	// ScoreWeight returns the instrument weight, defaulting to 1.
	ScoreWeight() float64
}

// Classify maps a numeric score to its compliance verdict.
// Boundaries are inclusive at the lower edge: 3.5 is compliant,
// 2.5 is conditionally compliant.
func Classify(score float64) ComplianceStatus {
	switch {
	case score >= CompliantMin:
		return Compliant
	case score >= ConditionalMin:
		return ConditionallyCompliant
	default:
		return NonCompliant
	}
}

// Average computes the unweighted mean score over instruments that have a
// final score. An empty eligible set yields 0: absence of data is a valid,
// reportable state, not an error.
func Average(items []Scorable) float64 {
	var sum float64
	var n int
	for _, it := range items {
		if s, ok := it.FinalScore(); ok {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// WeightedAverage computes the weight-adjusted mean score over instruments
// that have a final score. Instruments without an explicit weight count as
// weight 1. Returns 0 when the eligible set is empty or the total weight
// is zero.
func WeightedAverage(items []Scorable) float64 {
	var weightedSum, totalWeight float64
	for _, it := range items {
		s, ok := it.FinalScore()
		if !ok {
			continue
		}
		w := it.ScoreWeight()
		weightedSum += s * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Distribution counts eligible instruments per compliance bucket.
type Distribution struct {
	Compliant              int `json:"compliant"`
	ConditionallyCompliant int `json:"conditionally_compliant"`
	NonCompliant           int `json:"non_compliant"`

	// Total is the eligible count, not the grand instrument count.
	// Instruments without a score are silently excluded.
	Total int `json:"total"`
}

// Distribute classifies every eligible instrument and counts by bucket.
func Distribute(items []Scorable) Distribution {
	var d Distribution
	for _, it := range items {
		s, ok := it.FinalScore()
		if !ok {
			continue
		}
		switch Classify(s) {
		case Compliant:
			d.Compliant++
		case ConditionallyCompliant:
			d.ConditionallyCompliant++
		case NonCompliant:
			d.NonCompliant++
		}
		d.Total++
	}
	return d
}
