// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"strings"
	"time"
)

// SessionStats aggregates a finished session for the archive.
type SessionStats struct {
	// Total is the number of cases in the session.
	Total int `json:"total" yaml:"total"`

	// Completed counts cases that reached success.
	Completed int `json:"completed" yaml:"completed"`

	// AvgExtraction is the mean extraction duration over cases that
	// completed an extraction attempt.
	AvgExtraction time.Duration `json:"avg_extraction" yaml:"avg_extraction"`
}

// HistoricalSession is the append-only archive record written at session
// reset. Never mutated after creation.
type HistoricalSession struct {
	// SessionID is derived from wall-clock time (base-36, upper case).
	SessionID string `json:"session_id" yaml:"session_id"`

	// Timestamp is when the session was archived.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Cases snapshots every case as it stood at reset.
	Cases []CaseRecord `json:"cases" yaml:"cases"`

	// Stats aggregates the session.
	Stats SessionStats `json:"stats" yaml:"stats"`
}

// NewSessionID returns an archive session identifier for the given time.
func NewSessionID(t time.Time) string {
	return strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}

// NewHistoricalSession snapshots cases into an archive record, computing
// aggregate stats.
func NewHistoricalSession(now time.Time, cases []CaseRecord) *HistoricalSession {
	s := &HistoricalSession{
		SessionID: NewSessionID(now),
		Timestamp: now,
		Cases:     cases,
	}
	s.Stats.Total = len(cases)

	var sum time.Duration
	var timed int
	for _, c := range cases {
		if c.Status == CaseSuccess {
			s.Stats.Completed++
		}
		if d := c.Timing.ExtractionDuration(); d > 0 {
			sum += d
			timed++
		}
	}
	if timed > 0 {
		s.Stats.AvgExtraction = sum / time.Duration(timed)
	}
	return s
}
