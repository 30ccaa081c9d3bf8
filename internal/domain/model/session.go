package model

import (
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
)

// Session is one koun evening: the table being tallied, the tariffs that
// apply, the image label and the results of the last calculation.
type Session struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Table     Table          `json:"table"`
	Tariffs   Tariffs        `json:"tariffs"`
	Summary   *types.Summary `json:"summary,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	out.Table = s.Table.Clone()
	if s.Summary != nil {
		sum := *s.Summary
		out.Summary = &sum
	}
	if s.Warnings != nil {
		out.Warnings = append([]string(nil), s.Warnings...)
	}
	return out
}

// Invalidate drops the stored results after the table or tariffs changed.
func (s *Session) Invalidate() {
	s.Summary = nil
	s.Warnings = nil
}
