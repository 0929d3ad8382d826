package domain

import (
	"fmt"
	"time"
)

// ReviewingIssue is the work item a session estimates.
type ReviewingIssue struct {
	Title       string `validate:"required,max=512"`
	Description string `validate:"max=4096"`
	URL         string `validate:"omitempty,url"`
}

// Session is one estimation round. Participants is only populated when the
// session is read back from the store.
type Session struct {
	ID             string
	Name           string
	CreatedAt      time.Time
	IsOpen         bool
	PointingMin    int
	PointingMax    int
	Expiration     int64
	ReviewingIssue ReviewingIssue
	Participants   []Participant
}

// Participant is a voter (or moderator) attached to a session. Expiration
// mirrors the owning session's so a per-item TTL clears the whole partition.
type Participant struct {
	ID          string
	Name        string
	IsModerator bool
	CurrentVote *int
	Expiration  int64
}

// SessionDescription carries the caller-supplied fields of a new session.
// Identifiers, timestamps and state are assigned by the service.
type SessionDescription struct {
	Name           string         `validate:"required,max=256"`
	PointingMin    int            `validate:"gte=0"`
	PointingMax    int            `validate:"gtefield=PointingMin"`
	ReviewingIssue ReviewingIssue
}

// ParticipantDescription carries the caller-supplied fields of a joining participant.
type ParticipantDescription struct {
	Name string `validate:"required,max=128"`
}

// RecordType discriminates the record shapes stored under one session partition.
type RecordType string

const (
	RecordTypeSession     RecordType = "session"
	RecordTypeParticipant RecordType = "participant"
)

// ParseRecordType returns the RecordType named by s, or an error for any
// value outside the closed set.
func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(s) {
	case RecordTypeSession, RecordTypeParticipant:
		return RecordType(s), nil
	default:
		return "", fmt.Errorf("domain: unknown record type %q", s)
	}
}

// VoteInRange reports whether vote lies within the session's pointing range.
func (s Session) VoteInRange(vote int) bool {
	return vote >= s.PointingMin && vote <= s.PointingMax
}
