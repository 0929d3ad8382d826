package repository

import (
	"errors"
	"fmt"
	"time"

	"pointing-poker/internal/domain"
)

// ErrInconsistentState reports a partition whose records cannot be assembled
// into a session: participants without a session record, a session record
// keyed under a foreign partition, an unknown record type, or a record that
// does not decode.
var ErrInconsistentState = errors.New("repository: inconsistent session state")

// recordKey is the header shared by every record in a session partition.
type recordKey struct {
	SessionID string `dynamodbav:"sessionID" json:"sessionID"`
	ID        string `dynamodbav:"id" json:"id"`
	Type      string `dynamodbav:"type" json:"type"`
}

type sessionRecord struct {
	SessionID                 string `dynamodbav:"sessionID" json:"sessionID"`
	ID                        string `dynamodbav:"id" json:"id"`
	Type                      string `dynamodbav:"type" json:"type"`
	Name                      string `dynamodbav:"name" json:"name"`
	CreatedAt                 string `dynamodbav:"createdAt" json:"createdAt"`
	IsOpen                    bool   `dynamodbav:"isOpen" json:"isOpen"`
	PointingMin               int    `dynamodbav:"pointingMin" json:"pointingMin"`
	PointingMax               int    `dynamodbav:"pointingMax" json:"pointingMax"`
	Expiration                int64  `dynamodbav:"expiration" json:"expiration"`
	ReviewingIssueTitle       string `dynamodbav:"reviewingIssueTitle" json:"reviewingIssueTitle"`
	ReviewingIssueDescription string `dynamodbav:"reviewingIssueDescription" json:"reviewingIssueDescription"`
	ReviewingIssueURL         string `dynamodbav:"reviewingIssueURL" json:"reviewingIssueURL"`
}

type participantRecord struct {
	SessionID   string `dynamodbav:"sessionID" json:"sessionID"`
	ID          string `dynamodbav:"id" json:"id"`
	Type        string `dynamodbav:"type" json:"type"`
	Name        string `dynamodbav:"name" json:"name"`
	IsModerator bool   `dynamodbav:"isModerator" json:"isModerator"`
	CurrentVote *int   `dynamodbav:"currentVote" json:"currentVote"`
	Expiration  int64  `dynamodbav:"expiration,omitempty" json:"expiration,omitempty"`
}

// checkParticipantKey rejects keys that would address the session record itself.
func checkParticipantKey(sessionID, participantID string) error {
	if sessionID == "" || participantID == "" {
		return errors.New("session id and participant id are required")
	}
	if sessionID == participantID {
		return errors.New("participant id must differ from session id")
	}
	return nil
}

// decodeFunc decodes one stored record into v. Each backend supplies its own.
type decodeFunc func(v any) error

// decodeRecord runs decode and reports a failure as stored data that cannot be
// read, not as a backend error.
func decodeRecord(decode decodeFunc, v any, what string) error {
	if err := decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInconsistentState, what, err)
	}
	return nil
}

func newSessionRecord(s domain.Session) sessionRecord {
	return sessionRecord{
		SessionID:                 s.ID,
		ID:                        s.ID,
		Type:                      string(domain.RecordTypeSession),
		Name:                      s.Name,
		CreatedAt:                 s.CreatedAt.UTC().Format(time.RFC3339Nano),
		IsOpen:                    s.IsOpen,
		PointingMin:               s.PointingMin,
		PointingMax:               s.PointingMax,
		Expiration:                s.Expiration,
		ReviewingIssueTitle:       s.ReviewingIssue.Title,
		ReviewingIssueDescription: s.ReviewingIssue.Description,
		ReviewingIssueURL:         s.ReviewingIssue.URL,
	}
}

func newParticipantRecord(sessionID string, p domain.Participant) participantRecord {
	return participantRecord{
		SessionID:   sessionID,
		ID:          p.ID,
		Type:        string(domain.RecordTypeParticipant),
		Name:        p.Name,
		IsModerator: p.IsModerator,
		CurrentVote: p.CurrentVote,
		Expiration:  p.Expiration,
	}
}

func (r sessionRecord) toDomain() (domain.Session, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: session %q createdAt %q: %v", ErrInconsistentState, r.ID, r.CreatedAt, err)
	}
	return domain.Session{
		ID:          r.SessionID,
		Name:        r.Name,
		CreatedAt:   createdAt,
		IsOpen:      r.IsOpen,
		PointingMin: r.PointingMin,
		PointingMax: r.PointingMax,
		Expiration:  r.Expiration,
		ReviewingIssue: domain.ReviewingIssue{
			Title:       r.ReviewingIssueTitle,
			Description: r.ReviewingIssueDescription,
			URL:         r.ReviewingIssueURL,
		},
		Participants: []domain.Participant{},
	}, nil
}

func (r participantRecord) toDomain() domain.Participant {
	return domain.Participant{
		ID:          r.ID,
		Name:        r.Name,
		IsModerator: r.IsModerator,
		CurrentVote: r.CurrentVote,
		Expiration:  r.Expiration,
	}
}

// recordType decodes the header of a record and resolves its discriminator.
func recordType(decode decodeFunc) (recordKey, domain.RecordType, error) {
	var key recordKey
	if err := decodeRecord(decode, &key, "record key"); err != nil {
		return recordKey{}, "", err
	}
	rt, err := domain.ParseRecordType(key.Type)
	if err != nil {
		return recordKey{}, "", fmt.Errorf("%w: record %q: %v", ErrInconsistentState, key.ID, err)
	}
	return key, rt, nil
}

// assembleSession demultiplexes the records of one partition into a session
// with its participants. records must be non-empty. Participant order follows
// the backend's iteration order and carries no meaning.
func assembleSession(sessionID string, records []decodeFunc) (*domain.Session, error) {
	var (
		sess         *sessionRecord
		participants = make([]domain.Participant, 0, len(records))
	)
	for _, decode := range records {
		key, rt, err := recordType(decode)
		if err != nil {
			return nil, err
		}
		switch rt {
		case domain.RecordTypeSession:
			if key.ID != sessionID || key.SessionID != sessionID {
				return nil, fmt.Errorf("%w: session record %q under partition %q", ErrInconsistentState, key.ID, sessionID)
			}
			var rec sessionRecord
			if err := decodeRecord(decode, &rec, "session record"); err != nil {
				return nil, err
			}
			sess = &rec
		case domain.RecordTypeParticipant:
			var rec participantRecord
			if err := decodeRecord(decode, &rec, fmt.Sprintf("participant record %q", key.ID)); err != nil {
				return nil, err
			}
			participants = append(participants, rec.toDomain())
		}
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %d participant record(s) without a session record in %q", ErrInconsistentState, len(participants), sessionID)
	}

	out, err := sess.toDomain()
	if err != nil {
		return nil, err
	}
	out.Participants = participants
	return &out, nil
}
