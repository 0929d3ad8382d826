package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"pointing-poker/internal/domain"
)

const (
	keyPrefix    = "session#"
	keySeparator = "#"
)

// BadgerStore keeps session partitions in an embedded badger database using
// the same record layout as the DynamoDB table. Records live under
// "session#<sessionID>#<id>" so a prefix scan plays the role of the partition query.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open badger database.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	if db == nil {
		return nil, errors.New("repository: badger db must not be nil")
	}
	return &BadgerStore{db: db}, nil
}

// validKeyPart reports whether s can be embedded in a record key without
// colliding with another partition.
func validKeyPart(s string) bool {
	return s != "" && !strings.Contains(s, keySeparator)
}

func partitionPrefix(sessionID string) []byte {
	return []byte(keyPrefix + sessionID + keySeparator)
}

func recordKeyBytes(sessionID, id string) []byte {
	return []byte(keyPrefix + sessionID + keySeparator + id)
}

func jsonDecoder(b []byte) decodeFunc {
	return func(v any) error {
		return json.Unmarshal(b, v)
	}
}

func (s *BadgerStore) put(ctx context.Context, key []byte, rec any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, b)
	})
}

// Create writes the session record. An existing record with the same id is replaced.
func (s *BadgerStore) Create(ctx context.Context, session domain.Session) error {
	if !validKeyPart(session.ID) {
		return fmt.Errorf("repository: Create: invalid session id %q", session.ID)
	}
	if err := s.put(ctx, recordKeyBytes(session.ID, session.ID), newSessionRecord(session)); err != nil {
		return fmt.Errorf("repository: Create: %w", err)
	}
	return nil
}

// Get scans the session partition and assembles the session with its participants.
func (s *BadgerStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repository: Get: %w", err)
	}
	if !validKeyPart(sessionID) {
		return nil, nil
	}

	var records []decodeFunc
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := partitionPrefix(sessionID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			b, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			records = append(records, jsonDecoder(b))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Get scan: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	session, err := assembleSession(sessionID, records)
	if err != nil {
		return nil, fmt.Errorf("repository: Get: %w", err)
	}
	return session, nil
}

// GetParticipant looks up a single participant record. Keys holding a record of
// another type are reported as absent.
func (s *BadgerStore) GetParticipant(ctx context.Context, sessionID, participantID string) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repository: GetParticipant: %w", err)
	}
	if !validKeyPart(sessionID) || !validKeyPart(participantID) {
		return nil, nil
	}

	var b []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKeyBytes(sessionID, participantID))
		if err != nil {
			return err
		}
		b, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: GetParticipant get: %w", err)
	}

	decode := jsonDecoder(b)
	_, rt, err := recordType(decode)
	if err != nil {
		return nil, fmt.Errorf("repository: GetParticipant: %w", err)
	}
	if rt != domain.RecordTypeParticipant {
		return nil, nil
	}
	var rec participantRecord
	if err := decodeRecord(decode, &rec, "participant record"); err != nil {
		return nil, fmt.Errorf("repository: GetParticipant: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

// AddParticipant writes a participant record, replacing any record with the same id.
func (s *BadgerStore) AddParticipant(ctx context.Context, sessionID string, participant domain.Participant) error {
	if err := checkParticipantKey(sessionID, participant.ID); err != nil {
		return fmt.Errorf("repository: AddParticipant: %w", err)
	}
	if !validKeyPart(sessionID) || !validKeyPart(participant.ID) {
		return fmt.Errorf("repository: AddParticipant: ids must not contain %q", keySeparator)
	}
	if err := s.put(ctx, recordKeyBytes(sessionID, participant.ID), newParticipantRecord(sessionID, participant)); err != nil {
		return fmt.Errorf("repository: AddParticipant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes a participant record. Deleting a missing key is not an error.
func (s *BadgerStore) RemoveParticipant(ctx context.Context, sessionID, participantID string) error {
	if err := checkParticipantKey(sessionID, participantID); err != nil {
		return fmt.Errorf("repository: RemoveParticipant: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repository: RemoveParticipant: %w", err)
	}
	if !validKeyPart(sessionID) || !validKeyPart(participantID) {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKeyBytes(sessionID, participantID))
	})
	if err != nil {
		return fmt.Errorf("repository: RemoveParticipant: %w", err)
	}
	return nil
}
