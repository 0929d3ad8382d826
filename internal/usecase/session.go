package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"pointing-poker/internal/domain"
)

const defaultSessionTTL = 24 * time.Hour

var validate = validator.New()

// SessionStore is the persistence contract the service depends on.
// Get and GetParticipant return nil with a nil error when nothing is stored.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetParticipant(ctx context.Context, sessionID, participantID string) (*domain.Participant, error)
	AddParticipant(ctx context.Context, sessionID string, participant domain.Participant) error
	RemoveParticipant(ctx context.Context, sessionID, participantID string) error
}

// SessionService runs the session use cases on top of a SessionStore. It owns
// identifier and timestamp generation and the rules the store does not enforce.
type SessionService struct {
	store      SessionStore
	sessionTTL time.Duration
	log        *slog.Logger
}

func NewSessionService(store SessionStore, sessionTTL time.Duration, log *slog.Logger) (*SessionService, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{store: store, sessionTTL: sessionTTL, log: log}, nil
}

// CreateSession validates the description and persists a new open session.
func (s *SessionService) CreateSession(ctx context.Context, desc domain.SessionDescription) (domain.Session, error) {
	desc.Name = strings.TrimSpace(desc.Name)
	if err := validate.Struct(desc); err != nil {
		return domain.Session{}, newError(ErrorInvalidInput, validationReason(err), err)
	}

	createdAt := now()
	session := domain.Session{
		ID:             newUUID(),
		Name:           desc.Name,
		CreatedAt:      createdAt,
		IsOpen:         true,
		PointingMin:    desc.PointingMin,
		PointingMax:    desc.PointingMax,
		Expiration:     createdAt.Add(s.sessionTTL).Unix(),
		ReviewingIssue: desc.ReviewingIssue,
		Participants:   []domain.Participant{},
	}
	if err := s.store.Create(ctx, session); err != nil {
		return domain.Session{}, storeError("create_session", err)
	}

	s.log.InfoContext(ctx, "session created",
		slog.String("session_id", session.ID),
		slog.Int("pointing_min", session.PointingMin),
		slog.Int("pointing_max", session.PointingMax),
	)
	return session, nil
}

// Session returns the session with its participants.
func (s *SessionService) Session(ctx context.Context, sessionID string) (domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Session{}, newError(ErrorInvalidInput, "empty_session_id", nil)
	}
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, storeError("get_session", err)
	}
	if session == nil {
		return domain.Session{}, newError(ErrorNotFound, "session_not_found", nil)
	}
	return *session, nil
}

// JoinSession adds a new non-moderator participant to an open session.
func (s *SessionService) JoinSession(ctx context.Context, sessionID string, desc domain.ParticipantDescription) (domain.Participant, error) {
	desc.Name = strings.TrimSpace(desc.Name)
	if err := validate.Struct(desc); err != nil {
		return domain.Participant{}, newError(ErrorInvalidInput, validationReason(err), err)
	}
	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return domain.Participant{}, err
	}

	participant := domain.Participant{
		ID:          newUUID(),
		Name:        desc.Name,
		IsModerator: false,
		CurrentVote: nil,
		Expiration:  session.Expiration,
	}
	if err := s.store.AddParticipant(ctx, session.ID, participant); err != nil {
		return domain.Participant{}, storeError("add_participant", err)
	}
	return participant, nil
}

// CloseSession moves an open session to closed. Closing a closed session is a no-op.
func (s *SessionService) CloseSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.IsOpen {
		return session, nil
	}

	session.IsOpen = false
	if err := s.store.Create(ctx, session); err != nil {
		return domain.Session{}, storeError("close_session", err)
	}

	s.log.InfoContext(ctx, "session closed",
		slog.String("session_id", session.ID),
		slog.Int("participants", len(session.Participants)),
	)
	return session, nil
}

// LeaveSession removes a participant. Removing an absent participant succeeds.
func (s *SessionService) LeaveSession(ctx context.Context, sessionID, participantID string) error {
	sessionID = strings.TrimSpace(sessionID)
	participantID = strings.TrimSpace(participantID)
	if sessionID == "" || participantID == "" {
		return newError(ErrorInvalidInput, "empty_id", nil)
	}
	if sessionID == participantID {
		return newError(ErrorInvalidInput, "participant_is_session", nil)
	}
	if err := s.store.RemoveParticipant(ctx, sessionID, participantID); err != nil {
		return storeError("remove_participant", err)
	}
	return nil
}

// CastVote records a participant's vote. The vote must lie within the
// session's pointing range and the session must be open. Concurrent votes by
// the same participant are last-writer-wins.
func (s *SessionService) CastVote(ctx context.Context, sessionID, participantID string, vote int) (domain.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.Participant{}, newError(ErrorInvalidInput, "empty_participant_id", nil)
	}
	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return domain.Participant{}, err
	}
	if !session.VoteInRange(vote) {
		return domain.Participant{}, newError(ErrorInvalidInput, "vote_out_of_range",
			fmt.Errorf("vote %d outside [%d, %d]", vote, session.PointingMin, session.PointingMax))
	}

	participant, err := s.store.GetParticipant(ctx, session.ID, participantID)
	if err != nil {
		return domain.Participant{}, storeError("get_participant", err)
	}
	if participant == nil {
		return domain.Participant{}, newError(ErrorNotFound, "participant_not_found", nil)
	}

	participant.CurrentVote = lo.ToPtr(vote)
	participant.Expiration = session.Expiration
	if err := s.store.AddParticipant(ctx, session.ID, *participant); err != nil {
		return domain.Participant{}, storeError("save_vote", err)
	}
	return *participant, nil
}

func (s *SessionService) openSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.IsOpen {
		return domain.Session{}, newError(ErrorSessionClosed, "session_closed", nil)
	}
	return session, nil
}

// validationReason names the first failed field and rule, e.g. "pointingmax_gtefield".
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field()) + "_" + verrs[0].Tag()
	}
	return "invalid_payload"
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = func() time.Time {
	return time.Now().UTC()
}
