package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambda/messages"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/samber/lo"

	"pointing-poker/internal/config"
	"pointing-poker/internal/domain"
	"pointing-poker/internal/usecase"
)

// SessionUseCase is the service surface the Lambda functions delegate to.
type SessionUseCase interface {
	CreateSession(ctx context.Context, desc domain.SessionDescription) (domain.Session, error)
	Session(ctx context.Context, sessionID string) (domain.Session, error)
	JoinSession(ctx context.Context, sessionID string, desc domain.ParticipantDescription) (domain.Participant, error)
	CloseSession(ctx context.Context, sessionID string) (domain.Session, error)
	LeaveSession(ctx context.Context, sessionID, participantID string) error
	CastVote(ctx context.Context, sessionID, participantID string, vote int) (domain.Participant, error)
}

type Handler struct {
	uc      SessionUseCase
	timeout time.Duration
	log     *slog.Logger
}

func NewHandler(uc SessionUseCase, timeout time.Duration, log *slog.Logger) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if timeout <= 0 {
		return nil, errors.New("handler: timeout must be positive")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{uc: uc, timeout: timeout, log: log}, nil
}

// For returns the Lambda handler function serving op.
func (h *Handler) For(op config.Operation) (any, error) {
	switch op {
	case config.OperationCreateSession:
		return h.CreateSession, nil
	case config.OperationSession:
		return h.Session, nil
	case config.OperationJoinSession:
		return h.JoinSession, nil
	case config.OperationCloseSession:
		return h.CloseSession, nil
	case config.OperationLeaveSession:
		return h.LeaveSession, nil
	case config.OperationCastVote:
		return h.CastVote, nil
	default:
		return nil, fmt.Errorf("handler: unsupported operation %q", op)
	}
}

func (h *Handler) CreateSession(ctx context.Context, ev CreateSessionEvent) (SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	d := ev.SessionDescription
	if d.PointingMin == nil || d.PointingMax == nil {
		return SessionResponse{}, h.fail(ctx, config.OperationCreateSession,
			&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_pointing_range"})
	}
	session, err := h.uc.CreateSession(ctx, domain.SessionDescription{
		Name:        d.Name,
		PointingMin: *d.PointingMin,
		PointingMax: *d.PointingMax,
		ReviewingIssue: domain.ReviewingIssue{
			Title:       d.ReviewingIssue.Title,
			Description: d.ReviewingIssue.Description,
			URL:         d.ReviewingIssue.URL,
		},
	})
	if err != nil {
		return SessionResponse{}, h.fail(ctx, config.OperationCreateSession, err)
	}
	return toSessionResponse(session), nil
}

func (h *Handler) Session(ctx context.Context, ev SessionEvent) (SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	session, err := h.uc.Session(ctx, ev.SessionID)
	if err != nil {
		return SessionResponse{}, h.fail(ctx, config.OperationSession, err)
	}
	return toSessionResponse(session), nil
}

func (h *Handler) JoinSession(ctx context.Context, ev JoinSessionEvent) (ParticipantResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	participant, err := h.uc.JoinSession(ctx, ev.SessionID, domain.ParticipantDescription{Name: ev.Participant.Name})
	if err != nil {
		return ParticipantResponse{}, h.fail(ctx, config.OperationJoinSession, err)
	}
	return toParticipantResponse(participant), nil
}

func (h *Handler) CloseSession(ctx context.Context, ev SessionEvent) (SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	session, err := h.uc.CloseSession(ctx, ev.SessionID)
	if err != nil {
		return SessionResponse{}, h.fail(ctx, config.OperationCloseSession, err)
	}
	return toSessionResponse(session), nil
}

func (h *Handler) LeaveSession(ctx context.Context, ev LeaveSessionEvent) (LeaveSessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.uc.LeaveSession(ctx, ev.SessionID, ev.ParticipantID); err != nil {
		return LeaveSessionResponse{}, h.fail(ctx, config.OperationLeaveSession, err)
	}
	return LeaveSessionResponse{SessionID: ev.SessionID, ParticipantID: ev.ParticipantID}, nil
}

func (h *Handler) CastVote(ctx context.Context, ev CastVoteEvent) (ParticipantResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if ev.Vote == nil {
		return ParticipantResponse{}, h.fail(ctx, config.OperationCastVote,
			&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_vote"})
	}
	participant, err := h.uc.CastVote(ctx, ev.SessionID, ev.ParticipantID, *ev.Vote)
	if err != nil {
		return ParticipantResponse{}, h.fail(ctx, config.OperationCastVote, err)
	}
	return toParticipantResponse(participant), nil
}

// fail logs err and converts it into a Lambda error whose errorType is the
// use case error code. Reasons of uncoded errors are not exposed to callers.
func (h *Handler) fail(ctx context.Context, op config.Operation, err error) error {
	code := usecase.CodeOf(err)
	reason := "internal_error"
	var ue *usecase.Error
	if errors.As(err, &ue) {
		reason = ue.Reason
	}

	attrs := []any{
		slog.String("operation", string(op)),
		slog.String("code", string(code)),
		slog.String("reason", reason),
		slog.Any("err", err),
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		attrs = append(attrs, slog.String("request_id", lc.AwsRequestID))
	}
	switch code {
	case usecase.ErrorInvalidInput, usecase.ErrorNotFound, usecase.ErrorSessionClosed:
		h.log.WarnContext(ctx, "request rejected", attrs...)
	default:
		h.log.ErrorContext(ctx, "request failed", attrs...)
	}

	return messages.InvokeResponse_Error{Type: string(code), Message: reason}
}

func toSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
		IsOpen:      s.IsOpen,
		PointingMin: s.PointingMin,
		PointingMax: s.PointingMax,
		Expiration:  s.Expiration,
		ReviewingIssue: ReviewingIssuePayload{
			Title:       s.ReviewingIssue.Title,
			Description: s.ReviewingIssue.Description,
			URL:         s.ReviewingIssue.URL,
		},
		Participants: lo.Map(s.Participants, func(p domain.Participant, _ int) ParticipantResponse {
			return toParticipantResponse(p)
		}),
	}
}

func toParticipantResponse(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		Name:        p.Name,
		IsModerator: p.IsModerator,
		CurrentVote: p.CurrentVote,
	}
}
