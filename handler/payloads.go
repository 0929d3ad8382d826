package handler

// Inbound events are the direct-invocation payloads of each function.

type ReviewingIssuePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type SessionDescriptionPayload struct {
	Name           string                `json:"name"`
	PointingMin    *int                  `json:"pointingMin"`
	PointingMax    *int                  `json:"pointingMax"`
	ReviewingIssue ReviewingIssuePayload `json:"reviewingIssue"`
}

type CreateSessionEvent struct {
	SessionDescription SessionDescriptionPayload `json:"sessionDescription"`
}

type SessionEvent struct {
	SessionID string `json:"sessionID"`
}

type ParticipantPayload struct {
	Name string `json:"name"`
}

type JoinSessionEvent struct {
	SessionID   string             `json:"sessionID"`
	Participant ParticipantPayload `json:"participant"`
}

type LeaveSessionEvent struct {
	SessionID     string `json:"sessionID"`
	ParticipantID string `json:"participantID"`
}

type CastVoteEvent struct {
	SessionID     string `json:"sessionID"`
	ParticipantID string `json:"participantID"`
	Vote          *int   `json:"vote"`
}

type ParticipantResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsModerator bool   `json:"isModerator"`
	CurrentVote *int   `json:"currentVote"`
}

type SessionResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	CreatedAt      string                `json:"createdAt"`
	IsOpen         bool                  `json:"isOpen"`
	PointingMin    int                   `json:"pointingMin"`
	PointingMax    int                   `json:"pointingMax"`
	Expiration     int64                 `json:"expiration"`
	ReviewingIssue ReviewingIssuePayload `json:"reviewingIssue"`
	Participants   []ParticipantResponse `json:"participants"`
}

type LeaveSessionResponse struct {
	SessionID     string `json:"sessionID"`
	ParticipantID string `json:"participantID"`
}
