package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingLanguage  = "missing_language"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Queue errors
	ErrCodeEnqueueFailed   = "enqueue_failed"
	ErrCodeAlreadyInDuel   = "already_in_duel"
	ErrCodeNoChallengePool = "no_challenge_available"
	ErrCodeQueuePollFailed = "queue_poll_failed"
	ErrCodeDequeueFailed   = "dequeue_failed"

	// Duel errors
	ErrCodeDuelNotFound   = "duel_not_found"
	ErrCodeDuelCompleted  = "duel_already_completed"
	ErrCodeNotParticipant = "not_a_participant"
	ErrCodeSubmitFailed   = "submit_failed"
	ErrCodeBotDuelFailed  = "bot_duel_failed"

	// Judging errors
	ErrCodeJudgeUnavailable = "judge_unavailable"

	// Rating / competition errors
	ErrCodeCompetitionNotFound     = "competition_not_found"
	ErrCodeCompetitionNotCompleted = "competition_not_completed"
	ErrCodeRatingsFinalized        = "ratings_already_finalized"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
