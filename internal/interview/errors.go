package interview

import "errors"

var (
	// ErrConfiguration means the manager cannot serve sessions at all,
	// for example because the question source is empty.
	ErrConfiguration = errors.New("interview misconfigured")
	// ErrSessionNotFound is returned for unknown or swept session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by Store.Create on an id collision.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionFinished is returned when an answer is submitted to a
	// session that has already answered every question.
	ErrSessionFinished = errors.New("interview already finished")
	// ErrInvalidInput covers missing or blank session ids and answers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrScoring wraps scorer failures and out-of-range scores.
	ErrScoring = errors.New("scoring failed")
)
