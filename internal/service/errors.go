package service

import "errors"

var (
	// ErrUnknownSource is returned when a request names a source that is not configured.
	ErrUnknownSource = errors.New("unknown source")
	// ErrInsufficientRecords is returned when a caller demands more history than is available.
	ErrInsufficientRecords = errors.New("insufficient records")
	// ErrNoOpenPrediction is returned when an outcome arrives with no unsettled forecast to attach to.
	ErrNoOpenPrediction = errors.New("no open prediction")
)
