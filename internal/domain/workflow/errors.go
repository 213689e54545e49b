package workflow

import (
	"errors"

	"github.com/brushline/paintquote/internal/domain/apperr"
)

var (
	// ErrInvalidTransition is matched by every rejected transition
	ErrInvalidTransition = apperr.ErrInvalidTransition

	// ErrInvalidState is returned when a status is not part of a table
	ErrInvalidState = errors.New("invalid state")
)
