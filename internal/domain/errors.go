package domain

import "errors"

var (
	// ErrMissingWord rejects a published card with no source term to derive
	// the canonical answer from.
	ErrMissingWord = errors.New("card is missing a word")
	// ErrMissingDefinition rejects a published card with no prompt text.
	ErrMissingDefinition = errors.New("card is missing a definition")
)
