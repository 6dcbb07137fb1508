package domain

import "errors"

// Error taxonomy shared by every layer. Wrap with fmt.Errorf("...: %w", Err...)
// and classify with errors.Is at the edge.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidWebhook  = errors.New("invalid webhook")
	ErrUpstream        = errors.New("upstream unavailable")
)
