package chat

import "errors"

var (
	// ErrStorageUnavailable marks a failed read or write against the
	// durable conversation store on the primary reply path.
	ErrStorageUnavailable = errors.New("conversation storage unavailable")

	// ErrModelUnavailable marks a failed language-model call. The primary
	// reply path degrades to a placeholder instead of surfacing this.
	ErrModelUnavailable = errors.New("language model unavailable")
)
