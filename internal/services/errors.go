package services

import types "github.com/yungbote/threadbot-backend/internal/domain"

// The taxonomy values live with the domain vocabulary so producers (the
// model client, the repos' service wrapper) and consumers (the HTTP layer)
// dispatch on the same sentinels.
var (
	ErrStorageUnavailable = types.ErrStorageUnavailable
	ErrModelUnavailable   = types.ErrModelUnavailable
)
