package core

import (
	"context"
)

// ShutdownFunc releases one resource when the service stops. It should
// honor the deadline of ctx.
type ShutdownFunc func(ctx context.Context) error
