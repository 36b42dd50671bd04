// Package broker is the transport boundary that hands run descriptors to the
// orchestrator. The in-process queue below stands in for an external broker;
// consumers always acknowledge (a failed run is recorded on the run row, never
// redelivered, since redelivery would repeat non-idempotent artifact writes).
package broker

import (
	"context"

	"github.com/tanjoen/forenaide/internal/entity"
)

// Handler processes one delivered run descriptor.
type Handler interface {
	ProcessRun(ctx context.Context, desc entity.RunDescriptor) error
}

// Queue delivers run descriptors to a Handler.
type Queue interface {
	Enqueue(ctx context.Context, desc entity.RunDescriptor) error
	Shutdown(ctx context.Context)
}
