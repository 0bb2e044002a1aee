package async

import "context"

// Worker is a long running activity. Run blocks until ctx is cancelled and
// calls done right before returning.
type Worker interface {
	Run(ctx context.Context, done func())
	Shutdown()
}
