package http

import (
	"context"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// allReady is ready when every check passes.
type allReady []sharedobs.ReadinessChecker

// AllReady combines readiness checks; the first failure is reported.
func AllReady(checks ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return allReady(checks)
}

func (a allReady) CheckReadiness(ctx context.Context) error {
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
