// Package messaging defines standard subject names for the gateway
// notification bus.
package messaging

// Subject constants for the gateway message bus.
const (
	// SubjectClaimEvents carries serialized claim lifecycle events
	// (received, status changed, workflow advanced). Downstream
	// services subscribe to react to claim transitions.
	SubjectClaimEvents = "claim.events"

	// SubjectRegistryEvents carries service registry changes
	// (register, unregister, marked down).
	SubjectRegistryEvents = "registry.events"
)

// Queue group names for load-balanced consumers.
const (
	// QueueClaimWorkers is the pool of downstream claim processors.
	QueueClaimWorkers = "claim-workers"
)

// ClaimEventSubject returns the per-claim subject for targeted
// subscriptions. Example: claim.events.UI-2024-001
func ClaimEventSubject(claimReferenceID string) string {
	return SubjectClaimEvents + "." + claimReferenceID
}
