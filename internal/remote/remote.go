// Package remote defines the contract with the remote document store and the
// auth collaborator: a narrow client interface, a fire-and-forget outbox that
// decouples local-state correctness from remote completion, and a reference
// HTTP client/server pair.
package remote

import (
	"context"

	"github.com/hpungsan/shard/internal/project"
)

// Client is the remote document-store contract consumed by the project store.
// Implementations are keyed by an authenticated identity; the wire protocol
// is their concern.
type Client interface {
	// ListAll returns every project stored for the identity.
	ListAll(ctx context.Context, identity string) ([]project.Project, error)

	// Upsert creates or replaces the remote copy of a project.
	Upsert(ctx context.Context, identity string, p project.Project) error

	// Delete removes the remote copy of a project. Deleting an unknown id
	// is not an error.
	Delete(ctx context.Context, identity string, projectID string) error
}

// AuthEvent is one entry of the identity-change notification stream.
type AuthEvent struct {
	SignedIn bool
	Identity string // set when SignedIn
}

// AuthNotifier fans identity-change events out to subscribers. The zero
// value is ready to use.
type AuthNotifier struct {
	subs []chan AuthEvent
}

// Subscribe returns a channel receiving future auth events. The channel is
// buffered so a slow subscriber cannot block sign-in.
func (n *AuthNotifier) Subscribe() <-chan AuthEvent {
	ch := make(chan AuthEvent, 8)
	n.subs = append(n.subs, ch)
	return ch
}

// SignedIn notifies subscribers that identity is now active.
func (n *AuthNotifier) SignedIn(identity string) {
	n.broadcast(AuthEvent{SignedIn: true, Identity: identity})
}

// SignedOut notifies subscribers that the session reverted to guest.
func (n *AuthNotifier) SignedOut() {
	n.broadcast(AuthEvent{})
}

// Close closes all subscriber channels.
func (n *AuthNotifier) Close() {
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}

func (n *AuthNotifier) broadcast(ev AuthEvent) {
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; drop rather than block.
		}
	}
}
