package notify

import (
	"context"
	"slices"
	"sync"

	"bloodlink/pkg/types"
)

const defaultInboxSize = 50

// Inbox keeps the most recent notifications per recipient for collaborators
// that poll rather than receive pushes.
type Inbox struct {
	size int

	mu      sync.RWMutex
	entries map[string][]types.Notification
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{size: size, entries: make(map[string][]types.Notification)}
}

func (i *Inbox) Name() string { return "inbox" }

func (i *Inbox) Deliver(_ context.Context, event types.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, recipientID := range event.RecipientIDs {
		list := append(i.entries[recipientID], Render(event, recipientID))
		if len(list) > i.size {
			list = list[len(list)-i.size:]
		}
		i.entries[recipientID] = list
	}
	return nil
}

// MarkRead flags one of the recipient's notifications as read.
func (i *Inbox) MarkRead(recipientID, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	j := i.index(recipientID, eventID)
	if j < 0 {
		return types.ErrNotificationNotFound
	}
	i.entries[recipientID][j].Read = true
	return nil
}

// Delete removes one of the recipient's notifications.
func (i *Inbox) Delete(recipientID, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	j := i.index(recipientID, eventID)
	if j < 0 {
		return types.ErrNotificationNotFound
	}
	i.entries[recipientID] = slices.Delete(i.entries[recipientID], j, j+1)
	return nil
}

// index must be called with mu held.
func (i *Inbox) index(recipientID, eventID string) int {
	for j, n := range i.entries[recipientID] {
		if n.EventID == eventID {
			return j
		}
	}
	return -1
}

// List returns up to limit notifications for a recipient, newest first.
// limit <= 0 returns everything retained.
func (i *Inbox) List(recipientID string, limit int) []types.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	list := i.entries[recipientID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]types.Notification, 0, limit)
	for j := len(list) - 1; j >= 0 && len(out) < limit; j-- {
		out = append(out, list[j])
	}
	return out
}
