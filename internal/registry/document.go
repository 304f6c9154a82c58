// Package registry persists the set of chats the bot has seen, their news
// region preference and the durable completion records of one-shot tasks.
package registry

import (
	"slices"
	"time"
)

// Document is the whole persisted registry state.
type Document struct {
	// Users holds recipient chat IDs in first-seen order.
	Users []int64 `json:"users"`
	// Regions maps a chat ID to its news region code.
	Regions map[int64]string `json:"regions,omitempty"`
	// CompletedTasks maps a one-shot completion key to its completion time.
	CompletedTasks map[string]time.Time `json:"completed_tasks,omitempty"`
}

// Contains reports whether id is a known recipient.
func (d Document) Contains(id int64) bool {
	return slices.Contains(d.Users, id)
}

// normalize drops duplicate users while keeping the first occurrence.
func (d Document) normalize() Document {
	seen := make(map[int64]struct{}, len(d.Users))
	users := make([]int64, 0, len(d.Users))
	for _, id := range d.Users {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}
	d.Users = users
	return d
}
