// Package chats derives per-user inbox views from conversation records.
package chats

import (
	"sort"

	"marketplace-service/internal/models"
)

// HasUnread reports whether the conversation carries a message the user has
// not seen. A conversation whose last message the user sent is never unread.
func HasUnread(c models.Conversation, userID string) bool {
	return c.LastUnread && c.LastSender != userID
}

// Counterpart returns the other participant of the conversation.
func Counterpart(c models.Conversation, userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// CounterpartIDs returns the distinct other participants across the user's
// conversations, in first-seen order.
func CounterpartIDs(convs []models.Conversation, userID string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range convs {
		other := Counterpart(c, userID)
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids
}

// BuildInbox turns raw conversation rows into the user's inbox view, attaching
// unread and counterpart-presence state, sorted unread first and then by most
// recent update.
func BuildInbox(convs []models.Conversation, userID string, online map[string]bool) []models.ConversationSummary {
	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		other := Counterpart(c, userID)
		summaries = append(summaries, models.ConversationSummary{
			ConversationID: c.ID,
			AdID:           c.AdID,
			CounterpartID:  other,
			LastMessage:    c.LastMessage,
			LastSender:     c.LastSender,
			LastUnread:     c.LastUnread,
			HasUnread:      HasUnread(c, userID),
			Online:         online[other],
			UpdatedAt:      c.UpdatedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].HasUnread != summaries[j].HasUnread {
			return summaries[i].HasUnread
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries
}

// TotalUnread counts the conversations with something unseen by the user.
func TotalUnread(convs []models.Conversation, userID string) int {
	total := 0
	for _, c := range convs {
		if HasUnread(c, userID) {
			total++
		}
	}
	return total
}
