// Package conversation is the session ledger: it tracks conversations and
// messages through the store and produces short-term history and
// deterministic summaries for the prompt composer.
package conversation

import (
	"context"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/google/uuid"
)

const (
	// recentConversationWindow bounds how many past conversations feed
	// short-term history.
	recentConversationWindow = 5
	// messagesPerConversation bounds how many messages each conversation
	// contributes.
	messagesPerConversation = 20
)

// Ledger provides conversation history operations on top of the store.
type Ledger struct {
	store registrystore.ChatStore
}

// NewLedger creates a Ledger.
func NewLedger(store registrystore.ChatStore) *Ledger {
	return &Ledger{store: store}
}

// Begin returns the conversation for the given session, starting one when
// needed, and registers the user on first contact.
func (l *Ledger) Begin(ctx context.Context, userID, sessionID string) (*model.Conversation, error) {
	if _, err := l.store.GetOrCreateUser(ctx, userID); err != nil {
		return nil, err
	}
	return l.store.StartConversation(ctx, userID, sessionID)
}

// Append records a message and updates the user's counters.
func (l *Ledger) Append(ctx context.Context, msg *model.Message, userID string) error {
	if err := l.store.AppendMessage(ctx, msg); err != nil {
		return err
	}
	return l.store.TouchUser(ctx, userID, 1)
}

// RecentHistory flattens the user's recent conversations into the last
// `limit` messages, oldest first. Each of the last few conversations
// contributes at most its first messages, so one very long conversation
// cannot crowd out the rest.
func (l *Ledger) RecentHistory(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	convs, err := l.store.ListConversations(ctx, userID, recentConversationWindow)
	if err != nil {
		return nil, err
	}

	// ListConversations is most-recent-first; walk oldest-first so the
	// flattened history stays chronological.
	var history []model.Message
	for i := len(convs) - 1; i >= 0; i-- {
		msgs, err := l.store.FirstMessages(ctx, convs[i].ID, messagesPerConversation)
		if err != nil {
			return nil, err
		}
		history = append(history, msgs...)
	}

	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

// Summarize builds the deterministic conversation report and persists it on
// the conversation row.
func (l *Ledger) Summarize(ctx context.Context, conversationID uuid.UUID) (string, error) {
	conv, err := l.store.GetConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	msgs, err := l.store.FirstMessages(ctx, conversationID, 200)
	if err != nil {
		return "", err
	}

	summary := BuildSummary(conv, msgs)
	if err := l.store.SetConversationSummary(ctx, conversationID, summary); err != nil {
		return "", err
	}
	return summary, nil
}
