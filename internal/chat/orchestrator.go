// Package chat is the turn orchestrator: it receives a user message, pulls
// in memories, history, and persona, generates a reply, and persists the
// results. A turn never surfaces internal errors to the caller; every
// failure past input validation degrades to a fixed fallback reply.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/conversation"
	"github.com/empathai/chat-service/internal/memory"
	"github.com/empathai/chat-service/internal/model"
	"github.com/empathai/chat-service/internal/persona"
	"github.com/empathai/chat-service/internal/prompt"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/empathai/chat-service/internal/security"
)

// State is an orchestrator turn phase, used for logging and failure
// attribution.
type State string

const (
	StateReceived        State = "RECEIVED"
	StateClassified      State = "CLASSIFIED"
	StateMemoryResolved  State = "MEMORY_RESOLVED"
	StateHistoryResolved State = "HISTORY_RESOLVED"
	StatePromptBuilt     State = "PROMPT_BUILT"
	StateGenerated       State = "GENERATED"
	StatePersisted       State = "PERSISTED"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// FallbackReply is returned whenever a turn cannot produce a generated
// reply.
const FallbackReply = "I'm here to chat with you! Tell me about your day."

// FallbackModel is the modelUsed marker for fallback turns.
const FallbackModel = "fallback"

// extractedImportance is the importance assigned to memories mined from
// conversation text.
const extractedImportance = 0.5

// assistantConfidenceScale discounts candidates extracted from generated
// replies relative to the user's own words.
const assistantConfidenceScale = 0.8

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	ReplyText         string    `json:"replyText"`
	UserID            string    `json:"userId"`
	EmotionDetected   string    `json:"emotionDetected"`
	MemoriesUsedCount int       `json:"memoriesUsedCount"`
	Tone              string    `json:"tone"`
	ModelUsed         string    `json:"modelUsed"`
	SessionID         string    `json:"sessionId"`
	Timestamp         time.Time `json:"timestamp"`
}

// Options tune per-turn behavior.
type Options struct {
	// GenerateTimeout bounds the single generation attempt.
	GenerateTimeout time.Duration
	Temperature     float64
	MaxTokens       int
	// ShortTermMemorySize is the history window fed to the composer.
	ShortTermMemorySize int
	// SummaryWindowSize triggers a conversation summary every N messages.
	SummaryWindowSize int
	// AcceptThreshold is the minimum confidence for storing an extracted
	// memory.
	AcceptThreshold float64
}

// Orchestrator executes chat turns.
type Orchestrator struct {
	store     registrystore.ChatStore
	retriever *memory.Retriever
	ledger    *conversation.Ledger
	personas  *persona.Manager
	composer  *prompt.Composer
	generator registrygenerate.Generator
	opts      Options
}

// NewOrchestrator wires the turn pipeline together.
func NewOrchestrator(
	store registrystore.ChatStore,
	retriever *memory.Retriever,
	ledger *conversation.Ledger,
	personas *persona.Manager,
	composer *prompt.Composer,
	generator registrygenerate.Generator,
	opts Options,
) *Orchestrator {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 30 * time.Second
	}
	if opts.ShortTermMemorySize <= 0 {
		opts.ShortTermMemorySize = 10
	}
	if opts.SummaryWindowSize <= 0 {
		opts.SummaryWindowSize = 20
	}
	if opts.AcceptThreshold <= 0 {
		opts.AcceptThreshold = 0.4
	}
	return &Orchestrator{
		store:     store,
		retriever: retriever,
		ledger:    ledger,
		personas:  personas,
		composer:  composer,
		generator: generator,
		opts:      opts,
	}
}

// HandleTurn runs one full turn. The error return is reserved for invalid
// input; all downstream failures produce a fallback TurnResult instead.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, message, sessionID string) (*TurnResult, error) {
	state := StateReceived
	if userID == "" {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if message == "" {
		return nil, &registrystore.ValidationError{Field: "message", Message: "must not be empty"}
	}

	emotion := DetectEmotion(message)
	tone := ToneFor(emotion)

	conv, err := o.ledger.Begin(ctx, userID, sessionID)
	if err != nil {
		return o.fail(userID, sessionID, state, err), nil
	}
	sessionID = conv.SessionID

	state = StateClassified
	candidates := memory.Classify(message, memory.SourceUser)

	state = StateMemoryResolved
	memories, err := o.retriever.Relevant(ctx, userID, message)
	if err != nil {
		return o.fail(userID, sessionID, state, err), nil
	}

	state = StateHistoryResolved
	history, err := o.ledger.RecentHistory(ctx, userID, o.opts.ShortTermMemorySize)
	if err != nil {
		return o.fail(userID, sessionID, state, err), nil
	}
	profile, err := o.personas.GetOrCreate(ctx, userID)
	if err != nil {
		return o.fail(userID, sessionID, state, err), nil
	}

	state = StatePromptBuilt
	systemPrompt := o.composer.Compose(prompt.Input{
		Persona:     profile,
		Memories:    memories,
		History:     history,
		UserMessage: message,
		UserEmotion: emotion,
		Now:         time.Now(),
	})

	state = StateGenerated
	reply, modelUsed := o.generate(ctx, systemPrompt, message)

	state = StatePersisted
	if err := o.persistUserMessage(ctx, conv, userID, message, emotion); err != nil {
		return o.fail(userID, sessionID, state, err), nil
	}
	if modelUsed != FallbackModel {
		o.persistReply(ctx, conv, userID, reply, candidates)
	}

	o.afterTurn(ctx, conv, userID)

	state = StateDone
	log.Debug("Turn complete", "userId", userID, "state", state, "model", modelUsed)
	if security.TurnsTotal != nil {
		security.TurnsTotal.WithLabelValues(modelUsed).Inc()
	}

	return &TurnResult{
		ReplyText:         reply,
		UserID:            userID,
		EmotionDetected:   emotion,
		MemoriesUsedCount: len(memories),
		Tone:              tone,
		ModelUsed:         modelUsed,
		SessionID:         sessionID,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// generate makes the single bounded generation attempt, scrubs the result,
// and falls back on any failure.
func (o *Orchestrator) generate(ctx context.Context, systemPrompt, message string) (string, string) {
	gctx, cancel := context.WithTimeout(ctx, o.opts.GenerateTimeout)
	defer cancel()

	start := time.Now()
	reply, err := o.generator.Generate(gctx, registrygenerate.Request{
		SystemPrompt: systemPrompt,
		UserMessage:  message,
		Temperature:  o.opts.Temperature,
		MaxTokens:    o.opts.MaxTokens,
	})
	if security.GenerationLatency != nil {
		security.GenerationLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Warn("Generation failed, using fallback reply", "err", err)
		return FallbackReply, FallbackModel
	}

	reply = ScrubReply(reply)
	if reply == "" {
		log.Warn("Generated reply was scrubbed to nothing, using fallback reply")
		return FallbackReply, FallbackModel
	}
	return reply, o.generator.ModelName()
}

func (o *Orchestrator) persistUserMessage(ctx context.Context, conv *model.Conversation, userID, message, emotion string) error {
	sentiment := SentimentFor(emotion)
	return o.ledger.Append(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        message,
		Sentiment:      &sentiment,
		Emotion:        &emotion,
	}, userID)
}

// persistReply stores the assistant message and mines both sides of the
// exchange for long-term memories. Failures here are logged, not surfaced:
// the reply already exists and the user should receive it.
func (o *Orchestrator) persistReply(ctx context.Context, conv *model.Conversation, userID, reply string, userCandidates []memory.Candidate) {
	if err := o.ledger.Append(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        reply,
	}, userID); err != nil {
		log.Warn("Failed to persist assistant message", "userId", userID, "err", err)
	}

	candidates := make([]memory.Candidate, 0, len(userCandidates))
	candidates = append(candidates, userCandidates...)
	for _, c := range memory.Classify(reply, memory.SourceAssistant) {
		c.Confidence *= assistantConfidenceScale
		candidates = append(candidates, c)
	}

	stored := 0
	for _, c := range candidates {
		if c.Confidence <= o.opts.AcceptThreshold {
			continue
		}
		convID := conv.ID
		if _, err := o.store.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
			UserID:               userID,
			MemoryType:           c.Category,
			Category:             c.Category,
			Content:              c.Content,
			Confidence:           c.Confidence,
			Importance:           extractedImportance,
			SourceConversationID: &convID,
		}); err != nil {
			log.Warn("Failed to store extracted memory", "userId", userID, "err", err)
			continue
		}
		stored++
	}
	if stored > 0 {
		log.Debug("Stored extracted memories", "userId", userID, "count", stored)
		if security.MemoriesExtracted != nil {
			security.MemoriesExtracted.Add(float64(stored))
		}
	}
}

// afterTurn runs the post-persist bookkeeping: persona adaptation and the
// periodic conversation summary. Both are best-effort.
func (o *Orchestrator) afterTurn(ctx context.Context, conv *model.Conversation, userID string) {
	history, err := o.ledger.RecentHistory(ctx, userID, 50)
	if err != nil {
		log.Warn("Failed to load history for persona adaptation", "userId", userID, "err", err)
		return
	}
	if _, err := o.personas.AdaptFromHistory(ctx, userID, history); err != nil {
		log.Warn("Persona adaptation failed", "userId", userID, "err", err)
	}

	refreshed, err := o.store.GetConversation(ctx, conv.ID)
	if err != nil {
		return
	}
	if refreshed.MessageCount > 0 && refreshed.MessageCount%o.opts.SummaryWindowSize == 0 {
		if _, err := o.ledger.Summarize(ctx, conv.ID); err != nil {
			log.Warn("Conversation summarization failed", "conversationId", conv.ID, "err", err)
		}
	}
}

// fail produces the fallback TurnResult for a turn that could not complete.
func (o *Orchestrator) fail(userID, sessionID string, state State, err error) *TurnResult {
	log.Error("Turn failed, returning fallback reply", "userId", userID, "state", state, "err", err)
	if security.TurnsTotal != nil {
		security.TurnsTotal.WithLabelValues(FallbackModel).Inc()
	}
	return &TurnResult{
		ReplyText:         FallbackReply,
		UserID:            userID,
		EmotionDetected:   "neutral",
		MemoriesUsedCount: 0,
		Tone:              "friendly",
		ModelUsed:         FallbackModel,
		SessionID:         sessionID,
		Timestamp:         time.Now().UTC(),
	}
}
