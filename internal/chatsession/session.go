// Package chatsession is a thin stateful wrapper above the request
// coordinator: it enforces user/model role alternation and only appends to
// history once the upstream call succeeds.
package chatsession

import (
	"context"

	"go-genai-core/internal/apierr"
	"go-genai-core/internal/coordinator"
)

// ChatSession accumulates a role-alternating conversation and sends the
// full history plus each new message on every call; no server-side session
// state is assumed.
type ChatSession struct {
	coord   *coordinator.Coordinator
	model   string
	genCfg  *coordinator.GenerationConfig
	opts    coordinator.Options
	history []coordinator.Content
}

// New starts an empty chat session against model.
func New(coord *coordinator.Coordinator, model string, genCfg *coordinator.GenerationConfig, opts coordinator.Options) *ChatSession {
	return &ChatSession{coord: coord, model: model, genCfg: genCfg, opts: opts}
}

// History returns a copy of the accumulated conversation.
func (c *ChatSession) History() []coordinator.Content {
	out := make([]coordinator.Content, len(c.history))
	copy(out, c.history)
	return out
}

// Send appends message as a user turn, sends the full history to the
// coordinator, and on success appends the model's reply. On error, history
// is left unchanged so the caller can retry or abandon the turn.
func (c *ChatSession) Send(ctx context.Context, message string) (*coordinator.GenerateResponse, error) {
	if len(c.history) > 0 && c.history[len(c.history)-1].Role == "user" {
		return nil, apierr.New(apierr.KindClient, "chat session expects a model reply before the next user message")
	}

	turn := coordinator.Content{Role: "user", Parts: []coordinator.Part{{Text: message}}}
	candidateHistory := append(c.History(), turn)

	resp, err := c.coord.Generate(ctx, candidateHistory, c.model, c.genCfg, c.opts)
	if err != nil {
		return nil, err
	}

	c.history = candidateHistory
	if len(resp.Candidates) > 0 {
		reply := resp.Candidates[0].Content
		if reply.Role == "" {
			reply.Role = "model"
		}
		c.history = append(c.history, reply)
	}
	return resp, nil
}
