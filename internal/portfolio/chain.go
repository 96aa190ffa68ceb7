package portfolio

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/knowledge"
	"github.com/yuribarsotti/agentlab/model"
)

// ContextPlaceholder is replaced by the retrieved documents in the system prompt.
const ContextPlaceholder = "{context}"

// Retriever returns the documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]knowledge.Document, error)
}

// Chain answers questions by stuffing retrieved documents into the system
// prompt of a single model call.
type Chain struct {
	retriever    Retriever
	llm          model.Model
	systemPrompt string
}

// NewChain creates a retrieval chain.
func NewChain(retriever Retriever, llm model.Model, systemPrompt string) *Chain {
	return &Chain{retriever: retriever, llm: llm, systemPrompt: strings.TrimSpace(systemPrompt)}
}

// LoadSystemPrompt reads the system prompt file.
func LoadSystemPrompt(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}

// Answer retrieves context for query and asks the model.
func (c *Chain) Answer(ctx context.Context, query string) (string, error) {
	docs, err := c.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}

	instructions := strings.ReplaceAll(c.systemPrompt, ContextPlaceholder, knowledge.FormatDocuments(docs))

	resp, err := model.Collect(ctx, c.llm, model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent("user", query)},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return resp.Content.Text(), nil
}
