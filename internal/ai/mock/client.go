// Package mock provides a function-field ChatClient for tests.
package mock

import (
	"context"

	"github.com/contesa/callanalyzer/pkg/models"
)

// ChatClient implements models.ChatClient with pluggable behavior.
type ChatClient struct {
	CompleteFunc func(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
	NameValue    string

	// Calls counts Complete invocations.
	Calls int
}

func (m *ChatClient) Complete(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	m.Calls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return models.ChatResponse{}, nil
}

func (m *ChatClient) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}
