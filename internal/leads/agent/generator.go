package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const classifierAppName = "inbound-classifier"

// Generator returns the oracle's raw text for one prompt.
type Generator interface {
	Generate(ctx context.Context, sessionKey, prompt string) (string, error)
}

// AgentGenerator runs a single-turn ADK agent over any model.LLM.
type AgentGenerator struct {
	runner         *runner.Runner
	sessionService session.Service
}

type GeneratorConfig struct {
	Instruction string
	Temperature float64
}

func NewAgentGenerator(llm model.LLM, cfg GeneratorConfig) (*AgentGenerator, error) {
	temperature := float32(cfg.Temperature)
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "InboundClassifier",
		Model:       llm,
		Description: "Classifies inbound owner messages and drafts the reply.",
		Instruction: cfg.Instruction,
		GenerateContentConfig: &genai.GenerateContentConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        classifierAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier runner: %w", err)
	}

	return &AgentGenerator{runner: r, sessionService: sessionService}, nil
}

func (g *AgentGenerator) Generate(ctx context.Context, sessionKey, prompt string) (string, error) {
	sessionID := uuid.New().String()
	userID := "inbound-" + sessionKey

	if _, err := g.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   classifierAppName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("classifier: create session: %w", err)
	}
	defer func() {
		_ = g.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   classifierAppName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}

	var output strings.Builder
	for event, err := range g.runner.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return "", fmt.Errorf("classifier: run failed: %w", err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			output.WriteString(part.Text)
		}
	}

	return strings.TrimSpace(output.String()), nil
}
