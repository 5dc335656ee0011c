package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// VertexConfig configures the Gemini backend on Vertex AI.
type VertexConfig struct {
	Project   string
	Location  string
	Model     string
	MaxTokens int
}

// VertexClient is a Client backed by Gemini on Vertex AI.
type VertexClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewVertexClient creates a Vertex AI client.  Credentials come from the
// ambient Google application default credentials.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: project and location must be set")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

// Chat implements Client.  System messages become the system instruction and
// the remaining turns are replayed in order.
func (v *VertexClient) Chat(ctx context.Context, messages []Message) (string, error) {
	system, turns := splitSystem(messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: v.maxTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := v.client.Models.GenerateContent(ctx, v.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
