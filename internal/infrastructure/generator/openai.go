package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 200

	systemPrompt = "Tu es un assistant qui rédige des descriptions de profil pour une application de " +
		"rencontres sérieuses et bienveillantes. Écris à la première personne, en français, " +
		"en 3 phrases maximum, sur un ton chaleureux et authentique. N'invente aucun détail " +
		"qui ne découle pas des traits fournis."
)

// Config configures the OpenAI-backed generator.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAI generates profile descriptions with a chat completion model.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI returns a generator, or domain.ErrGeneratorUnavailable when no API
// key is configured.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrGeneratorUnavailable
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The worker owns the timeout and the fallback; one attempt is enough.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

// Generate asks the model for a short first-person description.
func (g *OpenAI) Generate(ctx context.Context, choices domain.ProfileChoices) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(Prompt(choices)),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
		Temperature:         openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}
	return text, nil
}

// Prompt renders the user message for choices.
func Prompt(choices domain.ProfileChoices) string {
	c := choices.Normalize()
	var b strings.Builder
	b.WriteString("Rédige ma description de profil à partir de ces traits :\n")
	fmt.Fprintf(&b, "- Mon énergie : %s\n", orUnknown(c.Vibe))
	fmt.Fprintf(&b, "- Mon week-end idéal : %s\n", orUnknown(c.Weekend))
	fmt.Fprintf(&b, "- Mes valeurs : %s\n", orUnknown(c.Valeurs))
	fmt.Fprintf(&b, "- Mon petit plaisir : %s", orUnknown(c.Plaisir))
	return b.String()
}

func orUnknown(v string) string {
	if v == "" {
		return "non précisé"
	}
	return v
}
