package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/mbolis/conect-insights/model"
)

var ErrNoSubmissions = errors.New("no submissions to analyze")

// Analyzer summarizes submissions through a text-generation service. Failures are reported
// as a single error and never carry a partial result.
type Analyzer interface {
	Analyze(ctx context.Context, submissions []model.Submission, stores []model.Store, surveys []model.SurveyConfig) (model.AnalysisResult, error)
}

const (
	DefaultAIBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultAIModel    = "gemini-2.5-flash"
	DefaultAILanguage = "Brazilian Portuguese"

	fallbackCampaign = "Geral"
	fallbackStore    = "Unidade PDV"
	fallbackField    = "Campo Personalizado"
)

// AIConfig configures the OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
}

type aiAnalyzer struct {
	client   openai.Client
	model    string
	language string
}

func NewAIAnalyzer(cfg AIConfig) Analyzer {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultAIBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultAIModel
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = DefaultAILanguage
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &aiAnalyzer{client: client, model: cfg.Model, language: cfg.Language}
}

func (a *aiAnalyzer) Analyze(ctx context.Context, submissions []model.Submission, stores []model.Store, surveys []model.SurveyConfig) (model.AnalysisResult, error) {
	if len(submissions) == 0 {
		return model.AnalysisResult{}, ErrNoSubmissions
	}

	data, err := json.Marshal(BuildContext(submissions, stores, surveys))
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("marshal analysis context: %w", err)
	}

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(a.language)),
			openai.UserMessage(string(data)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analysis request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.AnalysisResult{}, errors.New("analysis response has no choices")
	}

	return ParseResult(completion.Choices[0].Message.Content)
}

func systemPrompt(language string) string {
	return `You are a retail analytics consultant. The user message is a JSON array of in-store
survey responses (campaign, store, overall NPS 0-10, answered fields, respondent profile).

Guidelines:
1. Read the field labels and answers to find stock-outs (missing products), poor service and opportunities.
2. Point out blind spots store managers may be missing.
3. Be direct and focused on return on investment.

Write every text value in ` + language + `. Reply with a single JSON object:
{
  "summary": "high impact summary",
  "keyIssues": ["specific issue"],
  "recommendations": ["corrective action"],
  "sentimentScore": 0-100,
  "storePerformances": [
    {"storeName": "store name", "status": "Crítico|Estável|Melhorando", "insight": "key advice"}
  ]
}`
}

type ContextField struct {
	Field string `json:"campo"`
	Value string `json:"valor"`
}

type ContextProfile struct {
	Gender string `json:"genero"`
	Age    string `json:"idade"`
}

type ContextEntry struct {
	Campaign string         `json:"campanha"`
	Store    string         `json:"unidade"`
	NPS      int            `json:"nps_geral"`
	Fields   []ContextField `json:"detalhamento"`
	Profile  ContextProfile `json:"perfil"`
}

// BuildContext maps submissions to the readable records sent to the model. Answers follow
// survey question order; answers to unknown questions come last, ordered by id.
func BuildContext(submissions []model.Submission, stores []model.Store, surveys []model.SurveyConfig) []ContextEntry {
	names := storeNames(stores)
	configs := make(map[string]model.SurveyConfig, len(surveys))
	for _, s := range surveys {
		configs[s.ID] = s
	}

	entries := make([]ContextEntry, 0, len(submissions))
	for _, sub := range submissions {
		entry := ContextEntry{
			Campaign: fallbackCampaign,
			Store:    fallbackStore,
			NPS:      sub.NPSScore,
			Fields:   []ContextField{},
			Profile:  ContextProfile{Gender: sub.Gender, Age: sub.AgeRange},
		}
		if name, ok := names[sub.StoreID]; ok {
			entry.Store = name
		}

		cfg, ok := configs[sub.SurveyID]
		if ok {
			entry.Campaign = cfg.Name
			for _, q := range cfg.Questions {
				if a, ok := sub.Answers[q.ID]; ok {
					entry.Fields = append(entry.Fields, ContextField{Field: q.Label, Value: a.String()})
				}
			}
		}

		var unknown []string
		for id := range sub.Answers {
			if _, _, known := cfg.Question(id); !known {
				unknown = append(unknown, id)
			}
		}
		sort.Strings(unknown)
		for _, id := range unknown {
			entry.Fields = append(entry.Fields, ContextField{Field: fallbackField, Value: sub.Answers[id].String()})
		}

		entries = append(entries, entry)
	}
	return entries
}

// ParseResult decodes the model output, tolerating a surrounding markdown code fence.
func ParseResult(content string) (model.AnalysisResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &result); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("parse analysis result: %w", err)
	}
	if strings.TrimSpace(result.Summary) == "" {
		return model.AnalysisResult{}, errors.New("parse analysis result: missing summary")
	}
	if result.KeyIssues == nil {
		result.KeyIssues = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	if result.StorePerformances == nil {
		result.StorePerformances = []model.StorePerformance{}
	}
	return result, nil
}
