package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/conect-insights/model"
)

const analysisJSON = `{
	"summary": "Ruptura de arroz na unidade Centro.",
	"keyIssues": ["Falta de arroz"],
	"recommendations": ["Revisar reposição"],
	"sentimentScore": 62,
	"storePerformances": [{"storeName": "Centro Ravilla", "status": "Crítico", "insight": "Repor gôndolas"}]
}`

func completionServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1760000000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSubmissions() []model.Submission {
	return []model.Submission{{
		ID:       "s1",
		SurveyID: "ci-001",
		StoreID:  "2",
		NPSScore: 4,
		Gender:   "Feminino",
		AgeRange: "25-34 anos",
		Answers: map[string]model.Answer{
			"q1":     model.BooleanAnswer("Não"),
			"q1_d":   model.TextAnswer("arroz"),
			"legacy": model.TextAnswer("antigo"),
		},
	}}
}

var testSurveys = []model.SurveyConfig{{
	ID:   "ci-001",
	Name: "Pesquisa de Performance no PDV",
	Questions: []model.SurveyQuestion{
		{ID: "q1", Label: "Encontrou tudo?", Type: model.QuestionBoolean},
		{ID: "q1_d", Label: "O que faltou?", Type: model.QuestionText},
	},
}}

func TestAnalyze(t *testing.T) {
	var seen map[string]any
	srv := completionServer(t, http.StatusOK, analysisJSON, &seen)
	analyzer := NewAIAnalyzer(AIConfig{BaseURL: srv.URL + "/", APIKey: "test-key", Model: "test-model"})

	result, err := analyzer.Analyze(context.Background(), testSubmissions(), stores, testSurveys)
	require.NoError(t, err)

	assert.Equal(t, "Ruptura de arroz na unidade Centro.", result.Summary)
	assert.Equal(t, []string{"Falta de arroz"}, result.KeyIssues)
	assert.Equal(t, float64(62), result.SentimentScore)
	require.Len(t, result.StorePerformances, 1)
	assert.Equal(t, "Crítico", result.StorePerformances[0].Status)

	assert.Equal(t, "test-model", seen["model"])
	assert.Len(t, seen["messages"], 2)
}

func TestAnalyzeServiceError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "", nil)
	analyzer := NewAIAnalyzer(AIConfig{BaseURL: srv.URL + "/", APIKey: "test-key"})

	result, err := analyzer.Analyze(context.Background(), testSubmissions(), stores, testSurveys)
	assert.Error(t, err)
	assert.Equal(t, model.AnalysisResult{}, result)
}

func TestAnalyzeUnparsableContent(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "not json at all", nil)
	analyzer := NewAIAnalyzer(AIConfig{BaseURL: srv.URL + "/", APIKey: "test-key"})

	result, err := analyzer.Analyze(context.Background(), testSubmissions(), stores, testSurveys)
	assert.Error(t, err)
	assert.Equal(t, model.AnalysisResult{}, result)
}

func TestAnalyzeWithoutSubmissions(t *testing.T) {
	analyzer := NewAIAnalyzer(AIConfig{APIKey: "test-key"})

	_, err := analyzer.Analyze(context.Background(), nil, stores, testSurveys)
	assert.ErrorIs(t, err, ErrNoSubmissions)
}

func TestBuildContext(t *testing.T) {
	subs := append(testSubmissions(), model.Submission{ID: "s2", SurveyID: "gone", StoreID: "gone", NPSScore: 9,
		Answers: map[string]model.Answer{"x": model.RatingAnswer(3)}})

	entries := BuildContext(subs, stores, testSurveys)

	require.Len(t, entries, 2)
	assert.Equal(t, "Pesquisa de Performance no PDV", entries[0].Campaign)
	assert.Equal(t, "Centro Ravilla", entries[0].Store)
	assert.Equal(t, []ContextField{
		{Field: "Encontrou tudo?", Value: "Não"},
		{Field: "O que faltou?", Value: "arroz"},
		{Field: fallbackField, Value: "antigo"},
	}, entries[0].Fields)

	assert.Equal(t, fallbackCampaign, entries[1].Campaign)
	assert.Equal(t, fallbackStore, entries[1].Store)
	assert.Equal(t, []ContextField{{Field: fallbackField, Value: "3"}}, entries[1].Fields)
}

func TestParseResultStripsCodeFence(t *testing.T) {
	result, err := ParseResult("```json\n{\"summary\": \"ok\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Summary)
	assert.NotNil(t, result.KeyIssues)

	_, err = ParseResult(`{"keyIssues": []}`)
	assert.Error(t, err)
}
