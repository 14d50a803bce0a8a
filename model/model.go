package model

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}

type Store struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address"`
}

type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Role            Role   `json:"role"`
	AssignedStoreID string `json:"assignedStoreId,omitempty"`
}

type QuestionType string

const (
	QuestionText    QuestionType = "text"
	QuestionBoolean QuestionType = "boolean"
	QuestionRating  QuestionType = "rating"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionBoolean, QuestionRating:
		return true
	}
	return false
}

type Dependency struct {
	QuestionID string `json:"questionId" yaml:"questionId"`
	Value      string `json:"value" yaml:"value"`
}

type SurveyQuestion struct {
	ID        string       `json:"id" yaml:"id"`
	Label     string       `json:"label" yaml:"label"`
	Type      QuestionType `json:"type" yaml:"type"`
	Required  bool         `json:"required" yaml:"required"`
	DependsOn *Dependency  `json:"dependsOn,omitempty" yaml:"dependsOn"`
}

type SurveyConfig struct {
	ID          string           `json:"id" yaml:"id"`
	Version     int              `json:"version"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	IsActive    bool             `json:"isActive" yaml:"isActive"`
	Questions   []SurveyQuestion `json:"questions" yaml:"questions"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Question returns the question with the given id and its position in the survey.
func (s SurveyConfig) Question(id string) (SurveyQuestion, int, bool) {
	for i, q := range s.Questions {
		if q.ID == id {
			return q, i, true
		}
	}
	return SurveyQuestion{}, -1, false
}

type Submission struct {
	ID           string            `json:"id"`
	SurveyID     string            `json:"surveyId"`
	StoreID      string            `json:"storeId"`
	Timestamp    time.Time         `json:"timestamp"`
	CustomerName string            `json:"customerName"`
	Gender       string            `json:"gender"`
	AgeRange     string            `json:"ageRange"`
	NPSScore     int               `json:"npsScore"`
	Answers      map[string]Answer `json:"answers"`
}

type StorePerformance struct {
	StoreName string `json:"storeName"`
	Status    string `json:"status"`
	Insight   string `json:"insight"`
}

type AnalysisResult struct {
	Summary           string             `json:"summary"`
	KeyIssues         []string           `json:"keyIssues"`
	Recommendations   []string           `json:"recommendations"`
	SentimentScore    float64            `json:"sentimentScore"`
	StorePerformances []StorePerformance `json:"storePerformances"`
}

var (
	GenderOptions = []string{"Masculino", "Feminino"}
	AgeOptions    = []string{
		"Menos de 18",
		"18-24 anos",
		"25-34 anos",
		"35-44 anos",
		"45-54 anos",
		"55-64 anos",
		"65 anos ou mais",
	}
	BooleanOptions = []string{"Sim", "Não"}
)

const (
	MinNPS    = 0
	MaxNPS    = 10
	MinRating = 1
	MaxRating = 5
)
