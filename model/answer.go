package model

import (
	"encoding/json"
	"strconv"
)

// Answer is a respondent's value for one question, tagged by the question type.
type Answer struct {
	Kind   QuestionType
	Text   string
	Rating int
}

func TextAnswer(s string) Answer    { return Answer{Kind: QuestionText, Text: s} }
func BooleanAnswer(s string) Answer { return Answer{Kind: QuestionBoolean, Text: s} }
func RatingAnswer(n int) Answer     { return Answer{Kind: QuestionRating, Rating: n} }

func (a Answer) IsZero() bool {
	return a.Kind == ""
}

// String is the form used for dependency matching and for display.
func (a Answer) String() string {
	switch a.Kind {
	case QuestionRating:
		return strconv.Itoa(a.Rating)
	case QuestionText, QuestionBoolean:
		return a.Text
	}
	return ""
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case QuestionRating:
		return json.Marshal(a.Rating)
	case QuestionText, QuestionBoolean:
		return json.Marshal(a.Text)
	}
	return []byte("null"), nil
}
