package survey

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mbolis/conect-insights/model"
)

var ErrInvalidAnswer = errors.New("invalid answer")

// CoerceAnswer converts a decoded JSON value into the answer variant matching the question type.
// A nil value yields the zero Answer, which clears a previous answer.
func CoerceAnswer(q model.SurveyQuestion, raw any) (model.Answer, error) {
	if raw == nil {
		return model.Answer{}, nil
	}

	switch q.Type {
	case model.QuestionText:
		s, ok := raw.(string)
		if !ok {
			return model.Answer{}, fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, q.ID)
		}
		return model.TextAnswer(s), nil

	case model.QuestionBoolean:
		switch v := raw.(type) {
		case bool:
			if v {
				return model.BooleanAnswer(model.BooleanOptions[0]), nil
			}
			return model.BooleanAnswer(model.BooleanOptions[1]), nil
		case string:
			for _, opt := range model.BooleanOptions {
				if normalize(v) == normalize(opt) {
					return model.BooleanAnswer(opt), nil
				}
			}
			if strings.TrimSpace(v) == "" {
				return model.Answer{}, nil
			}
		}
		return model.Answer{}, fmt.Errorf("%w: %s expects one of %s", ErrInvalidAnswer, q.ID, strings.Join(model.BooleanOptions, ", "))

	case model.QuestionRating:
		n, ok := toInt(raw)
		if !ok || n < model.MinRating || n > model.MaxRating {
			return model.Answer{}, fmt.Errorf("%w: %s expects a rating from %d to %d", ErrInvalidAnswer, q.ID, model.MinRating, model.MaxRating)
		}
		return model.RatingAnswer(n), nil
	}

	return model.Answer{}, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidAnswer, q.ID, q.Type)
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
