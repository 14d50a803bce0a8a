package state

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

//go:embed seed.yaml
var defaultSeed []byte

type Seed struct {
	Stores  []model.Store        `yaml:"stores"`
	Surveys []model.SurveyConfig `yaml:"surveys"`
}

// LoadSeed reads the seed document at path, or the embedded default when path is empty.
func LoadSeed(path string) (Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read seed: %w", err)
		}
	}

	var seed Seed
	if err := yaml.UnmarshalStrict(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, s := range seed.Surveys {
		if err := survey.Validate(s); err != nil {
			return Seed{}, fmt.Errorf("seed survey %s: %w", s.ID, err)
		}
	}
	return seed, nil
}

// Bootstrap fills empty collections from the seed and creates the admin account when there
// are no users yet. It reports which collections changed.
func Bootstrap(st State, seed Seed, admin *Account, now time.Time) (State, Collection, error) {
	var changed Collection

	if len(st.Stores) == 0 && len(seed.Stores) > 0 {
		st.Stores = append([]model.Store{}, seed.Stores...)
		changed |= Stores
	}
	if len(st.Surveys) == 0 && len(seed.Surveys) > 0 {
		surveys := make([]model.SurveyConfig, len(seed.Surveys))
		for i, s := range seed.Surveys {
			if s.CreatedAt.IsZero() {
				s.CreatedAt = now
			}
			if s.Questions == nil {
				s.Questions = []model.SurveyQuestion{}
			}
			surveys[i] = s
		}
		st.Surveys = surveys
		changed |= Surveys
	}
	if len(st.Users) == 0 && admin != nil {
		next, err := AddUser(st, *admin)
		if err != nil {
			return st, 0, fmt.Errorf("bootstrap admin: %w", err)
		}
		st = next
		changed |= Users
	}
	return st, changed, nil
}
