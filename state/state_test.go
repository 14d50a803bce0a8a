package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

type fakeRepo struct {
	loaded   State
	fail     error
	replaced Collection
	saved    State
}

func (r *fakeRepo) Load(context.Context) (State, error) { return r.loaded, nil }

func (r *fakeRepo) ReplaceStores(_ context.Context, v []model.Store) error {
	r.replaced |= Stores
	r.saved.Stores = v
	return r.fail
}

func (r *fakeRepo) ReplaceUsers(_ context.Context, v []Account) error {
	r.replaced |= Users
	r.saved.Users = v
	return r.fail
}

func (r *fakeRepo) ReplaceSurveys(_ context.Context, v []model.SurveyConfig) error {
	r.replaced |= Surveys
	r.saved.Surveys = v
	return r.fail
}

func (r *fakeRepo) ReplaceSubmissions(_ context.Context, v []model.Submission) error {
	r.replaced |= Submissions
	r.saved.Submissions = v
	return r.fail
}

var now = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func seeded(t *testing.T) State {
	t.Helper()
	seed, err := LoadSeed("")
	require.NoError(t, err)
	st, changed, err := Bootstrap(State{}, seed, nil, now)
	require.NoError(t, err)
	assert.Equal(t, Stores|Surveys, changed)
	return st
}

func validDraft() form.Draft {
	d := form.New("ci-001")
	d.StoreID = "2"
	d.CustomerName = "Maria"
	d.Gender = "Feminino"
	d.AgeRange = "25-34 anos"
	d.NPSScore = 9
	d.Answers = map[string]model.Answer{
		"q1": model.BooleanAnswer("Sim"),
		"q2": model.RatingAnswer(5),
	}
	return d
}

func TestLoadSeedDefault(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)

	assert.Len(t, seed.Stores, 2)
	require.Len(t, seed.Surveys, 1)
	s := seed.Surveys[0]
	assert.True(t, s.IsActive)
	require.Len(t, s.Questions, 4)
	assert.Equal(t, &model.Dependency{QuestionID: "q1", Value: "Não"}, s.Questions[1].DependsOn)
}

func TestBootstrapKeepsExistingCollections(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	st := State{Stores: []model.Store{{ID: "x", Name: "Existing"}}}
	admin := &Account{User: model.User{ID: "u1", Username: "admin", Role: model.RoleAdmin}, PasswordHash: []byte("hash")}

	st, changed, err := Bootstrap(st, seed, admin, now)
	require.NoError(t, err)

	assert.Equal(t, Surveys|Users, changed)
	assert.Len(t, st.Stores, 1)
	assert.Equal(t, now, st.Surveys[0].CreatedAt)
	assert.Len(t, st.Users, 1)
}

func TestRecordSubmission(t *testing.T) {
	st := seeded(t)
	d := validDraft()
	d.Answers["q1_d"] = model.TextAnswer("stale")

	next, sub, err := RecordSubmission(st, d, model.User{Username: "admin"}, "sub-1", now)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", sub.ID)
	assert.Equal(t, "2", sub.StoreID)
	assert.Equal(t, now, sub.Timestamp)
	assert.NotContains(t, sub.Answers, "q1_d", "hidden answers are not recorded")
	assert.Len(t, sub.Answers, 2)
	assert.Empty(t, st.Submissions)
	assert.Equal(t, []model.Submission{sub}, next.Submissions)

	next, second, err := RecordSubmission(next, d, model.User{}, "sub-2", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []model.Submission{second, sub}, next.Submissions, "most recent first")
}

func TestRecordSubmissionAssignedStoreWins(t *testing.T) {
	_, sub, err := RecordSubmission(seeded(t), validDraft(), model.User{AssignedStoreID: "1"}, "s", now)
	require.NoError(t, err)
	assert.Equal(t, "1", sub.StoreID)
}

func TestRecordSubmissionWithoutStore(t *testing.T) {
	st := seeded(t)
	d := validDraft()
	d.StoreID = ""

	next, _, err := RecordSubmission(st, d, model.User{}, "s", now)
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, next.Submissions)
}

func TestRecordSubmissionCollectsProblems(t *testing.T) {
	d := validDraft()
	d.CustomerName = " "
	d.Gender = "Outro"
	d.NPSScore = 11
	d.Answers = map[string]model.Answer{"q1": model.BooleanAnswer("Não")}

	_, _, err := RecordSubmission(seeded(t), d, model.User{}, "s", now)
	require.ErrorIs(t, err, ErrInvalid)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	// name, gender, nps, q1_d and q2
	assert.Len(t, merr.Errors, 5)
}

func TestRecordSubmissionHiddenRequiredQuestionIsNotRequired(t *testing.T) {
	d := validDraft()
	d.Answers["q1"] = model.BooleanAnswer("Sim")

	_, _, err := RecordSubmission(seeded(t), d, model.User{}, "s", now)
	assert.NoError(t, err)

	d.Answers["q1"] = model.BooleanAnswer("não")
	_, _, err = RecordSubmission(seeded(t), d, model.User{}, "s", now)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRecordSubmissionSurveyChecks(t *testing.T) {
	st := seeded(t)
	d := validDraft()
	d.SurveyID = "missing"
	_, _, err := RecordSubmission(st, d, model.User{}, "s", now)
	assert.ErrorIs(t, err, ErrNotFound)

	st, _, err = EditSurvey(st, "ci-001", func(s model.SurveyConfig) (model.SurveyConfig, error) {
		return survey.SetActive(s, false), nil
	})
	require.NoError(t, err)
	_, _, err = RecordSubmission(st, validDraft(), model.User{}, "s", now)
	assert.ErrorIs(t, err, ErrSurveyInactive)
}

func TestStoreReducers(t *testing.T) {
	st := seeded(t)

	next, store, err := AddStore(st, "3", " Nova Loja ", "")
	require.NoError(t, err)
	assert.Equal(t, "Nova Loja", store.Name)
	assert.Len(t, next.Stores, 3)
	assert.Len(t, st.Stores, 2)

	_, _, err = AddStore(st, "4", "", "")
	assert.ErrorIs(t, err, ErrInvalid)

	next, err = RemoveStore(next, "1")
	require.NoError(t, err)
	_, ok := next.Store("1")
	assert.False(t, ok)

	_, err = RemoveStore(next, "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserReducers(t *testing.T) {
	st := seeded(t)
	manager := Account{User: model.User{ID: "u1", Username: "gerente@loja", Role: model.RoleManager, AssignedStoreID: "1"}, PasswordHash: []byte("h")}

	next, err := AddUser(st, manager)
	require.NoError(t, err)
	assert.Len(t, next.Users, 1)

	_, err = AddUser(next, manager)
	assert.ErrorIs(t, err, ErrDuplicate)

	noStore := manager
	noStore.Username, noStore.AssignedStoreID = "other", ""
	_, err = AddUser(next, noStore)
	assert.ErrorIs(t, err, ErrInvalid)

	badStore := manager
	badStore.Username, badStore.AssignedStoreID = "other", "99"
	_, err = AddUser(next, badStore)
	assert.ErrorIs(t, err, ErrInvalid)

	next, removed, err := RemoveUser(next, "u1")
	require.NoError(t, err)
	assert.Equal(t, "gerente@loja", removed.Username)
	assert.Empty(t, next.Users)
}

func TestSurveyReducers(t *testing.T) {
	st := seeded(t)

	next, err := AddSurvey(st, survey.NewSurvey("s2", "Outra", "", now))
	require.NoError(t, err)
	_, err = AddSurvey(next, survey.NewSurvey("s2", "Dup", "", now))
	assert.ErrorIs(t, err, ErrDuplicate)

	next, edited, err := EditSurvey(next, "s2", func(s model.SurveyConfig) (model.SurveyConfig, error) {
		s, _, err := survey.AddQuestion(s, "Pergunta", model.QuestionText, true)
		return s, err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, edited.Version)
	assert.Len(t, edited.Questions, 1)

	stale := edited
	stale.Version = 0
	_, _, err = ReplaceSurvey(next, stale)
	assert.ErrorIs(t, err, ErrConflict)

	fresh := edited
	fresh.Name = "Renomeada"
	next, replaced, err := ReplaceSurvey(next, fresh)
	require.NoError(t, err)
	assert.Equal(t, "Renomeada", replaced.Name)
	assert.Equal(t, 2, replaced.Version)

	invalid := replaced
	invalid.Questions = append(invalid.Questions, model.SurveyQuestion{ID: "x", Type: "nope"})
	_, _, err = ReplaceSurvey(next, invalid)
	assert.ErrorIs(t, err, survey.ErrInvalidQuestion)

	_, _, err = EditSurvey(next, "missing", func(s model.SurveyConfig) (model.SurveyConfig, error) { return s, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	next, err = DeleteSurvey(next, "s2")
	require.NoError(t, err)
	assert.Len(t, next.Surveys, 1)
	_, err = DeleteSurvey(next, "s2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHolderPersistsChangedCollections(t *testing.T) {
	repo := &fakeRepo{loaded: seeded(t)}
	h, err := NewHolder(context.Background(), repo)
	require.NoError(t, err)

	_, err = h.Apply(context.Background(), Stores, func(st State) (State, error) {
		st, _, err := AddStore(st, "3", "Nova", "")
		return st, err
	})
	require.NoError(t, err)

	assert.Equal(t, Stores, repo.replaced)
	assert.Len(t, repo.saved.Stores, 3)
	assert.Len(t, h.Snapshot().Stores, 3)
}

func TestHolderKeepsStateWhenPersistenceFails(t *testing.T) {
	repo := &fakeRepo{loaded: seeded(t), fail: errors.New("disk full")}
	h, err := NewHolder(context.Background(), repo)
	require.NoError(t, err)

	_, err = h.Apply(context.Background(), Submissions, func(st State) (State, error) {
		st, _, err := RecordSubmission(st, validDraft(), model.User{}, "s", now)
		return st, err
	})
	require.Error(t, err)

	assert.Empty(t, h.Snapshot().Submissions)
}

func TestHolderKeepsStateWhenReducerFails(t *testing.T) {
	repo := &fakeRepo{loaded: seeded(t)}
	h, err := NewHolder(context.Background(), repo)
	require.NoError(t, err)

	d := validDraft()
	d.StoreID = ""
	_, err = h.Apply(context.Background(), Submissions, func(st State) (State, error) {
		st, _, err := RecordSubmission(st, d, model.User{}, "s", now)
		return st, err
	})
	assert.ErrorIs(t, err, ErrNoStore)
	assert.Zero(t, repo.replaced)
	assert.Empty(t, h.Snapshot().Submissions)
}
