package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
)

var ErrTokenNotFound = errors.New("token not found")

// Repository stores the application state in SQLite. Every Replace call runs in its own
// transaction and rewrites the whole collection.
type Repository struct {
	db *sql.DB
}

var (
	_ state.Repository = (*Repository)(nil)
	_ state.TokenStore = (*Repository)(nil)
)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (repo *Repository) Load(ctx context.Context) (st state.State, err error) {
	if st.Stores, err = repo.loadStores(ctx); err != nil {
		return
	}
	if st.Users, err = repo.loadUsers(ctx); err != nil {
		return
	}
	if st.Surveys, err = repo.loadSurveys(ctx); err != nil {
		return
	}
	st.Submissions, err = repo.loadSubmissions(ctx)
	return
}

func (repo *Repository) loadStores(ctx context.Context) ([]model.Store, error) {
	rows, err := repo.db.QueryContext(ctx, `
		SELECT id, name, address
		FROM store
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("db.load_stores: %w", err)
	}
	defer rows.Close()

	stores := []model.Store{}
	for rows.Next() {
		s := model.Store{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Address); err != nil {
			return nil, fmt.Errorf("db.load_stores.scan: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (repo *Repository) loadUsers(ctx context.Context) ([]state.Account, error) {
	rows, err := repo.db.QueryContext(ctx, `
		SELECT id, username, password_hash, role, assigned_store_id
		FROM user
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("db.load_users: %w", err)
	}
	defer rows.Close()

	users := []state.Account{}
	for rows.Next() {
		u := state.Account{}
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AssignedStoreID); err != nil {
			return nil, fmt.Errorf("db.load_users.scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (repo *Repository) loadSurveys(ctx context.Context) ([]model.SurveyConfig, error) {
	rows, err := repo.db.QueryContext(ctx, `
		SELECT
			s.id, s.version, s.name, s.description, s.is_active, s.created_at,
			q.id, q.label, q.type, q.required, q.depends_on_question_id, q.depends_on_value
		FROM survey s
		LEFT OUTER JOIN survey_question q ON (s.id = q.survey_id)
		ORDER BY s.position, q.position`)
	if err != nil {
		return nil, fmt.Errorf("db.load_surveys: %w", err)
	}
	defer rows.Close()

	surveys := []model.SurveyConfig{}
	for rows.Next() {
		s := model.SurveyConfig{}
		var createdAt int64
		var qID, qLabel, qType, dependsOnID, dependsOnValue sql.NullString
		var qRequired sql.NullBool
		err := rows.Scan(
			&s.ID, &s.Version, &s.Name, &s.Description, &s.IsActive, &createdAt,
			&qID, &qLabel, &qType, &qRequired, &dependsOnID, &dependsOnValue,
		)
		if err != nil {
			return nil, fmt.Errorf("db.load_surveys.scan: %w", err)
		}

		if n := len(surveys); n == 0 || surveys[n-1].ID != s.ID {
			s.CreatedAt = fromMillis(createdAt)
			s.Questions = []model.SurveyQuestion{}
			surveys = append(surveys, s)
		}
		if !qID.Valid {
			continue
		}

		q := model.SurveyQuestion{
			ID:       qID.String,
			Label:    qLabel.String,
			Type:     model.QuestionType(qType.String),
			Required: qRequired.Bool,
		}
		if dependsOnID.Valid {
			q.DependsOn = &model.Dependency{QuestionID: dependsOnID.String, Value: dependsOnValue.String}
		}
		last := &surveys[len(surveys)-1]
		last.Questions = append(last.Questions, q)
	}
	return surveys, rows.Err()
}

func (repo *Repository) loadSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := repo.db.QueryContext(ctx, `
		SELECT
			s.id, s.survey_id, s.store_id, s.time, s.customer_name, s.gender, s.age_range, s.nps_score,
			a.question_id, a.kind, a.value
		FROM submission s
		LEFT OUTER JOIN submission_answer a ON (s.id = a.submission_id)
		ORDER BY s.seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("db.load_submissions: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var ts int64
		var questionID, kind, value sql.NullString
		err := rows.Scan(
			&s.ID, &s.SurveyID, &s.StoreID, &ts, &s.CustomerName, &s.Gender, &s.AgeRange, &s.NPSScore,
			&questionID, &kind, &value,
		)
		if err != nil {
			return nil, fmt.Errorf("db.load_submissions.scan: %w", err)
		}

		if n := len(submissions); n == 0 || submissions[n-1].ID != s.ID {
			s.Timestamp = fromMillis(ts)
			s.Answers = map[string]model.Answer{}
			submissions = append(submissions, s)
		}
		if !questionID.Valid {
			continue
		}

		a, err := decodeAnswer(model.QuestionType(kind.String), value.String)
		if err != nil {
			return nil, fmt.Errorf("db.load_submissions.answer %s/%s: %w", s.ID, questionID.String, err)
		}
		submissions[len(submissions)-1].Answers[questionID.String] = a
	}
	return submissions, rows.Err()
}

func decodeAnswer(kind model.QuestionType, value string) (model.Answer, error) {
	switch kind {
	case model.QuestionText:
		return model.TextAnswer(value), nil
	case model.QuestionBoolean:
		return model.BooleanAnswer(value), nil
	case model.QuestionRating:
		n, err := strconv.Atoi(value)
		if err != nil {
			return model.Answer{}, err
		}
		return model.RatingAnswer(n), nil
	}
	return model.Answer{}, fmt.Errorf("unknown answer kind %q", kind)
}

func (repo *Repository) ReplaceStores(ctx context.Context, stores []model.Store) error {
	return repo.inTx(ctx, "db.replace_stores", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM store"); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO store (id, position, name, address)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, s := range stores {
			if _, err := stmt.ExecContext(ctx, s.ID, i, s.Name, s.Address); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *Repository) ReplaceUsers(ctx context.Context, users []state.Account) error {
	return repo.inTx(ctx, "db.replace_users", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM user"); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO user (id, position, username, password_hash, role, assigned_store_id)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, u := range users {
			if _, err := stmt.ExecContext(ctx, u.ID, i, u.Username, u.PasswordHash, string(u.Role), u.AssignedStoreID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *Repository) ReplaceSurveys(ctx context.Context, surveys []model.SurveyConfig) error {
	return repo.inTx(ctx, "db.replace_surveys", func(tx *sql.Tx) error {
		// questions go with their survey
		if _, err := tx.ExecContext(ctx, "DELETE FROM survey"); err != nil {
			return err
		}

		surveyStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO survey (id, position, version, name, description, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer surveyStmt.Close()

		questionStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO survey_question (survey_id, id, position, label, type, required, depends_on_question_id, depends_on_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer questionStmt.Close()

		for i, s := range surveys {
			_, err := surveyStmt.ExecContext(ctx, s.ID, i, s.Version, s.Name, s.Description, s.IsActive, toMillis(s.CreatedAt))
			if err != nil {
				return err
			}

			for j, q := range s.Questions {
				var dependsOnID, dependsOnValue sql.NullString
				if q.DependsOn != nil {
					dependsOnID = sql.NullString{String: q.DependsOn.QuestionID, Valid: true}
					dependsOnValue = sql.NullString{String: q.DependsOn.Value, Valid: true}
				}
				_, err := questionStmt.ExecContext(ctx, s.ID, q.ID, j, q.Label, string(q.Type), q.Required, dependsOnID, dependsOnValue)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ReplaceSubmissions deletes the submissions no longer present and inserts the new ones.
// Submissions never change once recorded, so existing rows are left alone.
func (repo *Repository) ReplaceSubmissions(ctx context.Context, submissions []model.Submission) error {
	return repo.inTx(ctx, "db.replace_submissions", func(tx *sql.Tx) error {
		existing := map[string]bool{}
		rows, err := tx.QueryContext(ctx, "SELECT id FROM submission")
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			existing[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		var seq int64
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM submission").Scan(&seq); err != nil {
			return err
		}

		insertStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO submission (id, survey_id, store_id, time, customer_name, gender, age_range, nps_score, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insertStmt.Close()

		answerStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO submission_answer (submission_id, question_id, kind, value)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer answerStmt.Close()

		// submissions are newest first, seq grows with recording order
		for i := len(submissions) - 1; i >= 0; i-- {
			s := submissions[i]
			if existing[s.ID] {
				delete(existing, s.ID)
				continue
			}

			seq++
			_, err := insertStmt.ExecContext(ctx, s.ID, s.SurveyID, s.StoreID, toMillis(s.Timestamp), s.CustomerName, s.Gender, s.AgeRange, s.NPSScore, seq)
			if err != nil {
				return err
			}
			for qid, a := range s.Answers {
				if a.IsZero() {
					continue
				}
				if _, err := answerStmt.ExecContext(ctx, s.ID, qid, string(a.Kind), a.String()); err != nil {
					return err
				}
			}
		}

		for id := range existing {
			if _, err := tx.ExecContext(ctx, "DELETE FROM submission WHERE id = ?", id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *Repository) inTx(ctx context.Context, code string, fn func(tx *sql.Tx) error) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s.begin_tx: %w", code, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", code, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s.commit: %w", code, err)
	}
	return nil
}

func (repo *Repository) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		username,
		tokenID,
		refreshTokenID,
		toMillis(expiration),
	)
	if err != nil {
		return fmt.Errorf("db.store_token: %w", err)
	}
	return nil
}

// ConsumeToken deletes the matching token and returns its expiration.
func (repo *Repository) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	var expiration int64
	err := repo.db.
		QueryRowContext(ctx, `
			DELETE FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?
			RETURNING expiration`,
			username,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrTokenNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("db.consume_token: %w", err)
	}
	return fromMillis(expiration), nil
}

func (repo *Repository) RevokeTokens(ctx context.Context, username string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM token WHERE username = ?", username); err != nil {
		return fmt.Errorf("db.revoke_tokens: %w", err)
	}
	return nil
}
