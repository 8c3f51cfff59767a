package store

import (
	"context"
	"testing"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"

	"github.com/qcmbuilder/qcm-api/config"
	"github.com/qcmbuilder/qcm-api/ingest"
	"github.com/qcmbuilder/qcm-api/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := config.Connect(config.DriverSQLite, "file:"+gonanoid.Must()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return NewGormStore(db)
}

func newTestUser(t *testing.T, s *GormStore, subject string) models.User {
	t.Helper()
	u, err := s.SyncUser(context.Background(), subject, "")
	require.NoError(t, err)
	return u
}

func scenario(t *testing.T) []models.Question {
	t.Helper()
	res, err := ingest.Ingest("question,propositions,cas\nQ1?,A;B;C,\nQ2?,X;Y,case1\nQ3?,M;N,case1\n", ingest.FormatCSV)
	require.NoError(t, err)
	return res.Questions
}

var meta = models.SeriesMetadata{Objective: "AVC", Faculty: "FMT", Year: 2024}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")
	questions := scenario(t)

	id, err := s.Save(ctx, user.ID, "", meta, questions)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	series, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, user.ID, series.UserID)
	require.Equal(t, meta, series.SeriesMetadata)
	require.Len(t, series.Questions, 3)
	for i, q := range series.Questions {
		require.Equal(t, questions[i].ID, q.ID)
		require.Equal(t, questions[i].Text, q.Text)
		require.Equal(t, questions[i].Options, q.Options)
		require.Equal(t, questions[i].CaseID, q.CaseID)
		require.Equal(t, i, q.Position)
	}
	require.Equal(t, *series.Questions[1].CaseID, *series.Questions[2].CaseID)
}

func TestSave_FullReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")

	id, err := s.Save(ctx, user.ID, "", meta, scenario(t))
	require.NoError(t, err)

	replacement := scenario(t)[:1]
	newMeta := models.SeriesMetadata{Objective: "Asthme", Faculty: "FMS", Year: 2023}
	got, err := s.Save(ctx, user.ID, id, newMeta, replacement)
	require.NoError(t, err)
	require.Equal(t, id, got)

	series, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, newMeta, series.SeriesMetadata)
	require.Len(t, series.Questions, 1)
	require.Equal(t, replacement[0].ID, series.Questions[0].ID)

	_, err = s.Save(ctx, user.ID, "missing", meta, replacement)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSave_SameQuestionsInTwoSeries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")
	questions := scenario(t)

	_, err := s.Save(ctx, user.ID, "", meta, questions)
	require.NoError(t, err)
	_, err = s.Save(ctx, user.ID, "", meta, questions)
	require.NoError(t, err)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := newTestStore(t).Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")

	id, err := s.Save(ctx, user.ID, "", meta, scenario(t))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Load(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	var remaining int64
	require.NoError(t, s.Model(&models.Question{}).Where("series_id = ?", id).Count(&remaining).Error)
	require.Zero(t, remaining)

	require.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := newTestUser(t, s, "auth0|alice")
	bob := newTestUser(t, s, "auth0|bob")

	older, err := s.Save(ctx, alice.ID, "", meta, scenario(t))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := s.Save(ctx, alice.ID, "", models.SeriesMetadata{Objective: "Coma", Faculty: "FMM", Year: 2020}, nil)
	require.NoError(t, err)
	_, err = s.Save(ctx, bob.ID, "", meta, scenario(t))
	require.NoError(t, err)

	list, err := s.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer, list[0].ID)
	require.Equal(t, "Coma", list[0].Objective)
	require.Zero(t, list[0].QuestionCount)
	require.Equal(t, older, list[1].ID)
	require.Equal(t, int64(3), list[1].QuestionCount)

	empty, err := s.List(ctx, 999)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestUpdateQuestion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")
	id, err := s.Save(ctx, user.ID, "", meta, scenario(t))
	require.NoError(t, err)

	series, err := s.Load(ctx, id)
	require.NoError(t, err)
	q := series.Questions[0]
	require.NoError(t, q.RemoveOption(0))
	require.NoError(t, q.ToggleCorrectAnswer("B"))
	require.NoError(t, q.ToggleTag("Biologie"))
	name := "Neurologie"
	q.SetSubCourse(&name)
	require.NoError(t, s.UpdateQuestion(ctx, id, q))

	series, err = s.Load(ctx, id)
	require.NoError(t, err)
	got := series.Questions[0]
	require.Equal(t, []string{"B", "C"}, []string(got.Options))
	require.Equal(t, []string{"B"}, []string(got.CorrectAnswers))
	require.Equal(t, []string{"Biologie"}, []string(got.Tags))
	require.Equal(t, "Neurologie", *got.SubCourse)
	require.Equal(t, 0, got.Position)

	q.ID = "missing"
	require.ErrorIs(t, s.UpdateQuestion(ctx, id, q), ErrNotFound)
}

func TestUpdateMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")
	id, err := s.Save(ctx, user.ID, "", meta, nil)
	require.NoError(t, err)

	updated := models.SeriesMetadata{Objective: "Anémies", Faculty: "FMSF", Year: 2035}
	require.NoError(t, s.UpdateMetadata(ctx, id, updated))
	series, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, updated, series.SeriesMetadata)

	require.ErrorIs(t, s.UpdateMetadata(ctx, "missing", updated), ErrNotFound)
}

func TestSubCourses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := newTestUser(t, s, "auth0|alice")
	bob := newTestUser(t, s, "auth0|bob")

	first, err := s.AddSubCourse(ctx, alice.ID, "  Neurologie ")
	require.NoError(t, err)
	require.Equal(t, "Neurologie", first.Name)
	again, err := s.AddSubCourse(ctx, alice.ID, "Neurologie")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	_, err = s.AddSubCourse(ctx, alice.ID, "Cardiologie")
	require.NoError(t, err)
	_, err = s.AddSubCourse(ctx, bob.ID, "Pédiatrie")
	require.NoError(t, err)
	_, err = s.AddSubCourse(ctx, alice.ID, "  ")
	require.ErrorIs(t, err, ErrEmptyName)

	list, err := s.ListSubCourses(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Cardiologie", list[0].Name)
	require.Equal(t, "Neurologie", list[1].Name)

	ok, err := s.HasSubCourse(ctx, alice.ID, "Neurologie")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.HasSubCourse(ctx, alice.ID, "Pédiatrie")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.DeleteSubCourse(ctx, alice.ID, "Neurologie"))
	require.ErrorIs(t, s.DeleteSubCourse(ctx, alice.ID, "Neurologie"), ErrNotFound)
	list, err = s.ListSubCourses(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteSubCourse_KeepsQuestionReference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := newTestUser(t, s, "auth0|alice")
	_, err := s.AddSubCourse(ctx, user.ID, "Neurologie")
	require.NoError(t, err)

	questions := scenario(t)
	name := "Neurologie"
	questions[0].SetSubCourse(&name)
	id, err := s.Save(ctx, user.ID, "", meta, questions)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSubCourse(ctx, user.ID, "Neurologie"))
	series, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Neurologie", *series.Questions[0].SubCourse)
}

func TestSyncUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.SyncUser(ctx, "auth0|alice", "alice")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	same, err := s.SyncUser(ctx, "auth0|alice", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, same.ID)
	require.Equal(t, "alice", same.Nickname)

	renamed, err := s.SyncUser(ctx, "auth0|alice", "alice2")
	require.NoError(t, err)
	require.Equal(t, created.ID, renamed.ID)
	require.Equal(t, "alice2", renamed.Nickname)
}
