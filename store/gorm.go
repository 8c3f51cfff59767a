package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qcmbuilder/qcm-api/models"
)

// GormStore implements Store on SQLite or PostgreSQL.
type GormStore struct {
	*gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func loadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrLoadFailed, err)
}

func saveErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSaveFailed, err)
}

func (s *GormStore) Save(ctx context.Context, userID uint, seriesID string, meta models.SeriesMetadata, questions []models.Question) (string, error) {
	err := s.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if seriesID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return err
			}
			series := models.Series{ID: id, UserID: userID, SeriesMetadata: meta}
			if err := tx.Omit(clause.Associations).Create(&series).Error; err != nil {
				return err
			}
			seriesID = id
		} else {
			res := tx.Model(&models.Series{}).Where("id = ?", seriesID).Updates(map[string]any{
				"objective": meta.Objective,
				"faculty":   meta.Faculty,
				"year":      meta.Year,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
			if err := tx.Where("series_id = ?", seriesID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
		}
		if len(questions) == 0 {
			return nil
		}
		rows := make([]models.Question, len(questions))
		for i, q := range questions {
			q.SeriesID = seriesID
			q.Position = i
			rows[i] = q
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return "", saveErr(err)
	}
	return seriesID, nil
}

func (s *GormStore) Load(ctx context.Context, seriesID string) (models.Series, error) {
	var series models.Series
	err := s.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", seriesID).
		First(&series).Error
	if err != nil {
		return models.Series{}, loadErr(err)
	}
	return series, nil
}

func (s *GormStore) Delete(ctx context.Context, seriesID string) error {
	var affected int64
	err := s.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("series_id = ?", seriesID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", seriesID).Delete(&models.Series{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return saveErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the user's series, newest first, with their question counts.
func (s *GormStore) List(ctx context.Context, userID uint) ([]models.SeriesSummary, error) {
	db := s.WithContext(ctx)
	var series []models.Series
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&series).Error; err != nil {
		return nil, loadErr(err)
	}
	summaries := make([]models.SeriesSummary, 0, len(series))
	if len(series) == 0 {
		return summaries, nil
	}

	ids := make([]string, len(series))
	for i, sr := range series {
		ids[i] = sr.ID
	}
	var counts []struct {
		SeriesID string
		Total    int64
	}
	err := db.Model(&models.Question{}).
		Select("series_id, COUNT(*) AS total").
		Where("series_id IN ?", ids).
		Group("series_id").
		Scan(&counts).Error
	if err != nil {
		return nil, loadErr(err)
	}
	bySeries := make(map[string]int64, len(counts))
	for _, c := range counts {
		bySeries[c.SeriesID] = c.Total
	}

	for _, sr := range series {
		summaries = append(summaries, models.SeriesSummary{
			ID:             sr.ID,
			SeriesMetadata: sr.SeriesMetadata,
			QuestionCount:  bySeries[sr.ID],
			CreatedAt:      sr.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *GormStore) UpdateMetadata(ctx context.Context, seriesID string, meta models.SeriesMetadata) error {
	res := s.WithContext(ctx).Model(&models.Series{}).Where("id = ?", seriesID).Updates(map[string]any{
		"objective": meta.Objective,
		"faculty":   meta.Faculty,
		"year":      meta.Year,
	})
	if res.Error != nil {
		return saveErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateQuestion writes the editable fields of one question. Id, case id, position and
// creation time never change after ingestion.
func (s *GormStore) UpdateQuestion(ctx context.Context, seriesID string, q models.Question) error {
	res := s.WithContext(ctx).Model(&models.Question{}).
		Where("series_id = ? AND id = ?", seriesID, q.ID).
		Updates(map[string]any{
			"text":            q.Text,
			"options":         q.Options,
			"correct_answers": q.CorrectAnswers,
			"justification":   q.Justification,
			"tags":            q.Tags,
			"sub_course":      q.SubCourse,
			"updated_at":      q.UpdatedAt,
		})
	if res.Error != nil {
		return saveErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSubCourse returns the existing entry when the name is already listed.
func (s *GormStore) AddSubCourse(ctx context.Context, userID uint, name string) (models.SubCourse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.SubCourse{}, ErrEmptyName
	}
	var sc models.SubCourse
	err := s.WithContext(ctx).
		Where(models.SubCourse{UserID: userID, Name: name}).
		FirstOrCreate(&sc).Error
	if err != nil {
		return models.SubCourse{}, saveErr(err)
	}
	return sc, nil
}

func (s *GormStore) ListSubCourses(ctx context.Context, userID uint) ([]models.SubCourse, error) {
	list := []models.SubCourse{}
	if err := s.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&list).Error; err != nil {
		return nil, loadErr(err)
	}
	return list, nil
}

func (s *GormStore) HasSubCourse(ctx context.Context, userID uint, name string) (bool, error) {
	var n int64
	err := s.WithContext(ctx).Model(&models.SubCourse{}).
		Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name)).
		Count(&n).Error
	if err != nil {
		return false, loadErr(err)
	}
	return n > 0, nil
}

// DeleteSubCourse removes a name from the list. Questions that reference it keep the name.
func (s *GormStore) DeleteSubCourse(ctx context.Context, userID uint, name string) error {
	res := s.WithContext(ctx).Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name)).Delete(&models.SubCourse{})
	if res.Error != nil {
		return saveErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SyncUser creates the user for a token subject on first sight and refreshes the
// nickname when the token carries a new one.
func (s *GormStore) SyncUser(ctx context.Context, subject, nickname string) (models.User, error) {
	db := s.WithContext(ctx)
	var user models.User
	err := db.Where("subject = ?", subject).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Subject: subject, Nickname: nickname}
		if err := db.Create(&user).Error; err != nil {
			return models.User{}, saveErr(err)
		}
		return user, nil
	case err != nil:
		return models.User{}, loadErr(err)
	}
	if nickname != "" && user.Nickname != nickname {
		user.Nickname = nickname
		if err := db.Save(&user).Error; err != nil {
			return models.User{}, saveErr(err)
		}
	}
	return user, nil
}
