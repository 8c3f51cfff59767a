// Package store persists series, their questions and the per-user sub-course lists.
package store

import (
	"context"
	"errors"

	"github.com/qcmbuilder/qcm-api/models"
)

var (
	ErrSaveFailed = errors.New("save failed")
	ErrLoadFailed = errors.New("load failed")
	ErrNotFound   = errors.New("not found")
	ErrEmptyName  = errors.New("name is empty")
)

// Collections stores whole series. Save with an empty seriesID creates a series;
// otherwise it replaces the metadata and every question of the existing one.
type Collections interface {
	Save(ctx context.Context, userID uint, seriesID string, meta models.SeriesMetadata, questions []models.Question) (string, error)
	Load(ctx context.Context, seriesID string) (models.Series, error)
	Delete(ctx context.Context, seriesID string) error
	List(ctx context.Context, userID uint) ([]models.SeriesSummary, error)

	UpdateMetadata(ctx context.Context, seriesID string, meta models.SeriesMetadata) error
	UpdateQuestion(ctx context.Context, seriesID string, q models.Question) error
}

type SubCourses interface {
	AddSubCourse(ctx context.Context, userID uint, name string) (models.SubCourse, error)
	ListSubCourses(ctx context.Context, userID uint) ([]models.SubCourse, error)
	HasSubCourse(ctx context.Context, userID uint, name string) (bool, error)
	DeleteSubCourse(ctx context.Context, userID uint, name string) error
}

type Users interface {
	SyncUser(ctx context.Context, subject, nickname string) (models.User, error)
}

type Store interface {
	Collections
	SubCourses
	Users
}
