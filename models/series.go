package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/qcmbuilder/qcm-api/vocab"
)

var ErrInvalidMetadata = errors.New("invalid series metadata")

// SeriesMetadata is attached once to every ingested batch.
type SeriesMetadata struct {
	Objective string `gorm:"not null;size:200" json:"objective"`
	Faculty   string `gorm:"not null;size:20" json:"faculty"`
	Year      int    `gorm:"not null" json:"year"`
}

func (m SeriesMetadata) Validate() error {
	v := vocab.Default()
	switch {
	case !v.HasObjective(m.Objective):
		return fmt.Errorf("%w: unknown objective %q", ErrInvalidMetadata, m.Objective)
	case !v.HasFaculty(m.Faculty):
		return fmt.Errorf("%w: unknown faculty %q", ErrInvalidMetadata, m.Faculty)
	case !v.HasYear(m.Year):
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidMetadata, m.Year, v.Years.First, v.Years.Last)
	}
	return nil
}

// Series is one ingested batch of questions owned by a user.
type Series struct {
	ID     string `gorm:"primaryKey;size:64" json:"id"`
	UserID uint   `gorm:"not null;index" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	SeriesMetadata `gorm:"embedded"`

	Questions []Question `gorm:"foreignKey:SeriesID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"questions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Series) TableName() string { return "series" }

// SeriesSummary is one row of a series listing.
type SeriesSummary struct {
	ID string `json:"id"`
	SeriesMetadata
	QuestionCount int64     `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
