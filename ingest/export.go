package ingest

import (
	"time"

	"github.com/qcmbuilder/qcm-api/models"
)

// Envelope is the download format of a series. Ingest accepts it back as JSON input.
type Envelope struct {
	Metadata   models.SeriesMetadata `json:"metadata"`
	Questions  []models.Question     `json:"questions"`
	ExportedAt time.Time             `json:"exportedAt"`
}

func Export(meta models.SeriesMetadata, questions []models.Question, at time.Time) Envelope {
	if questions == nil {
		questions = []models.Question{}
	}
	return Envelope{Metadata: meta, Questions: questions, ExportedAt: at.UTC()}
}
