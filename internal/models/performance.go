package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction model identifiers. The five base models plus the ensemble that
// blends them; the ensemble additionally designates a predicted winner per
// race via RaceEntry.PredictedWinner.
const (
	ModelGradientBoost = "gradient_boost"
	ModelRandomForest  = "random_forest"
	ModelNeuralNet     = "neural_net"
	ModelBayesian      = "bayesian"
	ModelFormRating    = "form_rating"
	ModelEnsemble      = "ensemble"
)

// BaseModels lists the five standalone prediction models.
var BaseModels = []string{
	ModelGradientBoost,
	ModelRandomForest,
	ModelNeuralNet,
	ModelBayesian,
	ModelFormRating,
}

// AllModels lists every model tracked by the accuracy ledger.
var AllModels = append(append([]string{}, BaseModels...), ModelEnsemble)

// MLModelRaceResult records one model's top pick for one race against the
// actual outcome. Upserted on (race_id, horse_name, model) so repeated runs
// are idempotent.
type MLModelRaceResult struct {
	ID                   uuid.UUID `json:"id"`
	RaceID               uuid.UUID `json:"race_id" validate:"required"`
	HorseName            string    `json:"horse_name" validate:"required"`
	Model                string    `json:"model" validate:"required"`
	PredictedProbability float64   `json:"predicted_probability" validate:"gte=0,lte=1"`
	ActualPosition       int       `json:"actual_position"`
	IsWinner             bool      `json:"is_winner"`
	IsTop3               bool      `json:"is_top3"`
	PredictionCorrect    bool      `json:"prediction_correct"`
	RaceDate             string    `json:"race_date" validate:"required,datetime=2006-01-02"`
	CreatedAt            time.Time `json:"created_at"`
}

// MLModelPerformance is the rolling per-model, per-day accuracy aggregate.
// Always recomputed in full from the MLModelRaceResult rows for that day and
// upserted on (model, day), so late or corrected results are safe to replay.
type MLModelPerformance struct {
	ID                     uuid.UUID `json:"id"`
	Model                  string    `json:"model" validate:"required"`
	Day                    string    `json:"day" validate:"required,datetime=2006-01-02"`
	TotalPredictions       int       `json:"total_predictions"`
	WinnerCount            int       `json:"winner_count"`
	Top3Count              int       `json:"top3_count"`
	WinnerAccuracy         float64   `json:"winner_accuracy"`
	Top3Accuracy           float64   `json:"top3_accuracy"`
	AvgConfidence          float64   `json:"avg_confidence"`
	AvgConfidenceCorrect   float64   `json:"avg_confidence_correct"`
	AvgConfidenceIncorrect float64   `json:"avg_confidence_incorrect"`
	UpdatedAt              time.Time `json:"updated_at"`
}
