// Package trend вычисляет скорость изменения веса по окну последних замеров
// и предлагает поправку дневной нормы калорий в зависимости от цели
// пользователя. Пакет чистый: функция от списка замеров и цели, никакого
// ввода-вывода и отправки сообщений — применение поправки и уведомление
// остаются на вызывающей стороне.
package trend

import (
	"errors"

	"github.com/fitcoachapp/fitcoach/internal/models"
)

// WindowSize — сколько последних замеров участвует в анализе.
const WindowSize = 7

// MinSamples — минимум замеров для вынесения рекомендации.
const MinSamples = 3

// ErrInsufficientData возвращается, когда замеров меньше MinSamples.
var ErrInsufficientData = errors.New("not enough weight samples")

// Classification — человеко-читаемая оценка прогресса.
type Classification string

const (
	// ClassTooFast — потеря веса быстрее безопасного темпа.
	ClassTooFast Classification = "too_fast"
	// ClassStalled — вес не снижается при цели похудения.
	ClassStalled Classification = "stalled"
	// ClassOnTrack — темп в пределах целевого коридора.
	ClassOnTrack Classification = "on_track"
	// ClassTooFastGain — слишком быстрый набор при цели набора массы.
	ClassTooFastGain Classification = "too_fast_gain"
	// ClassUnderGaining — набор массы не идёт.
	ClassUnderGaining Classification = "under_gaining"
	// ClassNone — корректировка не требуется или цель не отслеживается.
	ClassNone Classification = "none"
)

// Recommendation — результат анализа: поправка калорий (0 — без изменений),
// классификация прогресса и средняя скорость изменения веса, кг/день.
type Recommendation struct {
	CalorieDelta   int
	Classification Classification
	Velocity       float64
}

// Analyze принимает замеры, упорядоченные по дате убыванием (samples[0] —
// самый свежий), и цель пользователя. Скорость считается как разница между
// самым свежим и самым старым замером окна, делённая на количество
// интервалов между ними.
func Analyze(samples []models.WeightSample, goal models.Goal) (Recommendation, error) {
	if len(samples) > WindowSize {
		samples = samples[:WindowSize]
	}
	if len(samples) < MinSamples {
		return Recommendation{}, ErrInsufficientData
	}

	newest := samples[0].Weight
	oldest := samples[len(samples)-1].Weight
	velocity := (newest - oldest) / float64(len(samples)-1)

	rec := Recommendation{Classification: ClassNone, Velocity: velocity}

	switch goal {
	case models.GoalWeightLoss:
		switch {
		case velocity < -0.2:
			rec.CalorieDelta = 100
			rec.Classification = ClassTooFast
		case velocity > 0.1:
			rec.CalorieDelta = -100
			rec.Classification = ClassStalled
		case velocity >= -0.2 && velocity <= -0.05:
			rec.Classification = ClassOnTrack
		}
	case models.GoalMuscleGain:
		switch {
		case velocity < 0.05:
			rec.CalorieDelta = 150
			rec.Classification = ClassUnderGaining
		case velocity > 0.3:
			rec.CalorieDelta = -100
			rec.Classification = ClassTooFastGain
		}
	}

	return rec, nil
}
