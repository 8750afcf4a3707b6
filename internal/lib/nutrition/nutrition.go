// Package nutrition рассчитывает дневные нормы КБЖУ по анкетным данным
// пользователя: базовый метаболизм по формуле Миффлина-Сан Жеора, общий
// расход с учётом уровня активности и распределение макронутриентов под цель.
package nutrition

import "github.com/fitcoachapp/fitcoach/internal/models"

// Targets — рассчитанные дневные нормы.
type Targets struct {
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	Calories int     `json:"calories"`
	Protein  int     `json:"protein"` // граммы
	Carbs    int     `json:"carbs"`   // граммы
	Fats     int     `json:"fats"`    // граммы
}

var activityMultipliers = map[models.ActivityLevel]float64{
	models.ActivitySedentary:  1.2,
	models.ActivityLight:      1.375,
	models.ActivityModerate:   1.55,
	models.ActivityActive:     1.725,
	models.ActivityVeryActive: 1.9,
}

// Calculate возвращает дневные нормы для пользователя. Вес в кг, рост в см.
// Неизвестный уровень активности трактуется как умеренный.
func Calculate(gender string, age int, height, weight float64, activity models.ActivityLevel, goal models.Goal) Targets {
	bmr := 10*weight + 6.25*height - 5*float64(age)
	if gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier, ok := activityMultipliers[activity]
	if !ok {
		multiplier = activityMultipliers[models.ActivityModerate]
	}
	tdee := bmr * multiplier

	var calories int
	var proteinRatio, carbsRatio, fatsRatio float64
	switch goal {
	case models.GoalWeightLoss:
		calories = int(tdee * 0.8) // дефицит 20%
		proteinRatio, carbsRatio, fatsRatio = 0.3, 0.35, 0.35
	case models.GoalMuscleGain:
		calories = int(tdee * 1.1) // профицит 10%
		proteinRatio, carbsRatio, fatsRatio = 0.3, 0.45, 0.25
	case models.GoalTone:
		calories = int(tdee * 0.9)
		proteinRatio, carbsRatio, fatsRatio = 0.35, 0.35, 0.3
	default: // maintain
		calories = int(tdee)
		proteinRatio, carbsRatio, fatsRatio = 0.25, 0.45, 0.3
	}

	return Targets{
		BMR:      bmr,
		TDEE:     tdee,
		Calories: calories,
		Protein:  int(float64(calories) * proteinRatio / 4), // 4 ккал/г
		Carbs:    int(float64(calories) * carbsRatio / 4),
		Fats:     int(float64(calories) * fatsRatio / 9), // 9 ккал/г
	}
}
