package models

import "time"

// WeightSample — один замер веса пользователя. Записи только добавляются
// и никогда не изменяются; анализатор тренда читает ограниченное окно
// последних замеров.
type WeightSample struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	Weight  float64   `json:"weight"`
	TakenAt time.Time `json:"taken_at"`
}

// DummyWeight используется для приёма замера веса из JSON-запроса.
type DummyWeight struct {
	Weight float64 `json:"weight" validate:"required,gt=20,lt=400"` // Вес в кг
}
