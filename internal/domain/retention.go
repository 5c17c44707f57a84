package domain

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Параметры хранения элементов в корзине
const (
	// RetentionPeriod — срок, в течение которого удалённый элемент можно восстановить
	RetentionPeriod = 30 * 24 * time.Hour

	// WarningThresholdDays — порог в днях, после которого показывается предупреждение
	WarningThresholdDays = 7

	// UrgentThresholdDays — порог в днях, после которого удаление считается скорым
	UrgentThresholdDays = 3
)

// Urgency показывает, насколько близок элемент к окончательному удалению.
// Используется только для отображения: единственным механизмом принудительного
// удаления остаётся фоновая очистка.
type Urgency string

const (
	UrgencyNormal  Urgency = "normal"
	UrgencyWarning Urgency = "warning"
	UrgencyUrgent  Urgency = "urgent"
)

// RetentionPolicy вычисляет сроки хранения удалённых элементов. Чистая
// логика без побочных эффектов; текущее время берётся из внедрённых часов,
// чтобы тесты могли моделировать ход времени.
type RetentionPolicy struct {
	clock clock.Clock
}

func NewRetentionPolicy(clk clock.Clock) *RetentionPolicy {
	return &RetentionPolicy{clock: clk}
}

// ExpirationOf возвращает момент окончательного удаления элемента
func (p *RetentionPolicy) ExpirationOf(deletedAt time.Time) time.Time {
	return deletedAt.Add(RetentionPeriod)
}

// DaysRemaining возвращает число полных или неполных дней до окончательного
// удаления. Может быть нулевым или отрицательным, если очистка ещё не успела
// пройти — это штатная ситуация, а не ошибка.
func (p *RetentionPolicy) DaysRemaining(deletedAt time.Time) int {
	remaining := p.ExpirationOf(deletedAt).Sub(p.clock.Now())
	days := remaining / (24 * time.Hour)
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}

// IsExpired сообщает, истёк ли срок хранения элемента
func (p *RetentionPolicy) IsExpired(deletedAt time.Time) bool {
	return p.DaysRemaining(deletedAt) <= 0
}

// UrgencyOf возвращает степень срочности для отображения в корзине
func (p *RetentionPolicy) UrgencyOf(deletedAt time.Time) Urgency {
	days := p.DaysRemaining(deletedAt)
	switch {
	case days <= UrgentThresholdDays:
		return UrgencyUrgent
	case days <= WarningThresholdDays:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}
