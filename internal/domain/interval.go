package domain

import (
	"sort"
	"time"
)

// Interval полуоткрытый временной интервал [Start, End)
// Вся интервальная арифметика доступности построена на этом типе
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsValid проверяет, что интервал непустой
func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

// Duration возвращает длительность интервала
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps проверяет реальное пересечение интервалов
// Граничащие интервалы (конец одного == начало другого) НЕ пересекаются
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains проверяет, что other целиком лежит внутри i
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Pad расширяет интервал на pad с обеих сторон
// Используется для буферов: бронирование 10:00-10:30 с буфером 5 минут
// блокирует 09:55-10:35
func (i Interval) Pad(pad time.Duration) Interval {
	return Interval{
		Start: i.Start.Add(-pad),
		End:   i.End.Add(pad),
	}
}

// MergeIntervals сортирует интервалы по началу и склеивает пересекающиеся и граничащие
// Возвращает новый слайс, вход не модифицируется
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsValid() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}

	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		// Граничащие интервалы тоже склеиваем: свободного окна между ними нет
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// SubtractIntervals вычитает blocked из window, возвращая свободные окна
// blocked должен быть предварительно прогнан через MergeIntervals
func SubtractIntervals(window Interval, blocked []Interval) []Interval {
	if !window.IsValid() {
		return nil
	}

	free := make([]Interval, 0, len(blocked)+1)
	cursor := window.Start

	for _, b := range blocked {
		// Блокировки целиком вне окна пропускаем
		if !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}

		if b.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}

	return free
}

// FilterFitting оставляет только окна, в которые помещается услуга длительностью minDuration
func FilterFitting(windows []Interval, minDuration time.Duration) []Interval {
	fitting := make([]Interval, 0, len(windows))
	for _, w := range windows {
		if w.Duration() >= minDuration {
			fitting = append(fitting, w)
		}
	}
	return fitting
}

// ClipStart обрезает окна слева границей notBefore
// Окна, целиком лежащие до границы, отбрасываются
func ClipStart(windows []Interval, notBefore time.Time) []Interval {
	clipped := make([]Interval, 0, len(windows))
	for _, w := range windows {
		if !w.End.After(notBefore) {
			continue
		}
		if w.Start.Before(notBefore) {
			w.Start = notBefore
		}
		clipped = append(clipped, w)
	}
	return clipped
}
