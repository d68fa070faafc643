package officetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IST - часовой пояс офиса (UTC+5:30)
var IST = time.FixedZone("IST", 5*3600+30*60)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// LocalTime - временная метка платформы, приведенная к часовому поясу офиса
type LocalTime struct {
	Time time.Time
}

// String возвращает строку для подстановки в промпты модели
func (lt LocalTime) String() string {
	return lt.Time.Format("02/01/2006, 3:04:05 pm")
}

// Resolve парсит метку события платформы вида "<секунды>.<микросекунды>"
// и возвращает момент времени в часовом поясе IST
func Resolve(raw string) (LocalTime, error) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	seconds, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	micros, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	millis := seconds*1000 + micros/1000
	return LocalTime{Time: time.UnixMilli(millis).In(IST)}, nil
}

// windowFor возвращает границы рабочего дня в минутах от полуночи.
// Пн-Пт 9:00-18:00, Сб 9:00-13:00, Вс - выходной
func windowFor(day time.Weekday) (openMin, closeMin int, ok bool) {
	switch day {
	case time.Saturday:
		return 9 * 60, 13 * 60, true
	case time.Sunday:
		return 0, 0, false
	default:
		return 9 * 60, 18 * 60, true
	}
}

// IsWithinOfficeHours проверяет, попадает ли момент в рабочие часы офиса
func IsWithinOfficeHours(t time.Time) bool {
	t = t.In(IST)
	open, close, ok := windowFor(t.Weekday())
	if !ok {
		return false
	}

	minutes := t.Hour()*60 + t.Minute()
	return minutes >= open && minutes < close
}

// NextWorkingWindow возвращает границы ближайшего рабочего окна.
// До открытия - окно того же дня, после закрытия (или в воскресенье) -
// окно следующего рабочего дня
func NextWorkingWindow(t time.Time) (start, end time.Time) {
	t = t.In(IST)

	for i := 0; i < 8; i++ {
		day := t.AddDate(0, 0, i)
		open, close, ok := windowFor(day.Weekday())
		if !ok {
			continue
		}

		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, IST)
		start = midnight.Add(time.Duration(open) * time.Minute)
		end = midnight.Add(time.Duration(close) * time.Minute)

		// Сегодняшнее окно подходит, только если оно еще не закрылось
		if i == 0 && !t.Before(end) {
			continue
		}

		return start, end
	}

	// Недостижимо: в любой неделе есть рабочие дни
	return t, t
}
