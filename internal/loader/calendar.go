package loader

import (
	"fmt"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Locale selects the language of calendar names in dim_time.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
)

var dayNames = map[Locale][7]string{
	LocaleEnglish: {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	LocaleSpanish: {"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"},
}

var monthNames = map[Locale][12]string{
	LocaleEnglish: {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	LocaleSpanish: {"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
}

func ParseLocale(value string) (Locale, error) {
	l := Locale(value)
	if _, ok := dayNames[l]; !ok {
		return "", fmt.Errorf("unsupported calendar locale %q", value)
	}
	return l, nil
}

// TimeKey returns the dim_time key of t's calendar date: yyyymmdd.
func TimeKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// WeekOfYear numbers weeks from 1, with week 1 starting on January 1 and
// every later week starting on a Monday.
func WeekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	offset := (int(jan1.Weekday()) + 6) % 7 // days since Monday
	return (t.YearDay()-1+offset)/7 + 1
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NewTimeRow builds the dim_time row of t's calendar date. Holidays are not
// tracked; IsHoliday is always false.
func NewTimeRow(t time.Time, locale Locale) models.DimTime {
	days, ok := dayNames[locale]
	if !ok {
		locale = LocaleEnglish
		days = dayNames[locale]
	}
	y, m, d := t.Date()
	quarter := (int(m)-1)/3 + 1
	weekend := isWeekend(t)

	return models.DimTime{
		TimeKey:       TimeKey(t),
		FullDate:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Day:           d,
		Week:          WeekOfYear(t),
		Month:         int(m),
		Quarter:       quarter,
		Year:          y,
		DayName:       days[t.Weekday()],
		MonthName:     monthNames[locale][m-1],
		QuarterName:   fmt.Sprintf("Q%d", quarter),
		IsWeekend:     weekend,
		IsHoliday:     false,
		IsBusinessDay: !weekend,
	}
}
