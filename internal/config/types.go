package config

import (
	"fmt"
	"strings"
	"time"
)

// TaskConfig overrides one entry of the built-in reminder table.
// Empty fields keep the built-in value.
type TaskConfig struct {
	Enabled  *bool    `mapstructure:"enabled"`
	Time     string   `mapstructure:"time"     validate:"omitempty,datetime=15:04"`
	Weekdays []string `mapstructure:"weekdays" validate:"dive,weekday"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts short and long English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// ParsedWeekdays converts the configured names. It returns nil, nil when the
// override does not set weekdays.
func (t TaskConfig) ParsedWeekdays() ([]time.Weekday, error) {
	if len(t.Weekdays) == 0 {
		return nil, nil
	}
	days := make([]time.Weekday, 0, len(t.Weekdays))
	for _, name := range t.Weekdays {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}
