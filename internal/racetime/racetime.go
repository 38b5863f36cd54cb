// Package racetime converts the card feed's half-day race times into true
// 24-hour clock time. The feed stores off times as "HH:MM" where afternoon
// races appear with their 12-hour clock value ("02:15" for 14:15), so a raw
// string compare orders a card wrongly and start checks misfire by 12 hours.
package racetime

import (
	"strconv"
	"strings"
	"time"
)

// Hours inside [pmEncodedHourMin, pmEncodedHourMax] are 12-hour encoded
// afternoon times; everything else is literal. UK cards run from midday into
// the evening, so 1-9 covers 13:00-21:00 while 10, 11 and 12 stay literal.
//
// TODO: confirm with the cards feed whether hours 10 and 11 are ever
// PM-encoded; older exports applied the shift up to 11.
const (
	pmEncodedHourMin = 1
	pmEncodedHourMax = 9
)

// Minutes returns the true minutes since midnight for a stored "HH:MM" race
// time. It is pure and total: malformed or empty input returns 0.
func Minutes(s string) int {
	hour, minute, ok := parse(s)
	if !ok {
		return 0
	}
	if hour >= pmEncodedHourMin && hour <= pmEncodedHourMax {
		hour += 12
	}
	return hour*60 + minute
}

// MinutesOfDay returns minutes since midnight for a wall-clock instant,
// evaluated in the instant's own location.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// HasStarted reports whether a race with the stored off time has gone off by
// now, with now taken as minutes since midnight in the same civil day.
func HasStarted(offTime string, nowMinutes int) bool {
	return Minutes(offTime) <= nowMinutes
}

func parse(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
