package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Calendar is a release campaign plan grouped by week and day.
type Calendar struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate"`
	Weeks       []Week `json:"weeks"`
}

// Week is one "## Week <n> (<range>)" group.
type Week struct {
	Number    int    `json:"number"`
	DateRange string `json:"dateRange"`
	Days      []Day  `json:"days"`
}

// Day is one "### <Month> <day> (<weekday>)" group. Content holds the
// "- **Key:** value" bullets of the day; repeated keys keep the last value.
type Day struct {
	Month     string            `json:"month"`
	Date      int               `json:"date"`
	DayOfWeek string            `json:"dayOfWeek"`
	Content   map[string]string `json:"content"`
}

var (
	weekRe        = regexp.MustCompile(`^## Week (\d+) \(([^)]+)\)`)
	dayRe         = regexp.MustCompile(`^### ([A-Za-z]+) (\d{1,2}) \(([^)]+)\)`)
	bulletRe      = regexp.MustCompile(`^- \*\*([^*]*?):\*\*\s*(.*)$`)
	releaseDateRe = regexp.MustCompile(`(?i)^\W*release date:?\W*\s*(.+)$`)
)

type calendarState int

const (
	calSeeking calendarState = iota
	calInWeek
	calInDay
)

// ParseCalendar extracts the week and day plan of a content calendar.
//
// A day belongs to the most recently opened week. Any other level 1 or 2
// heading closes the current week, and day headings outside a week are
// dropped. Bullets only count inside a day; a day ends at the next level 3
// heading. The title is the first "# " heading and the release
// date the first "Release Date:" line, both optional.
func ParseCalendar(text string) Calendar {
	cal := Calendar{Weeks: []Week{}}
	state := calSeeking

	var (
		week *Week
		day  *Day
	)

	closeDay := func() {
		if day != nil && week != nil {
			week.Days = append(week.Days, *day)
		}

		day = nil
	}

	closeWeek := func() {
		closeDay()

		if week != nil {
			cal.Weeks = append(cal.Weeks, *week)
		}

		week = nil
	}

	for _, line := range lines(text) {
		level := headingLevel(line)

		if cal.Title == "" {
			if title, ok := headingText(line, 1); ok {
				cal.Title = title
			}
		}

		if cal.ReleaseDate == "" && level == 0 {
			if m := releaseDateRe.FindStringSubmatch(line); m != nil {
				cal.ReleaseDate = stripEmphasis(m[1])
			}
		}

		switch {
		case level == 2:
			closeWeek()
			state = calSeeking

			m := weekRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			number, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}

			week = &Week{Number: number, DateRange: m[2], Days: []Day{}}
			state = calInWeek

		case level == 1:
			closeWeek()
			state = calSeeking

		case level == 3:
			closeDay()

			if state == calSeeking {
				continue
			}

			state = calInWeek

			m := dayRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			date, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}

			day = &Day{Month: m[1], Date: date, DayOfWeek: m[3], Content: map[string]string{}}
			state = calInDay

		case state == calInDay:
			if m := bulletRe.FindStringSubmatch(line); m != nil {
				day.Content[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
			}
		}
	}

	closeWeek()

	return cal
}
