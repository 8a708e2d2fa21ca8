package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"schedule-sync-backend/internal/model"
)

var (
	creditRangeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
	timeRangeRe   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)\s*-\s*(\d{1,2}):(\d{2})\s*(AM|PM)$`)
	termCodeRe    = regexp.MustCompile(`^(FA|WN|SP|SU)(\d{4})$`)
)

// seasonNames maps the term-code season prefix to its display name.
var seasonNames = map[string]string{
	"FA": "Fall",
	"WN": "Winter",
	"SP": "Spring",
	"SU": "Summer",
}

// knownComponents is the fixed enumeration of section formats.
var knownComponents = map[model.Component]bool{
	model.ComponentLecture:     true,
	model.ComponentDiscussion:  true,
	model.ComponentLab:         true,
	model.ComponentSeminar:     true,
	model.ComponentRecitation:  true,
	model.ComponentIndependent: true,
}

// ValidTermCode reports whether code matches the (FA|WN|SP|SU)YYYY pattern.
func ValidTermCode(code string) bool {
	return termCodeRe.MatchString(code)
}

// Term derives a display name, year and season from a term code.
func Term(code string) (model.Term, error) {
	m := termCodeRe.FindStringSubmatch(code)
	if m == nil {
		return model.Term{}, fmt.Errorf("invalid term code: %q", code)
	}
	year, _ := strconv.Atoi(m[2])
	season := seasonNames[m[1]]
	return model.Term{
		Code:   code,
		Name:   fmt.Sprintf("%s %d", season, year),
		Year:   year,
		Season: season,
	}, nil
}

// Credits parses the free-text units field. A range yields (min, max), a
// single value yields (value, value), anything else yields (nil, nil).
func Credits(raw string) (*float64, *float64) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if m := creditRangeRe.FindStringSubmatch(s); m != nil {
		min, err1 := strconv.ParseFloat(m[1], 64)
		max, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return &min, &max
		}
		return nil, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v, &v
	}
	return nil, nil
}

// TimeRange converts a 12-hour "H:MM(AM|PM)-H:MM(AM|PM)" range into a pair of
// 24-hour "HH:MM:00" strings. ARR, empty and unparseable input yield (nil, nil).
func TimeRange(raw string) (*string, *string) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "ARR") || strings.EqualFold(s, "TBA") {
		return nil, nil
	}
	m := timeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	start := to24h(m[1], m[2], m[3])
	end := to24h(m[4], m[5], m[6])
	return &start, &end
}

func to24h(hourStr, minStr, meridiem string) string {
	hour, _ := strconv.Atoi(hourStr)
	if strings.EqualFold(meridiem, "PM") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(meridiem, "AM") && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%s:00", hour, minStr)
}

// Days canonicalizes the day-letters field. ARR/TBA/empty yield nil,
// everything else passes through uppercased.
func Days(raw string) *string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "ARR" || s == "TBA" {
		return nil
	}
	return &s
}

// Location normalizes the location field. ARR/TBA/empty yield nil.
func Location(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "ARR") || strings.EqualFold(s, "TBA") {
		return nil
	}
	return &s
}

// Component normalizes the component field against the fixed enumeration.
// Unrecognized or absent values default to lecture.
func Component(raw string) model.Component {
	c := model.Component(strings.ToUpper(strings.TrimSpace(raw)))
	if knownComponents[c] {
		return c
	}
	return model.ComponentLecture
}

// Int parses a numeric count field; malformed or empty input degrades to 0.
func Int(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
