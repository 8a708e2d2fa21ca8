package normalize

import (
	"strings"

	"schedule-sync-backend/internal/feed"
	"schedule-sync-backend/internal/model"
	"schedule-sync-backend/internal/parse"
)

// Source column names in the registrar export.
const (
	colSubject       = "Subject"
	colCatalog       = "Catalog Nbr"
	colClassNumber   = "Class Nbr"
	colTitle         = "Course Title"
	colUnits         = "Units"
	colPrerequisites = "Prerequisites"
	colAcademicGroup = "Acad Group"
	colSection       = "Section"
	colComponent     = "Component"
	colInstructor    = "Instructor"
	colEnrollCap     = "Enrollment Cap"
	colEnrollTotal   = "Enrollment Total"
	colWaitCap       = "Wait Cap"
	colWaitTotal     = "Wait Total"
	colDays          = "Days"
	colTime          = "Time"
	colLocation      = "Location"
)

// keySentinel stands in for absent meeting-key parts so the key is always total.
const keySentinel = "-"

// Section pairs a section with the course natural key it still needs resolved.
type Section struct {
	model.Section
	SubjectCode   string
	CatalogNumber string
}

// Meeting pairs a meeting with the section natural key it still needs resolved.
type Meeting struct {
	model.Meeting
	TermCode    string
	ClassNumber string
}

// EntitySet holds the four deduplicated entity collections produced from one
// source file. Slices preserve first-occurrence order.
type EntitySet struct {
	Subjects []model.Subject
	Courses  []model.Course
	Sections []Section
	Meetings []Meeting
	RawRows  int
}

type courseKey struct {
	subject string
	catalog string
}

// Run builds the deduplicated entity sets for a term from the raw export rows.
// It is a pure function of its inputs: rows missing any of the three key
// fields are discarded, duplicate natural keys keep the first occurrence, and
// malformed value fields degrade to null or zero rather than failing the row.
func Run(termCode string, rows []feed.Record) *EntitySet {
	set := &EntitySet{RawRows: len(rows)}

	seenSubjects := make(map[string]bool)
	seenCourses := make(map[courseKey]bool)
	seenSections := make(map[string]bool)
	seenMeetings := make(map[string]bool)

	for _, row := range rows {
		subjectCode := strings.TrimSpace(row[colSubject])
		catalogNumber := strings.TrimSpace(row[colCatalog])
		classNumber := strings.TrimSpace(row[colClassNumber])
		if subjectCode == "" || catalogNumber == "" || classNumber == "" {
			// No key can be formed from this row.
			continue
		}

		if !seenSubjects[subjectCode] {
			seenSubjects[subjectCode] = true
			var group *string
			if g := strings.TrimSpace(row[colAcademicGroup]); g != "" {
				group = &g
			}
			set.Subjects = append(set.Subjects, model.Subject{
				Code:          subjectCode,
				Name:          subjectCode, // the export carries no full name
				AcademicGroup: group,
			})
		}

		ck := courseKey{subject: subjectCode, catalog: catalogNumber}
		if !seenCourses[ck] {
			seenCourses[ck] = true
			creditsMin, creditsMax := parse.Credits(row[colUnits])
			var prereq *string
			if p := strings.TrimSpace(row[colPrerequisites]); p != "" {
				prereq = &p
			}
			set.Courses = append(set.Courses, model.Course{
				SubjectCode:   subjectCode,
				CatalogNumber: catalogNumber,
				Title:         strings.TrimSpace(row[colTitle]),
				CreditsMin:    creditsMin,
				CreditsMax:    creditsMax,
				Prerequisites: prereq,
			})
		}

		sk := termCode + "|" + classNumber
		if !seenSections[sk] {
			seenSections[sk] = true
			enrollCap := parse.Int(row[colEnrollCap])
			enrollTotal := parse.Int(row[colEnrollTotal])
			var instructor *string
			if in := strings.TrimSpace(row[colInstructor]); in != "" {
				instructor = &in
			}
			set.Sections = append(set.Sections, Section{
				Section: model.Section{
					TermCode:        termCode,
					ClassNumber:     classNumber,
					SectionNumber:   strings.TrimSpace(row[colSection]),
					Component:       parse.Component(row[colComponent]),
					Instructor:      instructor,
					EnrollmentCap:   enrollCap,
					EnrollmentTotal: enrollTotal,
					WaitlistCap:     parse.Int(row[colWaitCap]),
					WaitlistTotal:   parse.Int(row[colWaitTotal]),
					IsOpen:          enrollTotal < enrollCap,
				},
				SubjectCode:   subjectCode,
				CatalogNumber: catalogNumber,
			})
		}

		days := parse.Days(row[colDays])
		startTime, endTime := parse.TimeRange(row[colTime])
		location := parse.Location(row[colLocation])
		mk := strings.Join([]string{
			termCode, classNumber,
			orSentinel(days), orSentinel(startTime), orSentinel(endTime), orSentinel(location),
		}, "|")
		if !seenMeetings[mk] {
			seenMeetings[mk] = true
			set.Meetings = append(set.Meetings, Meeting{
				Meeting: model.Meeting{
					Days:       days,
					StartTime:  startTime,
					EndTime:    endTime,
					Location:   location,
					IsArranged: days == nil && startTime == nil,
				},
				TermCode:    termCode,
				ClassNumber: classNumber,
			})
		}
	}

	return set
}

func orSentinel(v *string) string {
	if v == nil {
		return keySentinel
	}
	return *v
}
