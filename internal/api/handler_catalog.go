package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"schedule-sync-backend/internal/model"
)

// GetTerms handles the GET /api/terms request.
func GetTerms(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var terms []model.Term
		if err := db.Order("year DESC, code").Find(&terms).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve terms"})
			return
		}
		c.JSON(http.StatusOK, terms)
	}
}

// sectionResponse flattens a section with its course and meetings for the API.
type sectionResponse struct {
	model.Section
	SubjectCode   string          `json:"subjectCode"`
	CatalogNumber string          `json:"catalogNumber"`
	Title         string          `json:"title"`
	Meetings      []model.Meeting `json:"meetings"`
}

// GetSections handles the GET /api/terms/{term_code}/sections request. An
// optional subject query parameter narrows the result to one subject.
func GetSections(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		termCode := c.Param("term_code")

		query := db.Preload("Course").Where("term_code = ?", termCode)
		if subject := c.Query("subject"); subject != "" {
			query = query.Joins("JOIN courses ON courses.id = sections.course_id").
				Where("courses.subject_code = ?", subject)
		}

		var sections []model.Section
		if err := query.Find(&sections).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sections"})
			return
		}

		sectionIDs := make([]int64, len(sections))
		for i, s := range sections {
			sectionIDs[i] = s.ID
		}

		var meetings []model.Meeting
		if len(sectionIDs) > 0 {
			if err := db.Where("section_id IN ?", sectionIDs).Find(&meetings).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve meetings"})
				return
			}
		}

		meetingMap := make(map[int64][]model.Meeting)
		for _, m := range meetings {
			meetingMap[m.SectionID] = append(meetingMap[m.SectionID], m)
		}

		response := make([]sectionResponse, 0, len(sections))
		for _, s := range sections {
			response = append(response, sectionResponse{
				Section:       s,
				SubjectCode:   s.Course.SubjectCode,
				CatalogNumber: s.Course.CatalogNumber,
				Title:         s.Course.Title,
				Meetings:      meetingMap[s.ID],
			})
		}
		c.JSON(http.StatusOK, response)
	}
}

// GetRuns handles the GET /api/runs request, newest first.
func GetRuns(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Order("id DESC").Limit(50)
		if termCode := c.Query("term_code"); termCode != "" {
			query = query.Where("term_code = ?", termCode)
		}

		var runs []model.IngestionRun
		if err := query.Find(&runs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
			return
		}
		c.JSON(http.StatusOK, runs)
	}
}
