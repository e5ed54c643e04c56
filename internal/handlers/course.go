// internal/handlers/course.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type CourseHandler struct {
	courseService  *services.CourseService
	storageService *services.StorageService
}

func NewCourseHandler(courseService *services.CourseService, storageService *services.StorageService) *CourseHandler {
	return &CourseHandler{
		courseService:  courseService,
		storageService: storageService,
	}
}

// GET /courses
func (h *CourseHandler) Search(c *gin.Context) {
	params := services.CourseSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Query:            c.Query("q"),
		Category:         c.Query("category"),
		Tag:              c.Query("tag"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		// Only staff may list non-published courses
		role, _ := utils.GetUserRoleFromContext(c)
		if role == "admin" || role == "instructor" {
			status := models.CourseStatus(statusStr)
			params.Status = &status
		}
	}
	if instructorStr := c.Query("instructor_id"); instructorStr != "" {
		if id, err := uuid.Parse(instructorStr); err == nil {
			params.InstructorID = &id
		}
	}

	courses, total, err := h.courseService.Search(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(courses, total, params.PaginationParams))
}

// GET /courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetByID(courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if course.Status == models.CourseStatusDraft {
		userIDStr, _ := utils.GetUserIDFromContext(c)
		if userIDStr != course.InstructorID.String() && !isAdmin(c) {
			utils.NotFoundResponse(c, "course")
			return
		}
	}

	utils.SuccessResponse(c, gin.H{"course": course})
}

// POST /courses
func (h *CourseHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	course, err := h.courseService.Create(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCourseCreated),
		"course":  course,
	})
}

// PUT /courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	course, err := h.courseService.Update(courseID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCourseUpdated),
		"course":  course,
	})
}

// POST /courses/:id/publish
func (h *CourseHandler) Publish(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Publish(courseID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"course": course})
}

// POST /courses/:id/close
func (h *CourseHandler) Close(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Close(courseID, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"course": course})
}

// DELETE /courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(courseID, userID, isAdmin(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCourseDeleted),
	})
}

// POST /courses/:id/lessons
func (h *CourseHandler) AddLesson(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	lesson, err := h.courseService.AddLesson(courseID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"lesson": lesson})
}

// DELETE /lessons/:id
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	lessonID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteLesson(lessonID, userID, isAdmin(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// POST /courses/:id/schedules
func (h *CourseHandler) AddSchedule(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	schedule, err := h.courseService.AddSchedule(courseID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"schedule": schedule})
}

// POST /courses/:id/reviews
func (h *CourseHandler) AddReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	review, err := h.courseService.AddReview(courseID, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"review": review})
}

// GET /courses/:id/reviews
func (h *CourseHandler) GetReviews(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.courseService.GetReviews(courseID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(reviews, total, params))
}

// POST /courses/:id/thumbnail
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "File is required", err.Error())
		return
	}
	defer file.Close()

	uploadOptions := h.storageService.GetDefaultUploadOptions("thumbnails")
	result, err := h.storageService.UploadFile(file, header, uploadOptions)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if err := h.courseService.SetThumbnail(courseID, userID, isAdmin(c), result.URL); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"thumbnail_url": result.URL})
}
