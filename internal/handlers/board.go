// internal/handlers/board.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/modooclass/modoo-backend/internal/i18n"
	"github.com/modooclass/modoo-backend/internal/services"
	"github.com/modooclass/modoo-backend/internal/utils"
)

type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// GET /posts
func (h *BoardHandler) Search(c *gin.Context) {
	params := services.PostSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Query:            c.Query("q"),
		Category:         c.Query("category"),
	}

	if courseStr := c.Query("course_id"); courseStr != "" {
		if id, err := uuid.Parse(courseStr); err == nil {
			params.CourseID = &id
		}
	}
	if authorStr := c.Query("author_id"); authorStr != "" {
		if id, err := uuid.Parse(authorStr); err == nil {
			params.AuthorID = &id
		}
	}

	posts, total, err := h.boardService.SearchPosts(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(posts, total, params.PaginationParams))
}

// GET /posts/:id
func (h *BoardHandler) Get(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	post, err := h.boardService.GetPost(postID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"post": post})
}

// POST /posts
func (h *BoardHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	post, err := h.boardService.CreatePost(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostCreated),
		"post":    post,
	})
}

// PUT /posts/:id
func (h *BoardHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	post, err := h.boardService.UpdatePost(postID, userID, isAdmin(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostUpdated),
		"post":    post,
	})
}

// DELETE /posts/:id
func (h *BoardHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeletePost(postID, userID, isAdmin(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostDeleted),
	})
}

// POST /posts/:id/comments
func (h *BoardHandler) CreateComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	comment, err := h.boardService.CreateComment(postID, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"comment": comment})
}

// DELETE /comments/:id
func (h *BoardHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeleteComment(commentID, userID, isAdmin(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
