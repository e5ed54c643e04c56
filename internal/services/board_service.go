// internal/services/board_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
	"github.com/modooclass/modoo-backend/internal/utils"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("only the author or an admin may modify this")
)

type BoardService struct {
	db *gorm.DB
}

type CreatePostRequest struct {
	Title    string     `json:"title" validate:"required,max=255"`
	Content  string     `json:"content" validate:"required"`
	Category string     `json:"category,omitempty" validate:"omitempty,max=50"`
	CourseID *uuid.UUID `json:"course_id,omitempty"`
}

type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
}

type CreateCommentRequest struct {
	Content  string     `json:"content" validate:"required,max=5000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type PostSearchParams struct {
	utils.PaginationParams
	Query    string     `json:"q,omitempty"`
	Category string     `json:"category,omitempty"`
	CourseID *uuid.UUID `json:"course_id,omitempty"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

func (s *BoardService) CreatePost(authorID uuid.UUID, req *CreatePostRequest) (*models.Post, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.CourseID != nil {
		var count int64
		s.db.Model(&models.Course{}).Where("id = ?", *req.CourseID).Count(&count)
		if count == 0 {
			return nil, ErrCourseNotFound
		}
	}

	post := &models.Post{
		AuthorID: authorID,
		CourseID: req.CourseID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}

	if err := s.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// GetPost loads a post and bumps its view counter atomically.
func (s *BoardService) GetPost(postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").
		Preload("Course").
		Preload("Comments", "parent_id IS NULL").
		Preload("Comments.Author").
		Preload("Comments.Replies").
		Preload("Comments.Replies.Author").
		First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.db.Model(&post).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	post.ViewCount++

	return &post, nil
}

func (s *BoardService) SearchPosts(params PostSearchParams) ([]models.Post, int64, error) {
	query := s.db.Model(&models.Post{}).Preload("Author")

	if params.Query != "" {
		searchTerm := "%" + params.Query + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", searchTerm, searchTerm)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.CourseID != nil {
		query = query.Where("course_id = ?", *params.CourseID)
	}
	if params.AuthorID != nil {
		query = query.Where("author_id = ?", *params.AuthorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	allowedSortFields := []string{"created_at", "view_count", "title"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search posts: %w", err)
	}

	return posts, total, nil
}

func (s *BoardService) UpdatePost(postID, actorID uuid.UUID, isAdmin bool, req *UpdatePostRequest) (*models.Post, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	post, err := s.getOwnedPost(postID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}

	if len(updates) > 0 {
		if err := s.db.Model(post).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update post: %w", err)
		}
	}

	return post, nil
}

func (s *BoardService) DeletePost(postID, actorID uuid.UUID, isAdmin bool) error {
	post, err := s.getOwnedPost(postID, actorID, isAdmin)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Delete(post).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

func (s *BoardService) CreateComment(postID, authorID uuid.UUID, req *CreateCommentRequest) (*models.Comment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *req.ParentID).Error; err != nil {
			return nil, ErrCommentNotFound
		}
		if parent.PostID != postID {
			return nil, errors.New("parent comment belongs to another post")
		}
		// One level of nesting only
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}

	if err := s.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

func (s *BoardService) DeleteComment(commentID, actorID uuid.UUID, isAdmin bool) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if comment.AuthorID != actorID && !isAdmin {
		return ErrNotAuthor
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete replies: %w", err)
		}
		return tx.Delete(&comment).Error
	})
}

func (s *BoardService) getOwnedPost(postID, actorID uuid.UUID, isAdmin bool) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if post.AuthorID != actorID && !isAdmin {
		return nil, ErrNotAuthor
	}

	return &post, nil
}
