// internal/services/board_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/modooclass/modoo-backend/internal/models"
)

type BoardServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *BoardService
	author  *models.User
	other   *models.User
}

func (s *BoardServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.service = NewBoardService(s.db)

	s.author = createTestUser(s.T(), s.db, models.UserRoleStudent)
	s.other = createTestUser(s.T(), s.db, models.UserRoleStudent)
}

func (s *BoardServiceTestSuite) createPost() *models.Post {
	post, err := s.service.CreatePost(s.author.ID, &CreatePostRequest{
		Title:    "스터디 모집합니다",
		Content:  "매주 토요일에 모여요.",
		Category: "study",
	})
	s.Require().NoError(err)
	return post
}

func (s *BoardServiceTestSuite) TestGetPostBumpsViewCount() {
	post := s.createPost()

	got, err := s.service.GetPost(post.ID)
	s.Require().NoError(err)
	s.Equal(1, got.ViewCount)

	got, err = s.service.GetPost(post.ID)
	s.Require().NoError(err)
	s.Equal(2, got.ViewCount)
}

func (s *BoardServiceTestSuite) TestCommentNestingFlattenedToOneLevel() {
	post := s.createPost()

	top, err := s.service.CreateComment(post.ID, s.author.ID, &CreateCommentRequest{
		Content: "저 참여할게요",
	})
	s.Require().NoError(err)

	reply, err := s.service.CreateComment(post.ID, s.other.ID, &CreateCommentRequest{
		Content:  "환영합니다",
		ParentID: &top.ID,
	})
	s.Require().NoError(err)
	s.Equal(top.ID, *reply.ParentID)

	// A reply to a reply attaches to the top-level comment
	deep, err := s.service.CreateComment(post.ID, s.author.ID, &CreateCommentRequest{
		Content:  "감사합니다",
		ParentID: &reply.ID,
	})
	s.Require().NoError(err)
	s.Equal(top.ID, *deep.ParentID)
}

func (s *BoardServiceTestSuite) TestCommentOnOtherPostRejected() {
	post := s.createPost()
	otherPost := s.createPost()

	comment, err := s.service.CreateComment(post.ID, s.author.ID, &CreateCommentRequest{
		Content: "첫 댓글",
	})
	s.Require().NoError(err)

	_, err = s.service.CreateComment(otherPost.ID, s.other.ID, &CreateCommentRequest{
		Content:  "잘못된 답글",
		ParentID: &comment.ID,
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "another post")
}

func (s *BoardServiceTestSuite) TestUpdatePostRequiresAuthor() {
	post := s.createPost()

	newTitle := "스터디 마감"
	_, err := s.service.UpdatePost(post.ID, s.other.ID, false, &UpdatePostRequest{Title: &newTitle})
	s.Require().ErrorIs(err, ErrNotAuthor)

	updated, err := s.service.UpdatePost(post.ID, s.author.ID, false, &UpdatePostRequest{Title: &newTitle})
	s.Require().NoError(err)
	s.Equal("스터디 마감", updated.Title)
}

func (s *BoardServiceTestSuite) TestDeletePostCascadesComments() {
	post := s.createPost()
	_, err := s.service.CreateComment(post.ID, s.other.ID, &CreateCommentRequest{Content: "댓글"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeletePost(post.ID, s.author.ID, false))

	var count int64
	s.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	s.Equal(int64(0), count)

	_, err = s.service.GetPost(post.ID)
	s.Require().ErrorIs(err, ErrPostNotFound)
}

func (s *BoardServiceTestSuite) TestDeleteCommentRemovesReplies() {
	post := s.createPost()
	top, err := s.service.CreateComment(post.ID, s.author.ID, &CreateCommentRequest{Content: "댓글"})
	s.Require().NoError(err)
	_, err = s.service.CreateComment(post.ID, s.other.ID, &CreateCommentRequest{
		Content:  "답글",
		ParentID: &top.ID,
	})
	s.Require().NoError(err)

	err = s.service.DeleteComment(top.ID, s.other.ID, false)
	s.Require().ErrorIs(err, ErrNotAuthor)

	s.Require().NoError(s.service.DeleteComment(top.ID, s.author.ID, false))

	var count int64
	s.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	s.Equal(int64(0), count)
}

func TestBoardServiceSuite(t *testing.T) {
	suite.Run(t, new(BoardServiceTestSuite))
}
