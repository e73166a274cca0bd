package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"codenest_backend/pkg/monitoring"
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostRequest struct {
	Title   string         `json:"title" binding:"required,max=200"`
	Content string         `json:"content" binding:"required"`
	Type    model.PostType `json:"type" binding:"omitempty,oneof=DISCUSSION QUESTION SHOWCASE"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type PostResponse struct {
	model.Post
	Author *PublicProfile `json:"author,omitempty"`
}

type CommentResponse struct {
	model.PostComment
	Author *PublicProfile `json:"author,omitempty"`
}

type CommunityService struct {
	DB          *gorm.DB
	PostRepo    *repository.PostRepository
	CommentRepo *repository.CommentRepository
	Users       *UserService
}

func NewCommunityService(
	db *gorm.DB,
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	users *UserService,
) *CommunityService {
	return &CommunityService{
		DB:          db,
		PostRepo:    postRepo,
		CommentRepo: commentRepo,
		Users:       users,
	}
}

// requireAuthor 作者本人或管理员
func requireAuthor(caller *model.User, authorID string) error {
	if caller == nil {
		return util.ErrUnauthenticated
	}
	if !caller.CanManage(authorID) {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *CommunityService) GetPosts(ctx context.Context, postType model.PostType, p util.Pagination) ([]PostResponse, int64, error) {
	if postType != "" && !model.ValidPostType(postType) {
		return nil, 0, util.NewValidationError("unknown post type " + string(postType))
	}

	posts, total, err := s.PostRepo.FindWithPagination(ctx, postType, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
	}
	authors, err := s.Users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, PostResponse{Post: post, Author: authors[post.AuthorID]})
	}
	return resp, total, nil
}

func (s *CommunityService) GetPost(ctx context.Context, id string) (*PostResponse, error) {
	post, err := s.PostRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}
	authors, err := s.Users.PublicProfiles(ctx, []string{post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostResponse{Post: *post, Author: authors[post.AuthorID]}, nil
}

func (s *CommunityService) CreatePost(ctx context.Context, caller *model.User, req PostRequest) (*model.Post, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	postType := req.Type
	if postType == "" {
		postType = model.PostDiscussion
	}
	if !model.ValidPostType(postType) {
		return nil, util.NewValidationError("unknown post type " + string(postType))
	}

	post := &model.Post{
		AuthorID: caller.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Type:     postType,
	}
	if err := s.PostRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	monitoring.ForumEvents.WithLabelValues("post_created").Inc()
	return post, nil
}

func (s *CommunityService) UpdatePost(ctx context.Context, caller *model.User, id string, req PostRequest) (*model.Post, error) {
	post, err := s.PostRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}
	if err := requireAuthor(caller, post.AuthorID); err != nil {
		return nil, err
	}
	if req.Type != "" && !model.ValidPostType(req.Type) {
		return nil, util.NewValidationError("unknown post type " + string(req.Type))
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	if req.Type != "" {
		post.Type = req.Type
	}
	if err := s.PostRepo.UpdateContent(ctx, post); err != nil {
		return nil, err
	}
	return s.PostRepo.FindByID(ctx, post.ID)
}

// DeletePost 评论随帖子一起删除
func (s *CommunityService) DeletePost(ctx context.Context, caller *model.User, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := s.PostRepo.WithTx(tx)
		post, err := posts.FindByID(ctx, id)
		if err != nil {
			return util.NotFoundAs(err, util.ErrPostNotFound)
		}
		if err := requireAuthor(caller, post.AuthorID); err != nil {
			return err
		}
		if err := posts.Delete(ctx, id); err != nil {
			return err
		}
		if caller.ID != post.AuthorID {
			logger.Log.Info("Post removed by admin", zap.String("postId", id), zap.String("by", caller.ID))
		}
		return nil
	})
}

func (s *CommunityService) LikePost(ctx context.Context, caller *model.User, id string) (*model.Post, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	if err := s.PostRepo.IncrementLikes(ctx, id); err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}
	post, err := s.PostRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}
	return post, nil
}

func (s *CommunityService) GetComments(ctx context.Context, postID string) ([]CommentResponse, error) {
	if _, err := s.PostRepo.FindByID(ctx, postID); err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}
	comments, err := s.CommentRepo.FindByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.Users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, CommentResponse{PostComment: c, Author: authors[c.AuthorID]})
	}
	return resp, nil
}

func (s *CommunityService) AddComment(ctx context.Context, caller *model.User, postID string, req CommentRequest) (*model.PostComment, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	if _, err := s.PostRepo.FindByID(ctx, postID); err != nil {
		return nil, util.NotFoundAs(err, util.ErrPostNotFound)
	}

	comment := &model.PostComment{
		PostID:   postID,
		AuthorID: caller.ID,
		Content:  req.Content,
	}
	if err := s.CommentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommunityService) UpdateComment(ctx context.Context, caller *model.User, id string, req CommentRequest) (*model.PostComment, error) {
	comment, err := s.CommentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrCommentNotFound)
	}
	if err := requireAuthor(caller, comment.AuthorID); err != nil {
		return nil, err
	}
	comment.Content = req.Content
	if err := s.CommentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, caller *model.User, id string) error {
	comment, err := s.CommentRepo.FindByID(ctx, id)
	if err != nil {
		return util.NotFoundAs(err, util.ErrCommentNotFound)
	}
	if err := requireAuthor(caller, comment.AuthorID); err != nil {
		return err
	}
	return s.CommentRepo.Delete(ctx, id)
}
