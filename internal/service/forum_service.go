package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"codenest_backend/pkg/monitoring"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Slug        string  `json:"slug" binding:"omitempty,max=120,slug"`
	Description string  `json:"description" binding:"max=500"`
	IconURL     *string `json:"iconUrl" binding:"omitempty,max=1024"`
	OrderIndex  int     `json:"orderIndex"`
}

type ThreadRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
}

type ReplyRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type ThreadResponse struct {
	model.ForumThread
	Author *PublicProfile `json:"author,omitempty"`
}

type ReplyResponse struct {
	model.ForumReply
	Author *PublicProfile `json:"author,omitempty"`
}

type ForumService struct {
	DB           *gorm.DB
	CategoryRepo *repository.ForumCategoryRepository
	ThreadRepo   *repository.ForumThreadRepository
	ReplyRepo    *repository.ForumReplyRepository
	Users        *UserService
	now          func() time.Time
}

func NewForumService(
	db *gorm.DB,
	categoryRepo *repository.ForumCategoryRepository,
	threadRepo *repository.ForumThreadRepository,
	replyRepo *repository.ForumReplyRepository,
	users *UserService,
) *ForumService {
	return &ForumService{
		DB:           db,
		CategoryRepo: categoryRepo,
		ThreadRepo:   threadRepo,
		ReplyRepo:    replyRepo,
		Users:        users,
		now:          time.Now,
	}
}

func requireAdmin(caller *model.User) error {
	if caller == nil {
		return util.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return util.ErrAdminOnly
	}
	return nil
}

func (s *ForumService) GetCategories(ctx context.Context) ([]model.ForumCategory, error) {
	return s.CategoryRepo.FindAll(ctx)
}

func (s *ForumService) GetCategoryBySlug(ctx context.Context, slug string) (*model.ForumCategory, error) {
	category, err := s.CategoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrCategoryNotFound)
	}
	return category, nil
}

func (s *ForumService) CreateCategory(ctx context.Context, caller *model.User, req CategoryRequest) (*model.ForumCategory, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Name)
	}
	if !util.IsSlug(slug) {
		return nil, util.NewValidationError("slug must contain only lowercase letters, digits and hyphens")
	}
	taken, err := s.CategoryRepo.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrSlugTaken
	}

	category := &model.ForumCategory{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		IconURL:     req.IconURL,
		OrderIndex:  req.OrderIndex,
	}
	if err := s.CategoryRepo.Create(ctx, category); err != nil {
		return nil, util.DuplicateAs(err, util.ErrSlugTaken)
	}
	return category, nil
}

func (s *ForumService) GetThreads(ctx context.Context, categorySlug string, p util.Pagination) ([]ThreadResponse, int64, error) {
	category, err := s.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, 0, err
	}

	threads, total, err := s.ThreadRepo.FindByCategory(ctx, category.ID, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.AuthorID)
	}
	authors, err := s.Users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		resp = append(resp, ThreadResponse{ForumThread: t, Author: authors[t.AuthorID]})
	}
	return resp, total, nil
}

// GetThread 每次读取都会增加浏览数，不做去重
func (s *ForumService) GetThread(ctx context.Context, id string) (*ThreadResponse, error) {
	var thread *model.ForumThread
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.ThreadRepo.WithTx(tx)
		if err := threads.IncrementViews(ctx, id); err != nil {
			return util.NotFoundAs(err, util.ErrThreadNotFound)
		}
		var err error
		thread, err = threads.FindByID(ctx, id)
		return util.NotFoundAs(err, util.ErrThreadNotFound)
	})
	if err != nil {
		return nil, err
	}

	authors, err := s.Users.PublicProfiles(ctx, []string{thread.AuthorID})
	if err != nil {
		return nil, err
	}
	return &ThreadResponse{ForumThread: *thread, Author: authors[thread.AuthorID]}, nil
}

func (s *ForumService) CreateThread(ctx context.Context, caller *model.User, categorySlug string, req ThreadRequest) (*model.ForumThread, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	category, err := s.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	thread := &model.ForumThread{
		CategoryID:     category.ID,
		AuthorID:       caller.ID,
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		LastActivityAt: s.now(),
	}
	if err := s.ThreadRepo.Create(ctx, thread); err != nil {
		return nil, err
	}
	monitoring.ForumEvents.WithLabelValues("thread_created").Inc()
	return thread, nil
}

func (s *ForumService) UpdateThread(ctx context.Context, caller *model.User, id string, req ThreadRequest) (*model.ForumThread, error) {
	thread, err := s.ThreadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrThreadNotFound)
	}
	if err := requireAuthor(caller, thread.AuthorID); err != nil {
		return nil, err
	}

	thread.Title = strings.TrimSpace(req.Title)
	thread.Content = req.Content
	if err := s.ThreadRepo.UpdateContent(ctx, thread); err != nil {
		return nil, err
	}
	return s.ThreadRepo.FindByID(ctx, thread.ID)
}

// DeleteThread 回复随主题一起删除
func (s *ForumService) DeleteThread(ctx context.Context, caller *model.User, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.ThreadRepo.WithTx(tx)
		thread, err := threads.FindByID(ctx, id)
		if err != nil {
			return util.NotFoundAs(err, util.ErrThreadNotFound)
		}
		if err := requireAuthor(caller, thread.AuthorID); err != nil {
			return err
		}
		return threads.Delete(ctx, id)
	})
}

func (s *ForumService) LockThread(ctx context.Context, caller *model.User, id string) (*model.ForumThread, error) {
	return s.moderate(ctx, caller, id, "lock", func(t *repository.ForumThreadRepository) error {
		return t.SetLocked(ctx, id, true)
	})
}

func (s *ForumService) UnlockThread(ctx context.Context, caller *model.User, id string) (*model.ForumThread, error) {
	return s.moderate(ctx, caller, id, "unlock", func(t *repository.ForumThreadRepository) error {
		return t.SetLocked(ctx, id, false)
	})
}

func (s *ForumService) PinThread(ctx context.Context, caller *model.User, id string) (*model.ForumThread, error) {
	return s.moderate(ctx, caller, id, "pin", func(t *repository.ForumThreadRepository) error {
		return t.SetPinned(ctx, id, true)
	})
}

func (s *ForumService) UnpinThread(ctx context.Context, caller *model.User, id string) (*model.ForumThread, error) {
	return s.moderate(ctx, caller, id, "unpin", func(t *repository.ForumThreadRepository) error {
		return t.SetPinned(ctx, id, false)
	})
}

// moderate 管理员操作，重复执行是幂等的
func (s *ForumService) moderate(ctx context.Context, caller *model.User, id, action string, apply func(*repository.ForumThreadRepository) error) (*model.ForumThread, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := s.ThreadRepo.FindByID(ctx, id); err != nil {
		return nil, util.NotFoundAs(err, util.ErrThreadNotFound)
	}
	if err := apply(s.ThreadRepo); err != nil {
		return nil, err
	}

	logger.Log.Info("Thread moderated",
		zap.String("threadId", id),
		zap.String("action", action),
		zap.String("by", caller.ID),
	)
	thread, err := s.ThreadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrThreadNotFound)
	}
	return thread, nil
}

func (s *ForumService) GetReplies(ctx context.Context, threadID string, p util.Pagination) ([]ReplyResponse, int64, error) {
	if _, err := s.ThreadRepo.FindByID(ctx, threadID); err != nil {
		return nil, 0, util.NotFoundAs(err, util.ErrThreadNotFound)
	}

	replies, total, err := s.ReplyRepo.FindByThread(ctx, threadID, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(replies))
	for _, r := range replies {
		ids = append(ids, r.AuthorID)
	}
	authors, err := s.Users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]ReplyResponse, 0, len(replies))
	for _, r := range replies {
		resp = append(resp, ReplyResponse{ForumReply: r, Author: authors[r.AuthorID]})
	}
	return resp, total, nil
}

// AddReply 保存回复、回复数 +1、刷新最后活跃时间在同一事务内完成
func (s *ForumService) AddReply(ctx context.Context, caller *model.User, threadID string, req ReplyRequest) (*model.ForumReply, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}

	var reply *model.ForumReply
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.ThreadRepo.WithTx(tx)
		thread, err := threads.FindByID(ctx, threadID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrThreadNotFound)
		}
		if thread.IsLocked {
			return util.ErrThreadLocked
		}

		reply = &model.ForumReply{
			ThreadID: thread.ID,
			AuthorID: caller.ID,
			Content:  req.Content,
		}
		if err := s.ReplyRepo.WithTx(tx).Create(ctx, reply); err != nil {
			return err
		}
		return threads.IncrementReplies(ctx, thread.ID, s.now())
	})
	if err != nil {
		return nil, err
	}

	monitoring.ForumEvents.WithLabelValues("reply_created").Inc()
	return reply, nil
}

func (s *ForumService) UpdateReply(ctx context.Context, caller *model.User, id string, req ReplyRequest) (*model.ForumReply, error) {
	reply, err := s.ReplyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrReplyNotFound)
	}
	if err := requireAuthor(caller, reply.AuthorID); err != nil {
		return nil, err
	}
	reply.Content = req.Content
	if err := s.ReplyRepo.UpdateContent(ctx, reply); err != nil {
		return nil, err
	}
	return s.ReplyRepo.FindByID(ctx, reply.ID)
}

// DeleteReply 回复数最少减到 0
func (s *ForumService) DeleteReply(ctx context.Context, caller *model.User, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replies := s.ReplyRepo.WithTx(tx)
		reply, err := replies.FindByID(ctx, id)
		if err != nil {
			return util.NotFoundAs(err, util.ErrReplyNotFound)
		}
		if err := requireAuthor(caller, reply.AuthorID); err != nil {
			return err
		}
		if err := replies.Delete(ctx, id); err != nil {
			return err
		}
		return s.ThreadRepo.WithTx(tx).DecrementReplies(ctx, reply.ThreadID)
	})
}

// MarkAccepted 只有主题作者（不是回复作者）或管理员可以采纳；同一主题只保留一个采纳
func (s *ForumService) MarkAccepted(ctx context.Context, caller *model.User, replyID string) (*model.ForumReply, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}

	var reply *model.ForumReply
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replies := s.ReplyRepo.WithTx(tx)
		var err error
		reply, err = replies.FindByID(ctx, replyID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrReplyNotFound)
		}
		thread, err := s.ThreadRepo.WithTx(tx).FindByID(ctx, reply.ThreadID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrThreadNotFound)
		}
		if !caller.CanManage(thread.AuthorID) {
			return util.ErrPermissionDenied
		}

		if err := replies.ClearAccepted(ctx, thread.ID, reply.ID); err != nil {
			return err
		}
		if err := replies.SetAccepted(ctx, reply.ID); err != nil {
			return err
		}
		reply.IsAccepted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}
