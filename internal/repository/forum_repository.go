package repository

import (
	"codenest_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ForumCategoryRepository struct {
	DB *gorm.DB
}

func NewForumCategoryRepository(db *gorm.DB) *ForumCategoryRepository {
	return &ForumCategoryRepository{DB: db}
}

func (r *ForumCategoryRepository) Create(ctx context.Context, category *model.ForumCategory) error {
	return r.DB.WithContext(ctx).Create(category).Error
}

func (r *ForumCategoryRepository) FindAll(ctx context.Context) ([]model.ForumCategory, error) {
	var categories []model.ForumCategory
	err := r.DB.WithContext(ctx).Order("order_index ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *ForumCategoryRepository) FindBySlug(ctx context.Context, slug string) (*model.ForumCategory, error) {
	var category model.ForumCategory
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *ForumCategoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ForumCategory{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

type ForumThreadRepository struct {
	DB *gorm.DB
}

func NewForumThreadRepository(db *gorm.DB) *ForumThreadRepository {
	return &ForumThreadRepository{DB: db}
}

func (r *ForumThreadRepository) WithTx(tx *gorm.DB) *ForumThreadRepository {
	return &ForumThreadRepository{DB: tx}
}

func (r *ForumThreadRepository) Create(ctx context.Context, thread *model.ForumThread) error {
	return r.DB.WithContext(ctx).Create(thread).Error
}

func (r *ForumThreadRepository) FindByID(ctx context.Context, id string) (*model.ForumThread, error) {
	var thread model.ForumThread
	if err := r.DB.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// FindByCategory 置顶优先，其次按最后活跃时间倒序
func (r *ForumThreadRepository) FindByCategory(ctx context.Context, categoryID string, offset, limit int) ([]model.ForumThread, int64, error) {
	var threads []model.ForumThread
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ForumThread{}).Where("category_id = ?", categoryID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("is_pinned DESC, last_activity_at DESC").Offset(offset).Limit(limit).Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (r *ForumThreadRepository) FindByAuthor(ctx context.Context, authorID string) ([]model.ForumThread, error) {
	var threads []model.ForumThread
	err := r.DB.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&threads).Error
	return threads, err
}

// UpdateContent 不覆盖浏览数、回复数等计数列
func (r *ForumThreadRepository) UpdateContent(ctx context.Context, thread *model.ForumThread) error {
	return r.DB.WithContext(ctx).Model(thread).
		Select("title", "content").
		Updates(thread).Error
}

// Delete 先删回复再删主题，调用方负责放在事务中
func (r *ForumThreadRepository) Delete(ctx context.Context, id string) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("thread_id = ?", id).Delete(&model.ForumReply{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.ForumThread{}, "id = ?", id).Error
}

func (r *ForumThreadRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	res := r.DB.WithContext(ctx).Model(&model.ForumThread{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ForumThreadRepository) IncrementViews(ctx context.Context, id string) error {
	return r.updateColumn(ctx, id, "view_count", gorm.Expr("view_count + 1"))
}

func (r *ForumThreadRepository) IncrementReplies(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.ForumThread{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"reply_count":      gorm.Expr("reply_count + 1"),
			"last_activity_at": at,
		}).Error
}

// DecrementReplies 回复数不会小于 0
func (r *ForumThreadRepository) DecrementReplies(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.ForumThread{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", gorm.Expr("CASE WHEN reply_count > 0 THEN reply_count - 1 ELSE 0 END")).
		Error
}

func (r *ForumThreadRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	return r.DB.WithContext(ctx).Model(&model.ForumThread{}).Where("id = ?", id).UpdateColumn("is_locked", locked).Error
}

func (r *ForumThreadRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	return r.DB.WithContext(ctx).Model(&model.ForumThread{}).Where("id = ?", id).UpdateColumn("is_pinned", pinned).Error
}

type ForumReplyRepository struct {
	DB *gorm.DB
}

func NewForumReplyRepository(db *gorm.DB) *ForumReplyRepository {
	return &ForumReplyRepository{DB: db}
}

func (r *ForumReplyRepository) WithTx(tx *gorm.DB) *ForumReplyRepository {
	return &ForumReplyRepository{DB: tx}
}

func (r *ForumReplyRepository) Create(ctx context.Context, reply *model.ForumReply) error {
	return r.DB.WithContext(ctx).Create(reply).Error
}

func (r *ForumReplyRepository) FindByID(ctx context.Context, id string) (*model.ForumReply, error) {
	var reply model.ForumReply
	if err := r.DB.WithContext(ctx).First(&reply, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *ForumReplyRepository) FindByThread(ctx context.Context, threadID string, offset, limit int) ([]model.ForumReply, int64, error) {
	var replies []model.ForumReply
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ForumReply{}).Where("thread_id = ?", threadID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *ForumReplyRepository) UpdateContent(ctx context.Context, reply *model.ForumReply) error {
	return r.DB.WithContext(ctx).Model(reply).
		Select("content").
		Updates(reply).Error
}

func (r *ForumReplyRepository) SetAccepted(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.ForumReply{}).
		Where("id = ?", id).
		UpdateColumn("is_accepted", true).Error
}

func (r *ForumReplyRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.ForumReply{}, "id = ?", id).Error
}

// ClearAccepted 取消同一主题下其它已采纳的回复
func (r *ForumReplyRepository) ClearAccepted(ctx context.Context, threadID, exceptID string) error {
	return r.DB.WithContext(ctx).Model(&model.ForumReply{}).
		Where("thread_id = ? AND id <> ? AND is_accepted = ?", threadID, exceptID, true).
		UpdateColumn("is_accepted", false).Error
}
