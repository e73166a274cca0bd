package repository

import (
	"codenest_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{DB: db}
}

func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{DB: tx}
}

// FindWithPagination postType 为空时返回全部类型
func (r *PostRepository) FindWithPagination(ctx context.Context, postType model.PostType, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Post{})
	if postType != "" {
		query = query.Where("type = ?", postType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.DB.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdateContent 只写可编辑的列，计数列由原子更新维护
func (r *PostRepository) UpdateContent(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Model(post).
		Select("title", "content", "type").
		Updates(post).Error
}

// Delete 先删评论再删帖子，调用方负责放在事务中
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&model.PostComment{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Post{}, "id = ?", id).Error
}

func (r *PostRepository) IncrementLikes(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type CommentRepository struct {
	DB *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.PostComment) error {
	return r.DB.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.PostComment, error) {
	var comment model.PostComment
	if err := r.DB.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) FindByPost(ctx context.Context, postID string) ([]model.PostComment, error) {
	var comments []model.PostComment
	err := r.DB.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) Update(ctx context.Context, comment *model.PostComment) error {
	return r.DB.WithContext(ctx).Save(comment).Error
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.PostComment{}, "id = ?", id).Error
}
