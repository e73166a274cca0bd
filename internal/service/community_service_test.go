package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostDefaultsToDiscussion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)

	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: " Hello ", Content: "first post"})
	require.NoError(t, err)
	assert.Equal(t, model.PostDiscussion, post.Type)
	assert.Equal(t, "Hello", post.Title)

	_, err = env.community.CreatePost(ctx, author, PostRequest{Title: "Q", Content: "?", Type: model.PostQuestion})
	require.NoError(t, err)

	questions, total, err := env.community.GetPosts(ctx, model.PostQuestion, util.NewPagination(1, 0, util.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, questions, 1)
	require.NotNil(t, questions[0].Author)
	assert.Equal(t, author.ID, questions[0].Author.ID)

	_, _, err = env.community.GetPosts(ctx, "POLL", util.NewPagination(1, 0, util.DefaultPageSize))
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestUpdatePostOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)
	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: "Mine", Content: "body"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		caller *model.User
		err    error
	}{
		{"author", author, nil},
		{"other student", env.createUser(t, model.Student), util.ErrPermissionDenied},
		{"instructor", env.createUser(t, model.Instructor), util.ErrPermissionDenied},
		{"admin", env.createUser(t, model.Admin), nil},
		{"anonymous", nil, util.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := env.community.UpdatePost(ctx, tc.caller, post.ID, PostRequest{
				Title:   "Edited",
				Content: "edited body",
				Type:    model.PostShowcase,
			})
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.PostShowcase, updated.Type)
			assert.Equal(t, author.ID, updated.AuthorID)
		})
	}
}

func TestLikePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)
	fan := env.createUser(t, model.Student)
	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: "Likeable", Content: "body"})
	require.NoError(t, err)

	_, err = env.community.LikePost(ctx, fan, post.ID)
	require.NoError(t, err)
	liked, err := env.community.LikePost(ctx, fan, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, liked.LikeCount)

	_, err = env.community.LikePost(ctx, fan, model.GenerateUUID())
	assert.ErrorIs(t, err, util.ErrPostNotFound)
}

func TestCommentsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)
	commenter := env.createUser(t, model.Student)
	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: "Discuss", Content: "body"})
	require.NoError(t, err)

	_, err = env.community.AddComment(ctx, commenter, model.GenerateUUID(), CommentRequest{Content: "lost"})
	assert.ErrorIs(t, err, util.ErrPostNotFound)

	comment, err := env.community.AddComment(ctx, commenter, post.ID, CommentRequest{Content: "nice"})
	require.NoError(t, err)

	_, err = env.community.UpdateComment(ctx, author, comment.ID, CommentRequest{Content: "hijack"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	updated, err := env.community.UpdateComment(ctx, commenter, comment.ID, CommentRequest{Content: "very nice"})
	require.NoError(t, err)
	assert.Equal(t, "very nice", updated.Content)

	comments, err := env.community.GetComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, commenter.ID, comments[0].Author.ID)

	// 删除帖子时评论一起删除
	require.NoError(t, env.community.DeletePost(ctx, author, post.ID))
	_, err = env.community.CommentRepo.FindByID(ctx, comment.ID)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
	_, err = env.community.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, util.ErrPostNotFound)
}

func TestDeleteCommentByAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)
	admin := env.createUser(t, model.Admin)
	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: "Discuss", Content: "body"})
	require.NoError(t, err)
	comment, err := env.community.AddComment(ctx, author, post.ID, CommentRequest{Content: "spam"})
	require.NoError(t, err)

	require.NoError(t, env.community.DeleteComment(ctx, admin, comment.ID))
	assert.ErrorIs(t, env.community.DeleteComment(ctx, admin, comment.ID), util.ErrCommentNotFound)
}

func TestPostEditKeepsLikes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, model.Student)
	post, err := env.community.CreatePost(ctx, author, PostRequest{Title: "Popular", Content: "body"})
	require.NoError(t, err)

	stale, err := env.community.PostRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.NoError(t, env.community.PostRepo.IncrementLikes(ctx, post.ID))

	stale.Title = "Popular, edited"
	require.NoError(t, env.community.PostRepo.UpdateContent(ctx, stale))

	current, err := env.community.PostRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Popular, edited", current.Title)
	assert.Equal(t, 1, current.LikeCount)

	// 服务层返回的是库里的最新值
	updated, err := env.community.UpdatePost(ctx, author, post.ID, PostRequest{Title: "Again", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.LikeCount)
	assert.Equal(t, model.PostDiscussion, updated.Type)
}
