package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gbi46/photo-share/internal/authz"
	"github.com/gbi46/photo-share/internal/repo"
)

func newCommentService(db *gorm.DB) *CommentService {
	return NewCommentService(repo.NewCommentRepo(db), repo.NewPostRepo(db))
}

func TestCommentAddRequiresPost(t *testing.T) {
	db := newTestDB(t)
	svc := newCommentService(db)
	author := seedAuthor(t, db, "alice")

	_, err := svc.Add(context.Background(), "missing-post", author.ID, "hi")
	require.Error(t, err)
	assert.True(t, authz.IsNotFound(err))
	assert.EqualError(t, err, "post not found")
}

func TestCommentLifecycle(t *testing.T) {
	db := newTestDB(t)
	comments := newCommentService(db)
	posts := newPostService(db)
	ctx := context.Background()
	author := seedAuthor(t, db, "alice")

	post, err := posts.Create(ctx, author, PostCreateInput{Title: "t"})
	require.NoError(t, err)

	c1, err := comments.Add(ctx, post.ID, author.ID, "first")
	require.NoError(t, err)
	c2, err := comments.Add(ctx, post.ID, author.ID, "second")
	require.NoError(t, err)

	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	updated, err := comments.Update(ctx, c1.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)

	require.NoError(t, comments.Delete(ctx, c2.ID))
	err = comments.Delete(ctx, c2.ID)
	assert.True(t, authz.IsNotFound(err))

	_, err = comments.Get(ctx, c2.ID)
	assert.True(t, authz.IsNotFound(err))
}
