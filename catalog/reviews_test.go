package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
)

func TestAddReview(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	review, err := svc.AddReview(ctx, product.ID, "user-1", "maria@example.com", AddReviewInput{
		Rating:  5,
		Comment: "Excelente calidad",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^REV-[0-9A-F]{8}$`, review.ReviewID)
	assert.Equal(t, "maria", review.DisplayName, "defaults to the email local part")
	assert.True(t, review.Verified)

	stored, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, 5.0, stored.AverageRating)
	assert.Equal(t, 1, stored.ReviewCount)
}

func TestAddReviewAverageRounding(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, product.ID, "user-2", "b@x.com", AddReviewInput{Rating: 4})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, product.ID, "user-3", "c@x.com", AddReviewInput{Rating: 4})
	require.NoError(t, err)

	stored, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	// 13/3 = 4.333... rounds to one decimal.
	assert.Equal(t, 4.3, stored.AverageRating)
	assert.Equal(t, 3, stored.ReviewCount)
}

func TestAddReviewDuplicateUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 5})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 1})
	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "already reviewed")

	// The first review is untouched.
	stored, getErr := svc.GetProduct(ctx, product.ID)
	require.NoError(t, getErr)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, 5, stored.Reviews[0].Rating)
}

func TestAddReviewValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 0})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 6})
	require.ErrorAs(t, err, &verr)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{
		Rating:  4,
		Comment: strings.Repeat("x", maxCommentLength+1),
	})
	require.ErrorAs(t, err, &verr)
}

func TestAddReviewProductNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddReview(context.Background(), "PRODMISSING", "user-1", "a@x.com", AddReviewInput{Rating: 4})
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestListReviews(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, product.ID, "user-1", "a@x.com", AddReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, product.ID, "user-2", "b@x.com", AddReviewInput{Rating: 3, DisplayName: "Juan"})
	require.NoError(t, err)

	result, err := svc.ListReviews(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, product.ID, result.ProductID)
	assert.Equal(t, 2, result.ReviewCount)
	assert.Equal(t, 4.0, result.AverageRating)
	assert.Equal(t, 1, result.RatingSummary["5"])
	assert.Equal(t, 1, result.RatingSummary["3"])
	assert.Equal(t, 0, result.RatingSummary["1"])
}

func TestListReviewsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, validInput(), "admin@shop.com")
	require.NoError(t, err)

	result, err := svc.ListReviews(ctx, product.ID)
	require.NoError(t, err)
	assert.NotNil(t, result.Reviews)
	assert.Empty(t, result.Reviews)
	assert.Zero(t, result.AverageRating)
}

func TestAverageRating(t *testing.T) {
	assert.Zero(t, averageRating(nil))
	assert.Equal(t, 4.5, averageRating([]models.Review{{Rating: 4}, {Rating: 5}}))
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Juan", displayName("Juan", "juan@x.com"))
	assert.Equal(t, "juan", displayName("", "juan@x.com"))
	assert.Equal(t, "Cliente", displayName("", ""))
}
