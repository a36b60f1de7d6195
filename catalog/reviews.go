package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

const maxCommentLength = 500

// reviewWriteRetries bounds the optimistic-concurrency retry loop when two
// reviews land on the same product at once.
const reviewWriteRetries = 3

// AddReviewInput is the customer-facing review payload. The reviewer
// identity comes from the token, never the body.
type AddReviewInput struct {
	Rating      int    `json:"rating"`
	Comment     string `json:"comment,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// AddReview appends a review to the product and recomputes the aggregates.
// One review per user per product; a second attempt is a conflict.
func (s *Service) AddReview(ctx context.Context, productID, userID, email string, input AddReviewInput) (models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return models.Review{}, apperr.NewValidation("Rating must be an integer between 1 and 5")
	}
	if len(input.Comment) > maxCommentLength {
		return models.Review{}, apperr.NewValidationWithFields(
			fmt.Sprintf("Comment cannot exceed %d characters", maxCommentLength),
			map[string]interface{}{"maxLength": maxCommentLength, "actualLength": len(input.Comment)})
	}

	review := models.Review{
		ReviewID:    newReviewID(),
		UserID:      userID,
		DisplayName: displayName(input.DisplayName, email),
		Rating:      input.Rating,
		Comment:     input.Comment,
		CreatedAt:   time.Now().UTC(),
		Verified:    true,
	}

	for attempt := 0; attempt < reviewWriteRetries; attempt++ {
		product, err := s.getOr404(ctx, productID)
		if err != nil {
			return models.Review{}, err
		}
		for _, existing := range product.Reviews {
			if existing.UserID == userID {
				return models.Review{}, apperr.NewConflictWithFields(
					"You have already reviewed this product",
					map[string]interface{}{"existingReviewId": existing.ReviewID})
			}
		}

		reviews := append(append([]models.Review(nil), product.Reviews...), review)
		avg := averageRating(reviews)

		err = s.products.UpdateReviews(ctx, productID, product.Version, reviews, avg, len(reviews), review.CreatedAt)
		if err == store.ErrVersionConflict {
			s.log.Info("review write lost a concurrent update, retrying",
				zap.String("product_id", productID), zap.Int("attempt", attempt+1))
			continue
		}
		if err == store.ErrNotFound {
			return models.Review{}, productNotFound(productID)
		}
		if err != nil {
			return models.Review{}, apperr.NewInternal("Failed to save review", err)
		}

		s.invalidateListCache(ctx)
		s.log.Info("review added",
			zap.String("product_id", productID),
			zap.String("review_id", review.ReviewID),
			zap.Int("rating", review.Rating))
		return review, nil
	}
	return models.Review{}, apperr.NewInternal("Failed to save review after concurrent updates",
		store.ErrVersionConflict)
}

// ReviewsResult is the GET reviews response: the review list newest first
// plus the aggregates and a per-star histogram.
type ReviewsResult struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
	RatingSummary map[string]int  `json:"ratingSummary"`
}

func (s *Service) ListReviews(ctx context.Context, productID string) (ReviewsResult, error) {
	product, err := s.getOr404(ctx, productID)
	if err != nil {
		return ReviewsResult{}, err
	}

	reviews := append([]models.Review(nil), product.Reviews...)
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })

	summary := map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	for _, r := range reviews {
		summary[fmt.Sprintf("%d", r.Rating)]++
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	return ReviewsResult{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Reviews:       reviews,
		AverageRating: product.AverageRating,
		ReviewCount:   product.ReviewCount,
		RatingSummary: summary,
	}, nil
}

// averageRating is the mean rating rounded to one decimal place.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

func displayName(given, email string) string {
	if given != "" {
		return given
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "Cliente"
}

func newReviewID() string {
	return "REV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
