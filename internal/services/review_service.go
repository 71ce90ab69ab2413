package services

import (
	"errors"

	"shophub/internal/domain"
	"shophub/internal/repos"

	"github.com/google/uuid"
)

var ErrBadRating = errors.New("rating must be between 1 and 5")

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders, Prods: prods}
}

// Add creates a review; verified-purchase is set when the user has a
// delivered order containing the product. One review per user/product
// (enforced by the unique index).
func (s *ReviewService) Add(productID string, user *domain.User, rating int, title, comment string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, ErrBadRating
	}
	if _, err := s.Prods.Get(productID); err != nil {
		return domain.Review{}, err
	}

	verified := false
	if user != nil {
		v, err := s.Orders.HasDeliveredOrderWith(user.ID, productID)
		if err != nil {
			return domain.Review{}, err
		}
		verified = v
	}

	rv := domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		Rating:    rating,
		Title:     title,
		Comment:   comment,
		Verified:  verified,
		Approved:  true,
	}
	if user != nil {
		rv.UserID = user.ID
	}
	if err := s.Reviews.Insert(rv); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

func (s *ReviewService) ListForProduct(productID string) ([]domain.Review, float64, error) {
	reviews, err := s.Reviews.ListForProduct(productID)
	if err != nil {
		return nil, 0, err
	}
	avg, err := s.Reviews.AverageRating(productID)
	if err != nil {
		return nil, 0, err
	}
	return reviews, avg, nil
}

func (s *ReviewService) Vote(reviewID, userID string, helpful bool) error {
	return s.Reviews.Vote(reviewID, userID, helpful)
}
