package model

import "time"

// RatingRole names the capacity in which the target user is being rated.
// A buyer rating the seller produces a SELLER rating; a seller rating the
// buyer produces a BIDDER rating.
type RatingRole string

const (
	RoleSeller RatingRole = "SELLER"
	RoleBidder RatingRole = "BIDDER"
)

// Rating is immutable feedback left by one transaction party about the
// other.  At most one exists per (transaction, from_user).
type Rating struct {
	ID            uint64
	TransactionID uint64
	FromUserID    uint64
	ToUserID      uint64
	Role          RatingRole
	Score         int // +1 or -1
	Content       string
	CreatedAt     time.Time
}

// RatingAggregate is the per-role reputation summary stored on users.  It
// is always recomputed from the rating rows, never incremented.
type RatingAggregate struct {
	UserID   uint64     `json:"-"`
	Role     RatingRole `json:"role"`
	Total    int        `json:"total"`
	Positive int        `json:"positive"`
	Average  float64    `json:"average"` // Positive/Total, 0 when Total is 0
}

// NewRatingAggregate derives the average from the counters.
func NewRatingAggregate(userID uint64, role RatingRole, total, positive int) RatingAggregate {
	agg := RatingAggregate{UserID: userID, Role: role, Total: total, Positive: positive}
	if total > 0 {
		agg.Average = float64(positive) / float64(total)
	}
	return agg
}

// RatingSnapshot is the bidder reputation consulted by the eligibility
// checker: every rating the user has received, in either role.
type RatingSnapshot struct {
	Positive int
	Negative int
}

// Total returns the number of ratings in the snapshot.
func (s RatingSnapshot) Total() int { return s.Positive + s.Negative }

// Reputation is a user's public standing in both roles.
type Reputation struct {
	UserID uint64          `json:"user_id"`
	Seller RatingAggregate `json:"seller"`
	Bidder RatingAggregate `json:"bidder"`
}
