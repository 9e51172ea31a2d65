package model

import "time"

// User is the subset of the `users` table the marketplace core reads:
// identity plus the two reputation aggregates.  The average columns are
// derived, so they are rebuilt from the counters on load.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	Role         – account role (BIDDER, SELLER or ADMIN).
//	SellerRating – ratings received as a seller.
//	BidderRating – ratings received as a buyer.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Role         string    // users.role
	SellerRating RatingAggregate
	BidderRating RatingAggregate
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
