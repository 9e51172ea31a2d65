package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// UserRepo reads and writes the reputation columns of the users table.
// Accounts themselves are managed by the surrounding application.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// aggregateColumns returns the users columns holding one role's aggregate.
func aggregateColumns(role model.RatingRole) (total, positive, average string, err error) {
	switch role {
	case model.RoleSeller:
		return "seller_total_ratings_count", "seller_positive_ratings_count", "seller_average_rating", nil
	case model.RoleBidder:
		return "bidder_total_ratings_count", "bidder_positive_ratings_count", "bidder_average_rating", nil
	}
	return "", "", "", fmt.Errorf("unknown rating role %q", role)
}

// SaveAggregateTx overwrites one role's aggregate.  Callers hold the users
// row lock from LockTx.  A missing users row is not an error; the aggregate
// is simply not stored.
func (r *UserRepo) SaveAggregateTx(ctx context.Context, tx *sql.Tx, agg model.RatingAggregate) error {
	totalCol, posCol, avgCol, err := aggregateColumns(agg.Role)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE users SET %s = ?, %s = ?, %s = ? WHERE id = ?`, totalCol, posCol, avgCol)
	_, err = tx.ExecContext(ctx, q, agg.Total, agg.Positive, agg.Average, agg.UserID)
	return err
}

// LockTx takes the users row lock for userID.
func (r *UserRepo) LockTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}

// GetByID fetches a user with both reputation aggregates.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var (
		u            model.User
		sTotal, sPos int
		bTotal, bPos int
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, role, seller_total_ratings_count, seller_positive_ratings_count,
		        bidder_total_ratings_count, bidder_positive_ratings_count, created_at, updated_at
		 FROM users WHERE id = ? LIMIT 1`,
		id).Scan(&u.ID, &u.Email, &u.Role, &sTotal, &sPos, &bTotal, &bPos, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, translate(err)
	}
	u.SellerRating = model.NewRatingAggregate(u.ID, model.RoleSeller, sTotal, sPos)
	u.BidderRating = model.NewRatingAggregate(u.ID, model.RoleBidder, bTotal, bPos)
	return u, nil
}

// Reputation returns both aggregates of a user.
func (r *UserRepo) Reputation(ctx context.Context, id uint64) (model.Reputation, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Reputation{}, err
	}
	return model.Reputation{UserID: u.ID, Seller: u.SellerRating, Bidder: u.BidderRating}, nil
}
