package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
)

func TestLedgerTx_RecomputeRatings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		role      model.RatingRole
		userRows  *sqlmock.Rows
		updateSQL string
	}{
		{
			name:      "bidder aggregate",
			role:      model.RoleBidder,
			userRows:  sqlmock.NewRows([]string{"id"}).AddRow(int64(20)),
			updateSQL: "UPDATE users SET bidder_total_ratings_count = ?, bidder_positive_ratings_count = ?, bidder_average_rating = ? WHERE id = ?",
		},
		{
			name:      "seller without users row",
			role:      model.RoleSeller,
			userRows:  sqlmock.NewRows([]string{"id"}),
			updateSQL: "UPDATE users SET seller_total_ratings_count = ?, seller_positive_ratings_count = ?, seller_average_rating = ? WHERE id = ?",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectQuery(sqlText("SELECT id FROM users WHERE id = ? FOR UPDATE")).
				WithArgs(uint64(20)).
				WillReturnRows(tc.userRows)
			mock.ExpectQuery(sqlText("FROM ratings WHERE to_user_id = ? AND role = ?")).
				WithArgs(uint64(20), string(tc.role)).
				WillReturnRows(sqlmock.NewRows([]string{"total", "positive"}).AddRow(int64(4), []byte("3")))
			mock.ExpectExec(sqlText(tc.updateSQL)).
				WithArgs(4, 3, 0.75, uint64(20)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			ctx := context.Background()
			tx, err := NewLedger(db).BeginTx(ctx)
			require.NoError(t, err)
			agg, err := tx.RecomputeRatings(ctx, 20, tc.role)
			require.NoError(t, err)
			require.Equal(t, model.NewRatingAggregate(20, tc.role, 4, 3), agg)
			require.NoError(t, tx.Commit())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLedgerTx_FinishOnce(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := NewLedger(db).BeginTx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.ErrorIs(t, tx.Commit(), sql.ErrTxDone)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerTx_LockListingNotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("FROM listings WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(listingCols))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := NewLedger(db).BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.LockListing(ctx, 99)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Reputation(t *testing.T) {
	t.Parallel()
	cols := []string{
		"id", "email", "role", "seller_total_ratings_count", "seller_positive_ratings_count",
		"bidder_total_ratings_count", "bidder_positive_ratings_count", "created_at", "updated_at",
	}

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		want    model.Reputation
		wantErr error
	}{
		{
			name: "both roles",
			rows: sqlmock.NewRows(cols).AddRow(int64(20), "ana@example.com", "BIDDER", int64(5), int64(4), int64(2), int64(2), now, now),
			want: model.Reputation{
				UserID: 20,
				Seller: model.NewRatingAggregate(20, model.RoleSeller, 5, 4),
				Bidder: model.NewRatingAggregate(20, model.RoleBidder, 2, 2),
			},
		},
		{name: "unknown user", rows: sqlmock.NewRows(cols), wantErr: ledger.ErrNotFound},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMock(t)
			mock.ExpectQuery(sqlText("FROM users WHERE id = ? LIMIT 1")).
				WithArgs(uint64(20)).
				WillReturnRows(tc.rows)

			rep, err := NewLedger(db).Reputation(context.Background(), 20)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.want, rep)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
