package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auction-marketplace/internal/auction"
	"github.com/iliyamo/auction-marketplace/internal/config"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/repository/memstore"
	"github.com/iliyamo/auction-marketplace/internal/utils"
)

const secret = "router-secret"

func call(t *testing.T, e *echo.Echo, method, path string, userID uint64, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != 0 {
		tok, err := utils.NewAccessToken(secret, userID, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesEndToEnd(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	settings := memstore.NewSettings(nil)
	engine := auction.NewEngine(store, settings, nil)
	l := store.CreateListing(model.Listing{
		SellerID:            1,
		StartingPrice:       decimal.NewFromInt(100),
		PriceStep:           decimal.NewFromInt(10),
		StartsAt:            time.Now().Add(-time.Hour),
		EndsAt:              time.Now().Add(time.Hour),
		AllowUnratedBidders: true,
	})

	e := echo.New()
	RegisterRoutes(e, Deps{
		Engine:     engine,
		Settings:   settings,
		Reputation: store,
		JWTSecret:  secret,
		RateLimit:  config.RateLimitConfig{Enabled: false},
	})

	rec := call(t, e, http.MethodGet, "/healthz", 0, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, e, http.MethodPost, "/v1/listings/1/bids", 0, "", `{"amount":"100"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, e, http.MethodPost, "/v1/listings/1/bids", 10, utils.RoleAdmin, `{"amount":"100"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, e, http.MethodPost, "/v1/listings/1/bids", 10, utils.RoleBidder, `{"amount":"100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodPost, "/v1/listings/1/bids", 11, utils.RoleBidder, `{"amount":"105"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"min_amount":"110.00"`)

	// only sellers reach the block route
	rec = call(t, e, http.MethodPost, "/v1/listings/1/blocks", 10, utils.RoleBidder, `{"bidder_id":11}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, e, http.MethodPost, "/v1/listings/1/blocks", 1, utils.RoleSeller, `{"bidder_id":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := store.Listing(l.ID)
	require.Nil(t, got.WinnerID)
	require.True(t, store.Blocked(l.ID, 10))

	rec = call(t, e, http.MethodPut, "/v1/admin/settings/bid_cooldown_seconds", 1, utils.RoleSeller, `{"value":"0"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, e, http.MethodPut, "/v1/admin/settings/bid_cooldown_seconds", 2, utils.RoleAdmin, `{"value":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v, ok, _ := settings.Get(context.Background(), auction.SettingBidCooldownSeconds)
	require.True(t, ok)
	require.Equal(t, "0", v)

	rec = call(t, e, http.MethodGet, "/v1/users/10/ratings", 0, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":10`)

	rec = call(t, e, http.MethodPost, "/v1/transactions/77/receipt", 10, utils.RoleBidder, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
