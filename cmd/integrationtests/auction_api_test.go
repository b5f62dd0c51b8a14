package integrationtests

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Bidding lifecycle from first bid to close
func TestAuctionLifecycle(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	_, u1Token := RegisterAndLogin(t, router, "bidder1")
	u2ID, u2Token := RegisterAndLogin(t, router, "bidder2")

	listingID := CreateListing(t, router, ownerToken, 100)

	steps := []struct {
		name        string
		token       string
		amount      int64
		wantStatus  int
		wantCurrent float64
	}{
		{name: "below_starting_price", token: u1Token, amount: 80, wantStatus: http.StatusConflict, wantCurrent: 100},
		{name: "equal_to_starting_price", token: u1Token, amount: 100, wantStatus: http.StatusCreated},
		{name: "raise", token: u2Token, amount: 150, wantStatus: http.StatusCreated},
		{name: "below_running_bid", token: u1Token, amount: 120, wantStatus: http.StatusConflict, wantCurrent: 150},
		{name: "tie_with_running_bid", token: u1Token, amount: 150, wantStatus: http.StatusCreated},
		{name: "final_raise", token: u2Token, amount: 175, wantStatus: http.StatusCreated},
	}

	for _, step := range steps {
		resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/bid/"+listingID, step.token, map[string]any{"amount": step.amount})
		require.Equal(t, step.wantStatus, w.Code, "%s: %s", step.name, w.Body.String())

		data := DataMap(t, resp)
		if step.wantStatus == http.StatusConflict {
			require.Equal(t, step.wantCurrent, data["current_highest"], step.name)
			require.Equal(t, step.wantCurrent+1, data["min_next_bid"], step.name)
			continue
		}
		require.Equal(t, float64(step.amount), data["amount"], step.name)
	}

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/list/"+listingID, u1Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := DataMap(t, resp)
	require.Equal(t, 175.0, view["highest_bid"])
	require.Equal(t, u2ID, view["highest_bidder_id"])
	require.Equal(t, false, view["is_owner"])
	require.Equal(t, true, view["has_bids"])

	// a non-owner cannot close
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/close/"+listingID, u1Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/close/"+listingID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := DataMap(t, resp)
	require.Equal(t, true, closed["has_winner"])
	require.Equal(t, u2ID, closed["winner_id"])
	require.Equal(t, 175.0, closed["final_amount"])

	// closed listings reject further bids and a second close
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/bid/"+listingID, u1Token, map[string]any{"amount": 500})
	require.Equal(t, http.StatusConflict, w.Code)
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/close/"+listingID, ownerToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/won", u2Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	won := DataList(t, resp)
	require.Len(t, won, 1)
	require.Equal(t, listingID, won[0].(map[string]any)["id"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/won", u1Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, DataList(t, resp))

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, DataList(t, resp))
}

func TestCloseWithoutBids(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	listingID := CreateListing(t, router, ownerToken, 20)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/close/"+listingID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auction closed without any bids", resp["message"])

	data := DataMap(t, resp)
	require.Equal(t, false, data["has_winner"])
	require.Nil(t, data["winner_id"])
}

func TestPlaceBid_Errors(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	_, bidderToken := RegisterAndLogin(t, router, "bidder")
	listingID := CreateListing(t, router, ownerToken, 50)

	tests := []struct {
		name       string
		url        string
		token      string
		body       any
		wantStatus int
	}{
		{name: "anonymous", url: "/bid/" + listingID, body: map[string]any{"amount": 60}, wantStatus: http.StatusUnauthorized},
		{name: "unknown_listing", url: "/bid/missing", token: bidderToken, body: map[string]any{"amount": 60}, wantStatus: http.StatusNotFound},
		{name: "zero_amount", url: "/bid/" + listingID, token: bidderToken, body: map[string]any{"amount": 0}, wantStatus: http.StatusBadRequest},
		{name: "malformed_json", url: "/bid/" + listingID, token: bidderToken, body: "{amount: 'x'}", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, w := ExecuteRequestAndParse(t, router, http.MethodPost, tt.url, tt.token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestConcurrentBids(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	listingID := CreateListing(t, router, ownerToken, 10)

	tokens := make([]string, 8)
	for i := range tokens {
		_, tokens[i] = RegisterAndLogin(t, router, fmt.Sprintf("bidder%d", i))
	}

	var wg sync.WaitGroup
	for i, token := range tokens {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func(token string, amount int64) {
				defer wg.Done()
				ExecuteRequest(t, router, http.MethodPost, "/bid/"+listingID, token, []byte(fmt.Sprintf(`{"amount": %d}`, amount)))
			}(token, int64(10+i*10+j))
		}
	}
	wg.Wait()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/list/"+listingID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(10+7*10+9), DataMap(t, resp)["highest_bid"])
}

func TestWatchlistFlow(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	_, viewerToken := RegisterAndLogin(t, router, "viewer")
	listingID := CreateListing(t, router, ownerToken, 30)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/additem/"+listingID, viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, DataMap(t, resp)["added"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/additem/"+listingID, viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, DataMap(t, resp)["added"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/watchlist", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, DataList(t, resp), 1)

	resp, _ = ExecuteRequestAndParse(t, router, http.MethodGet, "/list/"+listingID, viewerToken, nil)
	require.Equal(t, true, DataMap(t, resp)["is_watching"])

	resp, _ = ExecuteRequestAndParse(t, router, http.MethodGet, "/list/"+listingID, "", nil)
	require.Equal(t, false, DataMap(t, resp)["is_watching"])

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/removeitem/"+listingID, viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// removing an absent entry reports not found
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/removeitem/"+listingID, viewerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	resp, _ = ExecuteRequestAndParse(t, router, http.MethodGet, "/watchlist", viewerToken, nil)
	require.Empty(t, DataList(t, resp))

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/additem/missing", viewerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentFlow(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	commenterID, commenterToken := RegisterAndLogin(t, router, "commenter")
	listingID := CreateListing(t, router, ownerToken, 30)

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/comment/"+listingID, commenterToken, map[string]string{"comment": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/comment/"+listingID, commenterToken, map[string]string{"comment": "Does it ship?"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, commenterID, DataMap(t, resp)["author_id"])

	resp, _ = ExecuteRequestAndParse(t, router, http.MethodGet, "/list/"+listingID, "", nil)
	comments := DataMap(t, resp)["comments"].([]any)
	require.Len(t, comments, 1)
	require.Equal(t, "Does it ship?", comments[0].(map[string]any)["text"])
}

func TestBrowseByCategory(t *testing.T) {
	router := SetupTestRouter(t)

	_, ownerToken := RegisterAndLogin(t, router, "owner")
	listingID := CreateListing(t, router, ownerToken, 30)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, DataList(t, resp), len(testCategories))

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/category/home", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listings := DataMap(t, resp)["listings"].([]any)
	require.Len(t, listings, 1)
	require.Equal(t, listingID, listings[0].(map[string]any)["id"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/category/books", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, DataMap(t, resp)["listings"])

	_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/category/garden", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountFlow(t *testing.T) {
	router := SetupTestRouter(t)

	_, token := RegisterAndLogin(t, router, "alice")

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "x", "confirmation": "x",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/watchlist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/watchlist", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
