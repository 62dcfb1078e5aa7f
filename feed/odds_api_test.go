package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookie/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CommenceTimes(t *testing.T) {
	commence := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/basketball_nba/odds", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "EVT1", "commence_time": "2026-03-14T19:00:00Z", "home_team": "Lakers", "away_team": "Celtics"},
			{"id": "evt2", "commence_time": "2026-03-15T01:30:00Z", "home_team": "Bulls", "away_team": "Heat"}
		]`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	times, err := client.CommenceTimes(context.Background(), "basketball_nba", []string{"evt1", "evt3"})

	require.NoError(t, err)
	// evt1 resolves through normalization of the feed's uppercase id; evt3 is
	// unknown and absent
	assert.Len(t, times, 1)
	assert.Equal(t, commence, times["evt1"])
}

func TestClient_CommenceTimes_UnsupportedSport(t *testing.T) {
	client := NewClient("secret")

	_, err := client.CommenceTimes(context.Background(), "cricket_ipl", []string{"evt1"})
	assert.Equal(t, service.KindValidation, service.KindOf(err))
}

func TestClient_CommenceTimes_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.CommenceTimes(context.Background(), "basketball_nba", []string{"evt1"})
	assert.Equal(t, service.KindUpstreamUnavailable, service.KindOf(err))
}

func TestClient_CommenceTimes_Unreachable(t *testing.T) {
	client := NewClient("secret", WithBaseURL("http://127.0.0.1:1"))

	_, err := client.CommenceTimes(context.Background(), "basketball_nba", []string{"evt1"})
	assert.Equal(t, service.KindUpstreamUnavailable, service.KindOf(err))
}

func TestClient_UpcomingGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/baseball_mlb/odds", r.URL.Path)
		assert.Equal(t, "h2h,spreads,totals", r.URL.Query().Get("markets"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "game1",
			"commence_time": "2026-03-14T19:00:00Z",
			"home_team": "Yankees",
			"away_team": "Red Sox",
			"bookmakers": [{
				"key": "draftkings",
				"markets": [
					{"key": "h2h", "outcomes": [
						{"name": "Yankees", "price": -150},
						{"name": "Red Sox", "price": 130}
					]},
					{"key": "spreads", "outcomes": [
						{"name": "Yankees", "price": -110, "point": -1.5},
						{"name": "Red Sox", "price": -110, "point": 1.5}
					]},
					{"key": "totals", "outcomes": [
						{"name": "Over", "price": -105, "point": 8.5},
						{"name": "Under", "price": -115, "point": 8.5}
					]}
				]
			}]
		}]`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	games, err := client.UpcomingGames(context.Background(), "baseball_mlb")

	require.NoError(t, err)
	require.Len(t, games, 1)

	game := games[0]
	assert.Equal(t, "game1", game.ID)
	assert.Equal(t, "baseball", game.Sport)
	assert.Equal(t, "MLB", game.League)
	assert.Equal(t, -150, game.Moneyline["Yankees"].Odds)
	assert.Equal(t, 130, game.Moneyline["Red Sox"].Odds)
	assert.Equal(t, -1.5, game.Spread["Yankees"].Line)
	assert.Equal(t, 8.5, game.Total["over"].Line)
	assert.Equal(t, 8.5, game.Total["under"].Line)
	assert.Equal(t, 1, game.Bookmakers)
}

func TestClient_CompletedGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/basketball_nba/scores", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("daysFrom"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": "done1",
				"commence_time": "2026-03-13T19:00:00Z",
				"home_team": "Lakers",
				"away_team": "Celtics",
				"completed": true,
				"scores": [
					{"name": "Lakers", "score": "110"},
					{"name": "Celtics", "score": "98"}
				]
			},
			{
				"id": "live1",
				"commence_time": "2026-03-14T19:00:00Z",
				"home_team": "Bulls",
				"away_team": "Heat",
				"completed": false,
				"scores": [
					{"name": "Bulls", "score": "55"},
					{"name": "Heat", "score": "60"}
				]
			}
		]`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	games, err := client.CompletedGames(context.Background(), "basketball_nba", 2)

	require.NoError(t, err)
	require.Len(t, games, 1, "in-progress games must be excluded")

	game := games[0]
	assert.Equal(t, "done1", game.ID)
	assert.Equal(t, "Lakers", game.Winner)
	assert.Equal(t, 110, game.FinalScore.Home)
	assert.Equal(t, 98, game.FinalScore.Away)
}

func TestClient_CompletedGames_TieHasNoWinner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "tie1",
			"commence_time": "2026-03-13T19:00:00Z",
			"home_team": "Union",
			"away_team": "Galaxy",
			"completed": true,
			"scores": [
				{"name": "Union", "score": "2"},
				{"name": "Galaxy", "score": "2"}
			]
		}]`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	games, err := client.CompletedGames(context.Background(), "soccer_usa_mls", 1)

	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Empty(t, games[0].Winner)
}

func TestClient_CompletedGames_DaysBackBounds(t *testing.T) {
	client := NewClient("secret")

	_, err := client.CompletedGames(context.Background(), "basketball_nba", 0)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = client.CompletedGames(context.Background(), "basketball_nba", 4)
	assert.Equal(t, service.KindValidation, service.KindOf(err))
}
