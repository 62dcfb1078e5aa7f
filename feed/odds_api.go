// Package feed implements the client for The Odds API, the external oracle
// for schedules, prices, and final scores.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookie/metrics"
	"bookie/models"
	"bookie/service"

	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.the-odds-api.com/v4"

// Client is the HTTP client for The Odds API. It implements
// service.EventFeed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a feed client with a bounded request timeout
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Game is one upcoming event with its best available prices per market
type Game struct {
	ID           string                `json:"game_id"`
	Sport        string                `json:"sport"`
	League       string                `json:"league"`
	HomeTeam     string                `json:"home_team"`
	AwayTeam     string                `json:"away_team"`
	CommenceTime time.Time             `json:"game_time"`
	Moneyline    map[string]Price      `json:"moneyline"`
	Spread       map[string]LinedPrice `json:"spread"`
	Total        map[string]LinedPrice `json:"total"`
	Bookmakers   int                   `json:"total_bookmakers"`
}

// Price is one American-odds quote
type Price struct {
	Odds      int    `json:"odds"`
	Bookmaker string `json:"bookmaker"`
}

// LinedPrice is a quote with its point line, for spread and total markets
type LinedPrice struct {
	Odds      float64 `json:"odds"`
	Line      float64 `json:"line"`
	Bookmaker string  `json:"bookmaker"`
}

// CompletedGame is a finished event with its final score, ready to drive
// settlement
type CompletedGame struct {
	ID           string            `json:"game_id"`
	Sport        string            `json:"sport"`
	League       string            `json:"league"`
	HomeTeam     string            `json:"home_team"`
	AwayTeam     string            `json:"away_team"`
	CommenceTime time.Time         `json:"game_time"`
	Winner       string            `json:"winner"`
	FinalScore   models.FinalScore `json:"final_score"`
}

// wire types as The Odds API returns them

type apiGame struct {
	ID           string         `json:"id"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

type apiScoredGame struct {
	ID           string     `json:"id"`
	CommenceTime time.Time  `json:"commence_time"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	Completed    bool       `json:"completed"`
	Scores       []apiScore `json:"scores"`
}

type apiScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// CommenceTimes resolves start times for the given event ids, keyed by
// normalized event id. Ids the feed does not know are absent from the result.
func (c *Client) CommenceTimes(ctx context.Context, sportKey string, eventIDs []string) (map[string]time.Time, error) {
	if !IsSupportedSport(sportKey) {
		return nil, service.NewError(service.KindValidation, "unsupported sport %q", sportKey)
	}

	wanted := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		wanted[models.NormalizeEventID(id)] = struct{}{}
	}

	var games []apiGame
	query := url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {"us"},
		"markets":    {"h2h"},
		"oddsFormat": {"american"},
	}
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", sportKey), query, "odds", &games); err != nil {
		return nil, err
	}

	times := make(map[string]time.Time, len(wanted))
	for _, game := range games {
		key := models.NormalizeEventID(game.ID)
		if _, ok := wanted[key]; ok {
			times[key] = game.CommenceTime
		}
	}
	return times, nil
}

// UpcomingGames lists the sport's upcoming events with prices collapsed to
// one quote per market side, last bookmaker wins.
func (c *Client) UpcomingGames(ctx context.Context, sportKey string) ([]*Game, error) {
	info, ok := SportMapping[sportKey]
	if !ok {
		return nil, service.NewError(service.KindValidation, "unsupported sport %q", sportKey)
	}

	var raw []apiGame
	query := url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {"us"},
		"markets":    {"h2h,spreads,totals"},
		"oddsFormat": {"american"},
	}
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", sportKey), query, "odds", &raw); err != nil {
		return nil, err
	}

	games := make([]*Game, 0, len(raw))
	for _, g := range raw {
		game := &Game{
			ID:           models.NormalizeEventID(g.ID),
			Sport:        info.Sport,
			League:       info.League,
			HomeTeam:     g.HomeTeam,
			AwayTeam:     g.AwayTeam,
			CommenceTime: g.CommenceTime,
			Moneyline:    make(map[string]Price),
			Spread:       make(map[string]LinedPrice),
			Total:        make(map[string]LinedPrice),
			Bookmakers:   len(g.Bookmakers),
		}
		for _, book := range g.Bookmakers {
			for _, market := range book.Markets {
				for _, outcome := range market.Outcomes {
					switch market.Key {
					case "h2h":
						game.Moneyline[outcome.Name] = Price{
							Odds:      int(outcome.Price),
							Bookmaker: book.Key,
						}
					case "spreads":
						price := LinedPrice{Odds: outcome.Price, Bookmaker: book.Key}
						if outcome.Point != nil {
							price.Line = *outcome.Point
						}
						game.Spread[outcome.Name] = price
					case "totals":
						price := LinedPrice{Odds: outcome.Price, Bookmaker: book.Key}
						if outcome.Point != nil {
							price.Line = *outcome.Point
						}
						game.Total[totalSide(outcome.Name)] = price
					}
				}
			}
		}
		games = append(games, game)
	}
	return games, nil
}

// CompletedGames lists finished events from the last daysBack days with the
// winner resolved from the final score. Ties carry an empty winner.
func (c *Client) CompletedGames(ctx context.Context, sportKey string, daysBack int) ([]*CompletedGame, error) {
	info, ok := SportMapping[sportKey]
	if !ok {
		return nil, service.NewError(service.KindValidation, "unsupported sport %q", sportKey)
	}
	if daysBack < 1 || daysBack > 3 {
		return nil, service.NewError(service.KindValidation, "daysBack must be between 1 and 3, got %d", daysBack)
	}

	var raw []apiScoredGame
	query := url.Values{
		"apiKey":     {c.apiKey},
		"daysFrom":   {strconv.Itoa(daysBack)},
		"dateFormat": {"iso"},
	}
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/scores", sportKey), query, "scores", &raw); err != nil {
		return nil, err
	}

	games := make([]*CompletedGame, 0, len(raw))
	for _, g := range raw {
		if !g.Completed {
			continue
		}

		var homeScore, awayScore int
		var haveHome, haveAway bool
		for _, score := range g.Scores {
			points, err := strconv.Atoi(score.Score)
			if err != nil {
				continue
			}
			switch score.Name {
			case g.HomeTeam:
				homeScore, haveHome = points, true
			case g.AwayTeam:
				awayScore, haveAway = points, true
			}
		}
		if !haveHome || !haveAway {
			log.WithField("gameID", g.ID).Warn("Completed game is missing a final score, skipping")
			continue
		}

		var winner string
		if homeScore > awayScore {
			winner = g.HomeTeam
		} else if awayScore > homeScore {
			winner = g.AwayTeam
		}

		games = append(games, &CompletedGame{
			ID:           models.NormalizeEventID(g.ID),
			Sport:        info.Sport,
			League:       info.League,
			HomeTeam:     g.HomeTeam,
			AwayTeam:     g.AwayTeam,
			CommenceTime: g.CommenceTime,
			Winner:       winner,
			FinalScore:   models.FinalScore{Home: homeScore, Away: awayScore},
		})
	}
	return games, nil
}

func totalSide(name string) string {
	if len(name) >= 4 && (name[0] == 'O' || name[0] == 'o') {
		return "over"
	}
	return "under"
}

func (c *Client) get(ctx context.Context, path string, query url.Values, endpoint string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FeedErrors.Inc()
		metrics.FeedRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return service.WrapError(service.KindUpstreamUnavailable, err, "feed request to %s failed", path)
	}
	defer resp.Body.Close()

	metrics.FeedRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.FeedErrors.Inc()
		return service.NewError(service.KindUpstreamUnavailable, "feed returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return service.WrapError(service.KindUpstreamUnavailable, err, "failed to decode feed response from %s", path)
	}

	log.WithFields(log.Fields{
		"endpoint":  endpoint,
		"remaining": resp.Header.Get("x-requests-remaining"),
	}).Debug("Feed request completed")

	return nil
}
