package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bookie/config"
	"bookie/models"

	"github.com/shopspring/decimal"
)

// RunCommand executes a one-shot operational command against the ledger and
// prints the outcome. Usage:
//
//	bookie register <username>
//	bookie balance <username>
//	bookie bet <username> <amount> <sport_key> <event_id> <selection> <odds>
//	bookie cancel <wager_id> <username>
//	bookie settle <event_id> <winner> <home_score> <away_score>
//	bookie leaderboard [limit]
func RunCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}

	cfg := config.Get()
	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.close()

	switch args[0] {
	case "register":
		return cmdRegister(ctx, application, args[1:])
	case "balance":
		return cmdBalance(ctx, application, args[1:])
	case "bet":
		return cmdBet(ctx, application, args[1:])
	case "cancel":
		return cmdCancel(ctx, application, args[1:])
	case "settle":
		return cmdSettle(ctx, application, args[1:])
	case "leaderboard":
		return cmdLeaderboard(ctx, application, args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bookie register <username>")
	}
	user, err := a.users.Register(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("registered %s with balance %s\n", user.Username, user.Balance)
	return nil
}

func cmdBalance(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bookie balance <username>")
	}
	ledger, err := a.ledger.GetUserLedger(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: balance=%s profit=%s losses=%s rank=%d tier=%s active_wagers=%d\n",
		ledger.Username, ledger.Balance, ledger.Profit, ledger.Losses,
		ledger.Rank, ledger.Tier, ledger.ActiveWagers)
	return nil
}

func cmdBet(ctx context.Context, a *app, args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("usage: bookie bet <username> <amount> <sport_key> <event_id> <selection> <odds>")
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	odds, err := strconv.Atoi(args[5])
	if err != nil {
		return fmt.Errorf("invalid odds %q: %w", args[5], err)
	}

	wager, err := a.betting.PlaceWager(ctx, args[0], amount, []*models.Leg{
		{
			EventID:   args[3],
			SportKey:  args[2],
			Selection: args[4],
			Odds:      odds,
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("wager %s placed: %s on %q at %+d\n", wager.ID, wager.Amount, args[4], odds)
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: bookie cancel <wager_id> <username>")
	}
	result, err := a.cancellation.Cancel(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("wager %s cancelled, refunded %s, balance now %s\n",
		result.WagerID, result.Refund, result.NewBalance)
	return nil
}

func cmdSettle(ctx context.Context, a *app, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: bookie settle <event_id> <winner> <home_score> <away_score>")
	}
	home, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid home score %q: %w", args[2], err)
	}
	away, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid away score %q: %w", args[3], err)
	}

	report, err := a.settlement.Settle(ctx, args[0], args[1], models.FinalScore{Home: home, Away: away})
	if err != nil {
		return err
	}

	fmt.Printf("event %s settled: %d wagers, %d users\n",
		report.EventID, report.WagersSettled, report.UsersAffected)
	for _, user := range report.Users {
		line := fmt.Sprintf("  %s: %d settled (%dW/%dL), profit %s",
			user.Username, user.WagersSettled, user.Wins, user.Losses, user.ProfitChange)
		if user.LedgerError != "" {
			line += " [ledger error: " + user.LedgerError + "]"
		}
		fmt.Println(line)
	}
	return nil
}

func cmdLeaderboard(ctx context.Context, a *app, args []string) error {
	limit := 10
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q: %w", args[0], err)
		}
		limit = parsed
	}

	entries, err := a.ledger.Leaderboard(ctx, 0, limit)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%3d. %-20s profit=%-10s tier=%s\n",
			entry.Rank, entry.Username, entry.Profit.String(), entry.Tier)
	}
	fmt.Print(b.String())
	return nil
}
