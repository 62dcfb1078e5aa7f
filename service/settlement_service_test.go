package service

import (
	"context"
	"testing"

	"bookie/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func settlementFixture() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockWagerRepository, *MockLedgerEntryRepository, *MockRankCalculator) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockWagerRepo := new(MockWagerRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)
	mockRank := new(MockRankCalculator)

	mockUoW.SetRepositories(mockUserRepo, mockWagerRepo, mockLedgerRepo)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockUoW, mockFactory, mockUserRepo, mockWagerRepo, mockLedgerRepo, mockRank
}

func singleLegWager(id, username, eventID, selection string, amount decimal.Decimal, odds int) *models.Wager {
	return &models.Wager{
		ID:       id,
		Username: username,
		Amount:   amount,
		Status:   models.WagerStatusActive,
		Legs: []*models.Leg{
			{
				ID:        1,
				WagerID:   id,
				EventID:   eventID,
				SportKey:  "basketball_nba",
				Selection: selection,
				Odds:      odds,
				Status:    models.LegStatusActive,
			},
		},
	}
}

func TestSettlementEngine_Settle_Win(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, mockLedgerRepo, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	stake := decimal.NewFromInt(100)
	wager := singleLegWager("w1", "alice", "evt1", "Lakers", stake, -150)

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeWin,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("166.67")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("66.67")) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)

	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("66.67")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }),
	).Return(&models.User{Username: "alice", Balance: decimal.Zero, Profit: decimal.RequireFromString("66.67")}, nil)

	mockUserRepo.On("Credit", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("166.67")) }),
	).Return(&models.User{Username: "alice", Balance: decimal.RequireFromString("166.67")}, nil)

	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Username == "alice" &&
			e.EntryType == models.EntryTypeWagerPayout &&
			e.Amount.Equal(decimal.RequireFromString("166.67")) &&
			e.BalanceAfter.Equal(decimal.RequireFromString("166.67"))
	})).Return(nil)

	mockRank.On("Recompute", ctx, "alice").Return(&models.RankStanding{
		Username: "alice", Rank: 1, Percentile: 100, Tier: "king", TotalUsers: 1,
	}, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{Home: 110, Away: 98})

	assert.NoError(t, err)
	assert.Equal(t, 1, report.WagersSettled)
	assert.Equal(t, 1, report.LegsSettled)
	assert.Equal(t, 1, report.UsersAffected)

	assert.Len(t, report.Wagers, 1)
	assert.Equal(t, models.WagerOutcomeWin, report.Wagers[0].Outcome)
	assert.True(t, report.Wagers[0].Payout.Equal(decimal.RequireFromString("166.67")))
	assert.True(t, report.Wagers[0].ProfitChange.Equal(decimal.RequireFromString("66.67")))

	assert.Len(t, report.Users, 1)
	summary := report.Users[0]
	assert.Empty(t, summary.LedgerError)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 0, summary.Losses)
	assert.True(t, summary.NewBalance.Equal(decimal.RequireFromString("166.67")))
	assert.True(t, summary.NewProfit.Equal(decimal.RequireFromString("66.67")))
	assert.Equal(t, 1, summary.NewRank)
	assert.Equal(t, "king", summary.Tier)

	mockWagerRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
	mockRank.AssertExpectations(t)
}

func TestSettlementEngine_Settle_Loss(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	stake := decimal.NewFromInt(100)
	wager := singleLegWager("w1", "alice", "evt1", "Lakers", stake, -150)

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeLoss).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeLoss,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(-100)) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)

	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(-100)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(100)) }),
	).Return(&models.User{
		Username: "alice",
		Balance:  decimal.Zero,
		Profit:   decimal.NewFromInt(-100),
		Losses:   decimal.NewFromInt(100),
	}, nil)

	mockRank.On("Recompute", ctx, "alice").Return(&models.RankStanding{
		Username: "alice", Rank: 1, Percentile: 100, Tier: "king", TotalUsers: 1,
	}, nil)

	report, err := engine.Settle(ctx, "evt1", "Celtics", models.FinalScore{Home: 98, Away: 110})

	assert.NoError(t, err)
	assert.Equal(t, 1, report.WagersSettled)
	assert.Equal(t, 1, report.UsersAffected)

	assert.Equal(t, models.WagerOutcomeLoss, report.Wagers[0].Outcome)
	assert.True(t, report.Wagers[0].Payout.IsZero())
	assert.True(t, report.Wagers[0].ProfitChange.Equal(decimal.NewFromInt(-100)))

	summary := report.Users[0]
	assert.Equal(t, 0, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.True(t, summary.LossesChange.Equal(decimal.NewFromInt(100)))

	// No payout means no credit and no payout ledger entry
	mockUserRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	mockWagerRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestSettlementEngine_Settle_NoActiveWagers(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{}, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 0, report.WagersSettled)
	assert.Equal(t, 0, report.UsersAffected)
	assert.Empty(t, report.Wagers)
	mockRank.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestSettlementEngine_Settle_ConcurrentWagerSkipped(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	wager := singleLegWager("w1", "alice", "evt1", "Lakers", decimal.NewFromInt(100), -150)

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(true, nil)
	// Conditional update lost the race: the wager is excluded from the report
	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeWin,
		mock.Anything, mock.Anything, mock.AnythingOfType("time.Time")).Return(false, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 0, report.WagersSettled)
	assert.Equal(t, 1, report.LegsSettled)
	assert.Empty(t, report.Users)
	mockUserRepo.AssertNotCalled(t, "ApplyLedgerDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementEngine_Settle_AlreadyGradedLegSkipped(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	wager := singleLegWager("w1", "alice", "evt1", "Lakers", decimal.NewFromInt(100), -150)

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(false, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 0, report.LegsSettled)
	assert.Equal(t, 0, report.WagersSettled)
	mockWagerRepo.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementEngine_Settle_ParlayLegLeavesWagerOpen(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	wager := &models.Wager{
		ID:       "w1",
		Username: "alice",
		Amount:   decimal.NewFromInt(100),
		Status:   models.WagerStatusActive,
		Legs: []*models.Leg{
			{ID: 1, WagerID: "w1", EventID: "evt1", SportKey: "basketball_nba", Selection: "Lakers", Odds: 100, Status: models.LegStatusActive},
			{ID: 2, WagerID: "w1", EventID: "evt2", SportKey: "basketball_nba", Selection: "Celtics", Odds: -200, Status: models.LegStatusActive},
		},
	}

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(true, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 1, report.LegsSettled)
	assert.Equal(t, 0, report.WagersSettled)
	mockWagerRepo.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockUserRepo.AssertNotCalled(t, "ApplyLedgerDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementEngine_Settle_ParlayFinalizedOnLastLeg(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, mockLedgerRepo, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	wonOutcome := models.LegOutcomeWin
	wager := &models.Wager{
		ID:       "w1",
		Username: "alice",
		Amount:   decimal.NewFromInt(100),
		Status:   models.WagerStatusActive,
		Legs: []*models.Leg{
			{ID: 1, WagerID: "w1", EventID: "evt1", SportKey: "basketball_nba", Selection: "Lakers", Odds: 100, Status: models.LegStatusSettled, Outcome: &wonOutcome},
			{ID: 2, WagerID: "w1", EventID: "evt2", SportKey: "basketball_nba", Selection: "Celtics", Odds: -200, Status: models.LegStatusActive},
		},
	}

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt2").Return([]*models.Wager{wager}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(2), models.LegOutcomeWin).Return(true, nil)
	// 100 at +100 -> 200, then 200 at -200 -> 300
	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeWin,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(300)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(200)) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)

	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(200)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }),
	).Return(&models.User{Username: "alice", Balance: decimal.Zero, Profit: decimal.NewFromInt(200)}, nil)

	mockUserRepo.On("Credit", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(300)) }),
	).Return(&models.User{Username: "alice", Balance: decimal.NewFromInt(300)}, nil)

	mockLedgerRepo.On("Record", ctx, mock.AnythingOfType("*models.LedgerEntry")).Return(nil)
	mockRank.On("Recompute", ctx, "alice").Return(&models.RankStanding{Rank: 1, Tier: "king"}, nil)

	report, err := engine.Settle(ctx, "evt2", "Celtics", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 1, report.WagersSettled)
	assert.True(t, report.Wagers[0].Payout.Equal(decimal.NewFromInt(300)))
	mockWagerRepo.AssertExpectations(t)
}

func TestSettlementEngine_Settle_LedgerFailureReportedNotFatal(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, _, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	a := singleLegWager("w1", "alice", "evt1", "Lakers", decimal.NewFromInt(100), -150)
	b := singleLegWager("w2", "bob", "evt1", "Celtics", decimal.NewFromInt(50), 120)
	b.Legs[0].ID = 2

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{a, b}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(true, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(2), models.LegOutcomeLoss).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeWin,
		mock.Anything, mock.Anything, mock.AnythingOfType("time.Time")).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w2", models.WagerOutcomeLoss,
		mock.Anything, mock.Anything, mock.AnythingOfType("time.Time")).Return(true, nil)

	// alice's row is gone; her summary carries the error and bob still settles
	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice", mock.Anything, mock.Anything).
		Return(nil, NewError(KindNotFound, "user %q not found", "alice"))
	mockUserRepo.On("ApplyLedgerDeltas", ctx, "bob", mock.Anything, mock.Anything).
		Return(&models.User{Username: "bob", Balance: decimal.Zero, Profit: decimal.NewFromInt(-50)}, nil)

	mockRank.On("Recompute", ctx, "bob").Return(&models.RankStanding{Rank: 2, Tier: "bronze"}, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{})

	assert.NoError(t, err)
	assert.Equal(t, 2, report.WagersSettled)
	assert.Equal(t, 1, report.UsersAffected)
	assert.Len(t, report.Users, 2)

	// Users are flushed in username order
	assert.Equal(t, "alice", report.Users[0].Username)
	assert.NotEmpty(t, report.Users[0].LedgerError)
	assert.Equal(t, "bob", report.Users[1].Username)
	assert.Empty(t, report.Users[1].LedgerError)

	mockRank.AssertNotCalled(t, "Recompute", ctx, "alice")
}

func TestSettlementEngine_Settle_BatchConservesProfit(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockWagerRepo, mockLedgerRepo, mockRank := settlementFixture()

	engine := NewSettlementEngine(mockFactory, mockRank)

	// alice wins one and loses one, bob wins one
	w1 := singleLegWager("w1", "alice", "evt1", "Lakers", decimal.NewFromInt(100), -150)
	w2 := singleLegWager("w2", "alice", "evt1", "Celtics", decimal.NewFromInt(120), 120)
	w2.Legs[0].ID = 2
	w3 := singleLegWager("w3", "bob", "evt1", "Lakers", decimal.NewFromInt(50), 200)
	w3.Legs[0].ID = 3

	mockWagerRepo.On("GetActiveByEventID", ctx, "evt1").Return([]*models.Wager{w1, w2, w3}, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(1), models.LegOutcomeWin).Return(true, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(2), models.LegOutcomeLoss).Return(true, nil)
	mockWagerRepo.On("SettleLeg", ctx, int64(3), models.LegOutcomeWin).Return(true, nil)

	mockWagerRepo.On("Settle", ctx, "w1", models.WagerOutcomeWin,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("166.67")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("66.67")) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w2", models.WagerOutcomeLoss,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(-120)) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)
	mockWagerRepo.On("Settle", ctx, "w3", models.WagerOutcomeWin,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(150)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(100)) }),
		mock.AnythingOfType("time.Time")).Return(true, nil)

	// alice: 66.67 - 120, bob: +100
	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("-53.33")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(120)) }),
	).Return(&models.User{Username: "alice", Profit: decimal.RequireFromString("-53.33")}, nil)
	mockUserRepo.On("ApplyLedgerDeltas", ctx, "bob",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(100)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsZero() }),
	).Return(&models.User{Username: "bob", Profit: decimal.NewFromInt(100)}, nil)

	mockUserRepo.On("Credit", ctx, "alice",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("166.67")) }),
	).Return(&models.User{Username: "alice", Balance: decimal.RequireFromString("166.67")}, nil)
	mockUserRepo.On("Credit", ctx, "bob",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(150)) }),
	).Return(&models.User{Username: "bob", Balance: decimal.NewFromInt(150)}, nil)

	mockLedgerRepo.On("Record", ctx, mock.AnythingOfType("*models.LedgerEntry")).Return(nil)
	mockRank.On("Recompute", ctx, "alice").Return(&models.RankStanding{Rank: 2, Tier: "bronze"}, nil)
	mockRank.On("Recompute", ctx, "bob").Return(&models.RankStanding{Rank: 1, Tier: "king"}, nil)

	report, err := engine.Settle(ctx, "evt1", "Lakers", models.FinalScore{Home: 110, Away: 98})

	assert.NoError(t, err)
	assert.Equal(t, 3, report.WagersSettled)
	assert.Equal(t, 2, report.UsersAffected)

	// Profit moved across wagers equals profit moved across users
	wagerSum := decimal.Zero
	for _, w := range report.Wagers {
		wagerSum = wagerSum.Add(w.ProfitChange)
	}
	userSum := decimal.Zero
	for _, u := range report.Users {
		userSum = userSum.Add(u.ProfitChange)
	}
	assert.True(t, wagerSum.Equal(userSum), "wagers moved %s but users moved %s", wagerSum, userSum)
	assert.True(t, wagerSum.Equal(decimal.RequireFromString("46.67")))

	mockWagerRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockRank.AssertExpectations(t)
}

func TestSettlementEngine_FlushUser_CommitFailureIsReconciliation(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockWagerRepo := new(MockWagerRepository)
	mockLedgerRepo := new(MockLedgerEntryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockWagerRepo, mockLedgerRepo)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(assert.AnError)
	mockUoW.On("Rollback").Return(nil)

	engine := NewSettlementEngine(mockFactory, new(MockRankCalculator)).(*settlementEngine)

	mockUserRepo.On("ApplyLedgerDeltas", ctx, "alice", mock.Anything, mock.Anything).
		Return(&models.User{Username: "alice", Profit: decimal.RequireFromString("66.67")}, nil)
	mockUserRepo.On("Credit", ctx, "alice", mock.Anything).
		Return(&models.User{Username: "alice", Balance: decimal.RequireFromString("166.67")}, nil)
	mockLedgerRepo.On("Record", ctx, mock.AnythingOfType("*models.LedgerEntry")).Return(nil)

	summary := &models.UserSettlementSummary{Username: "alice"}
	err := engine.flushUser(ctx, summary, &userDeltas{
		wagersSettled: 1,
		wins:          1,
		profitChange:  decimal.RequireFromString("66.67"),
		lossesChange:  decimal.Zero,
		payoutCredit:  decimal.RequireFromString("166.67"),
		wagerIDs:      []string{"w1"},
	})

	// The wagers are already finalized; a lost ledger commit is a
	// reconciliation problem, not a transient internal error.
	assert.Equal(t, KindReconciliation, KindOf(err))
}

func TestSettlementEngine_Settle_Validation(t *testing.T) {
	_, mockFactory, _, _, _, mockRank := settlementFixture()
	engine := NewSettlementEngine(mockFactory, mockRank)

	_, err := engine.Settle(context.Background(), "  ", "Lakers", models.FinalScore{})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = engine.Settle(context.Background(), "evt1", "", models.FinalScore{})
	assert.Equal(t, KindValidation, KindOf(err))
}
