package models

// Tier maps a minimum percentile-from-top threshold to a competitive label
type Tier struct {
	MinPercentile float64
	Label         string
}

// Tiers is the ordered tier table. Thresholds are strictly descending and the
// first entry whose threshold is <= the user's percentile-from-top wins.
var Tiers = []Tier{
	{MinPercentile: 95, Label: "king"},
	{MinPercentile: 90, Label: "platinum"},
	{MinPercentile: 75, Label: "diamond"},
	{MinPercentile: 50, Label: "gold"},
	{MinPercentile: 25, Label: "silver"},
	{MinPercentile: 0, Label: "bronze"},
}

// RankStanding is the result of recomputing a user's competitive position
type RankStanding struct {
	Username   string
	Rank       int
	Percentile float64
	Tier       string
	TotalUsers int
}

// TierForPercentile resolves the tier label for a percentile-from-top value
func TierForPercentile(percentile float64) string {
	for _, t := range Tiers {
		if percentile >= t.MinPercentile {
			return t.Label
		}
	}
	return Tiers[len(Tiers)-1].Label
}
