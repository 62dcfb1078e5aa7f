package feed

// SportInfo carries the display grouping for a sport key
type SportInfo struct {
	Sport  string
	League string
}

// SportMapping maps The Odds API sport keys to sport/league tags
var SportMapping = map[string]SportInfo{
	"americanfootball_nfl":   {Sport: "football", League: "NFL"},
	"basketball_nba":         {Sport: "basketball", League: "NBA"},
	"baseball_mlb":           {Sport: "baseball", League: "MLB"},
	"icehockey_nhl":          {Sport: "hockey", League: "NHL"},
	"americanfootball_ncaaf": {Sport: "football", League: "NCAA"},
	"basketball_ncaab":       {Sport: "basketball", League: "NCAA"},
	"soccer_usa_mls":         {Sport: "soccer", League: "MLS"},
}

// AvailableSports lists the supported sport keys
func AvailableSports() []string {
	keys := make([]string, 0, len(SportMapping))
	for key := range SportMapping {
		keys = append(keys, key)
	}
	return keys
}

// IsSupportedSport reports whether the sport key is in the mapping
func IsSupportedSport(sportKey string) bool {
	_, ok := SportMapping[sportKey]
	return ok
}
