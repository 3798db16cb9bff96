package entry

// Entry is one participant's competitive slot in a league for a season.
type Entry struct {
	ID          string
	LeagueID    string
	Season      int
	DisplayName string
	IsActive    bool
}
