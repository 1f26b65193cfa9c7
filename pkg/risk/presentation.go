package risk

// Display is how a level is labelled for users.
type Display struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Presentation returns the label for level. LevelNone returns false.
func Presentation(level Level) (Display, bool) {
	switch level {
	case LevelHigh:
		return Display{Label: "High Risk", Description: "Immediate action required"}, true
	case LevelMedium:
		return Display{Label: "Medium Risk", Description: "Preventive measures recommended"}, true
	case LevelLow:
		return Display{Label: "Low Risk", Description: "Continue monitoring"}, true
	default:
		return Display{}, false
	}
}

// Priority ranks an advice item.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Advice is one step of the action plan for a level.
type Advice struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

var adviceByLevel = map[Level][]Advice{
	LevelHigh: {
		{
			Title:       "Immediate Removal Required",
			Description: "Empty all water containers within 24 hours. This breeding site can produce hundreds of mosquitoes.",
			Priority:    PriorityUrgent,
		},
		{
			Title:       "Report to Authorities",
			Description: "Contact your local health department for professional fumigation and area treatment.",
			Priority:    PriorityUrgent,
		},
		{
			Title:       "Personal Protection",
			Description: "Use mosquito repellent and wear long sleeves until the area is treated.",
			Priority:    PriorityHigh,
		},
		{
			Title:       "Alert Neighbors",
			Description: "Inform nearby residents to check their properties for similar breeding sites.",
			Priority:    PriorityHigh,
		},
	},
	LevelMedium: {
		{
			Title:       "Drain Standing Water",
			Description: "Remove stagnant water from flower pots, buckets, and containers within 48 hours.",
			Priority:    PriorityMedium,
		},
		{
			Title:       "Apply Larvicide",
			Description: "Use BTI tablets in water storage containers that cannot be emptied.",
			Priority:    PriorityMedium,
		},
		{
			Title:       "Cover Water Storage",
			Description: "Install tight-fitting covers on water tanks and containers.",
			Priority:    PriorityMedium,
		},
	},
	LevelLow: {
		{
			Title:       "Maintain Vigilance",
			Description: "Continue regular inspection of your surroundings weekly.",
			Priority:    PriorityLow,
		},
		{
			Title:       "Preventive Measures",
			Description: "Ensure proper drainage and avoid water accumulation after rain.",
			Priority:    PriorityLow,
		},
	},
}

// AdviceFor returns the action plan for level, or nil for LevelNone.
func AdviceFor(level Level) []Advice {
	return append([]Advice(nil), adviceByLevel[level]...)
}

// ImpactStats are a user's contribution figures.
type ImpactStats struct {
	SitesFound               int `json:"sites_found" toml:"sites_found"`
	CommunitySitesEliminated int `json:"community_sites_eliminated" toml:"community_sites_eliminated"`
	LivesSaved               int `json:"lives_saved" toml:"lives_saved"`
	UserRank                 int `json:"user_rank" toml:"user_rank"`
	WeeklyGoal               int `json:"weekly_goal" toml:"weekly_goal"`
	WeeklyProgress           int `json:"weekly_progress" toml:"weekly_progress"`
}

// WeeklyPercent is the weekly progress as a 0-100 percentage.
func (s ImpactStats) WeeklyPercent() int {
	if s.WeeklyGoal <= 0 {
		return 0
	}
	return min(100, s.WeeklyProgress*100/s.WeeklyGoal)
}
