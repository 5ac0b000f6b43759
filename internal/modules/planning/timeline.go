package planning

// Timeline priorities
const (
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// TimelinePhase is one week of festival preparation, counted back from the
// festival week 0
type TimelinePhase struct {
	Week       int      `json:"week"`
	Phase      string   `json:"phase"`
	Activities []string `json:"activities"`
	Priority   string   `json:"priority"`
}

// FestivalTimeline returns the fixed seven-week preparation template.
func FestivalTimeline() []TimelinePhase {
	return []TimelinePhase{
		{-6, "Planning", []string{"Finalize demand forecasts", "Confirm supplier commitments", "Review production capacity"}, PriorityHigh},
		{-5, "Procurement", []string{"Place raw material orders", "Activate backup suppliers", "Schedule material deliveries"}, PriorityCritical},
		{-4, "Production Ramp-up", []string{"Start inventory buildup", "Increase production shifts", "Monitor quality metrics"}, PriorityHigh},
		{-3, "Inventory Build", []string{"Continue production scaling", "Monitor stock levels", "Prepare distribution centers"}, PriorityHigh},
		{-2, "Final Preparations", []string{"Complete inventory targets", "Pre-position stock", "Activate contingency plans"}, PriorityCritical},
		{-1, "Pre-Festival", []string{"Final stock verification", "Distribution readiness", "Monitor early demand signals"}, PriorityCritical},
		{0, "Festival Period", []string{"Real-time demand monitoring", "Emergency replenishment", "Performance tracking"}, PriorityCritical},
	}
}
