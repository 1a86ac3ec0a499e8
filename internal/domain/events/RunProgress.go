package events

var RunProgressTopic = "RunProgressEvent"

type RunStatus string

const (
	StatusSearching     RunStatus = "Searching"
	StatusNormalizing   RunStatus = "Normalizing"
	StatusFiltering     RunStatus = "Filtering"
	StatusDiffing       RunStatus = "Diffing"
	StatusPolishing     RunStatus = "Polishing"
	StatusEnriching     RunStatus = "Enriching"
	StatusSaving        RunStatus = "Saving"
	StatusDeduplicating RunStatus = "Deduplicating"
	StatusNotifying     RunStatus = "Notifying"
	StatusFinished      RunStatus = "Finished"
	StatusFailed        RunStatus = "Failed"
)

// RunProgress is published before every pipeline stage and once on
// completion or failure. Consumers (the live status feed) must not block.
type RunProgress struct {
	JobID      string
	ProviderID string
	Status     RunStatus
}
