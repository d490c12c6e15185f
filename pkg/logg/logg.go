// Package logg holds the structured log field keys shared by every layer.
package logg

const (
	Layer     = "layer"
	Operation = "op"
	Locator   = "locator"
	Condition = "condition"
	URL       = "url"
	Scenario  = "scenario"
	RunID     = "run_id"
	Context   = "context_index"
	Elapsed   = "elapsed"
	State     = "state"
)
