package sync

// UpsertResult reports one catalog upsert pass. Unchanged rows are counted
// separately so operators can verify the idempotence of repeated runs.
type UpsertResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Total returns the number of records the pass examined
func (r UpsertResult) Total() int {
	return r.Created + r.Updated + r.Unchanged
}

// Merge accumulates another result into this one
func (r *UpsertResult) Merge(other UpsertResult) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
}

// ReconcileTotals aggregates link reconciliation across all stores in a run
type ReconcileTotals struct {
	StoresReconciled   int `json:"stores_reconciled"`
	LinksCreated       int `json:"links_created"`
	OrphansDeactivated int `json:"orphans_deactivated"`
}

// Merge accumulates another total into this one
func (t *ReconcileTotals) Merge(other ReconcileTotals) {
	t.StoresReconciled += other.StoresReconciled
	t.LinksCreated += other.LinksCreated
	t.OrphansDeactivated += other.OrphansDeactivated
}

// RunError records one record-level failure without aborting the run
type RunError struct {
	ExternalID string `json:"external_id,omitempty"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
}

// RunResult carries everything a finished run writes into its log entry
type RunResult struct {
	PagesFetched int             `json:"pages_fetched"`
	Upsert       UpsertResult    `json:"upsert"`
	Reconcile    ReconcileTotals `json:"reconcile"`
	Errors       []RunError      `json:"errors,omitempty"`
}
