package pricing

import "context"

// RefreshJob runs a fetch on a schedule. A fetch that is still running
// from the previous tick is not an error.
type RefreshJob struct {
	Fetcher *Fetcher
}

func (j RefreshJob) Name() string { return "rate_refresh" }

func (j RefreshJob) Run() error {
	_, err := j.Fetcher.Fetch(context.Background())
	if IsKind(err, AlreadyInProgress) {
		return nil
	}
	return err
}
