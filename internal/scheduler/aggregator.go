package scheduler

import (
	"sync"

	"github.com/tanq16/gdfetch/internal/utils"
)

// Aggregator collects results from concurrent workers. Safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	results []utils.DownloadResult
}

func NewAggregator(capacity int) *Aggregator {
	return &Aggregator{results: make([]utils.DownloadResult, 0, capacity)}
}

func (a *Aggregator) Add(result utils.DownloadResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
}

// Results returns a copy in completion order.
func (a *Aggregator) Results() []utils.DownloadResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]utils.DownloadResult, len(a.results))
	copy(out, a.results)
	return out
}

func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

func (a *Aggregator) Succeeded() []utils.DownloadResult {
	return a.filter(func(r utils.DownloadResult) bool { return r.Success })
}

func (a *Aggregator) Failed() []utils.DownloadResult {
	return a.filter(func(r utils.DownloadResult) bool { return !r.Success })
}

// ByCategory groups failures by what the operator should do about them.
func (a *Aggregator) ByCategory() map[utils.Category][]utils.DownloadResult {
	grouped := map[utils.Category][]utils.DownloadResult{}
	for _, r := range a.Failed() {
		category := utils.CategoryAttention
		if r.Err != nil {
			category = r.Err.Kind.Category()
		}
		grouped[category] = append(grouped[category], r)
	}
	return grouped
}

func (a *Aggregator) filter(keep func(utils.DownloadResult) bool) []utils.DownloadResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []utils.DownloadResult
	for _, r := range a.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
