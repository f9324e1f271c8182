package notifications

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Message is one delivery request.
type Message struct {
	UserID  string
	TitleID string
	Text    string
}

// Failure records a message that could not be delivered.
type Failure struct {
	Message Message
	Err     error
}

// Report summarizes a DeliverAll batch.
type Report struct {
	Sent     int
	Failures []Failure
}

// DeliverAll sends every message using at most concurrency workers. It waits
// for the whole batch; one failure never stops the others.
func DeliverAll(ctx context.Context, d Deliverer, messages []Message, concurrency int) Report {
	if concurrency <= 0 {
		concurrency = 1
	}
	var (
		mu     sync.Mutex
		report Report
	)
	workers := pool.New().WithMaxGoroutines(concurrency)
	for _, msg := range messages {
		workers.Go(func() {
			err := d.Deliver(ctx, msg.UserID, msg.Text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, Failure{Message: msg, Err: err})
				return
			}
			report.Sent++
		})
	}
	workers.Wait()
	return report
}
