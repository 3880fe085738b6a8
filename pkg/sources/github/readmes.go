package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// FetchReadmes fills Readme on every repository, running at most concurrency
// fetches at once. Each slot is written only by its own task so the result
// order matches repos regardless of completion order. The pool lives only
// for this call.
func FetchReadmes(ctx context.Context, c Client, repos []Repository, token string, concurrency int) error {
	if len(repos) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(repos) {
		concurrency = len(repos)
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return fmt.Errorf("failed to create README fetch pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range repos {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			repos[i].Readme = c.FetchReadme(ctx, repos[i].URL, token)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return nil
}
