package ring

import "github.com/sinitcin/rnscore/utils/concurrency"

// ThreadLimitPolicy is the injected parallelism contract of spec.md
// §4.6.10/§5: the core never assumes a specific thread count or
// scheduler, it only asks the policy how many workers to use for a given
// amount of tower-wise work.
type ThreadLimitPolicy interface {
	// ThreadLimit returns the number of worker goroutines to use for an
	// operation fanning out across numTowers independent towers. A
	// return value <= 1 means "run on the calling goroutine".
	ThreadLimit(numTowers int) int
}

// FixedThreadLimit is the simplest ThreadLimitPolicy: always use the same
// worker count, capped at numTowers.
type FixedThreadLimit int

func (f FixedThreadLimit) ThreadLimit(numTowers int) int {
	limit := int(f)
	if limit > numTowers {
		limit = numTowers
	}
	return limit
}

// RunParallel fans f(i) out across min(limit, numTowers) worker
// goroutines and joins before returning, per spec.md §4.6.10's "fanning
// out to worker threads and joining before return" contract. The first
// error encountered among all tasks is returned.
//
// Grounded on utils/concurrency/ressources_manager.go's ResourceManager:
// a pool of "worker slot" tokens gates concurrency identically to that
// pattern of pooling a concrete resource (there: evaluators, here: bare
// worker slots since each tower's operation is self-contained and needs
// no per-worker state).
func RunParallel(numTowers, limit int, f func(i int) error) error {
	if limit <= 1 || numTowers <= 1 {
		for i := 0; i < numTowers; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	slots := make([]int, limit)
	for i := range slots {
		slots[i] = i
	}
	rm := concurrency.NewRessourceManager(slots)

	for i := 0; i < numTowers; i++ {
		i := i
		rm.Run(func(_ int) error {
			return f(i)
		})
	}
	return rm.Wait()
}
