package cryptox

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// ObserveFunc receives the wall time of each hashing operation ("hash",
// "verify" or "dummy").
type ObserveFunc func(op string, d time.Duration)

// WorkerPool bounds how many password hashes run at once. argon2id is
// memory hungry and CPU bound, so letting every request hash in parallel
// would starve the rest of the process under a login burst. Callers queue
// on the semaphore and give up their slot when their context ends.
type WorkerPool struct {
	hasher  *Hasher
	sem     *semaphore.Weighted
	observe ObserveFunc
}

// NewWorkerPool allows at most workers concurrent hashes; zero or less means
// runtime.NumCPU().
func NewWorkerPool(h *Hasher, workers int, observe ObserveFunc) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if observe == nil {
		observe = func(string, time.Duration) {}
	}
	return &WorkerPool{
		hasher:  h,
		sem:     semaphore.NewWeighted(int64(workers)),
		observe: observe,
	}
}

func (p *WorkerPool) run(ctx context.Context, op string, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	start := time.Now()
	fn()
	p.observe(op, time.Since(start))
	return nil
}

// Hash computes a digest on a pool slot.
func (p *WorkerPool) Hash(ctx context.Context, password string) (string, error) {
	var (
		digest  string
		hashErr error
	)
	if err := p.run(ctx, "hash", func() { digest, hashErr = p.hasher.Hash(password) }); err != nil {
		return "", err
	}
	return digest, hashErr
}

// Verify checks password against digest on a pool slot. The error is only
// ever the context's.
func (p *WorkerPool) Verify(ctx context.Context, password, digest string) (bool, error) {
	var ok bool
	if err := p.run(ctx, "verify", func() { ok = p.hasher.Verify(password, digest) }); err != nil {
		return false, err
	}
	return ok, nil
}

// DummyVerify spends a verify worth of work for a login with no account.
func (p *WorkerPool) DummyVerify(ctx context.Context, password string) error {
	return p.run(ctx, "dummy", func() { p.hasher.DummyVerify(password) })
}
