//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// errNilRejection is stored when a promise is rejected with a nil error, so
// that a rejected future can never be mistaken for a successful one.
var errNilRejection = errors.New("tool: future rejected with nil error")

// Future is the read side of a deferred tool result. A Future resolves exactly
// once, either with a value or with an error.
type Future struct {
	done  chan struct{}
	mu    sync.Mutex
	val   any
	err   error
	thens []func(any, error)
}

// Promise is the write side of a Future.
type Promise struct {
	f *Future
}

// NewPromise creates an unresolved promise.
func NewPromise() *Promise {
	return &Promise{f: &Future{done: make(chan struct{})}}
}

// Future returns the future completed by p.
func (p *Promise) Future() *Future {
	return p.f
}

// Resolve completes the future with v. It returns false if the future had
// already been completed, in which case v is dropped.
func (p *Promise) Resolve(v any) bool {
	return p.f.complete(v, nil)
}

// Reject completes the future with err. It returns false if the future had
// already been completed.
func (p *Promise) Reject(err error) bool {
	if err == nil {
		err = errNilRejection
	}
	return p.f.complete(nil, err)
}

// Resolved returns a future already completed with v.
func Resolved(v any) *Future {
	p := NewPromise()
	p.Resolve(v)
	return p.f
}

// Failed returns a future already completed with err.
func Failed(err error) *Future {
	p := NewPromise()
	p.Reject(err)
	return p.f
}

// Go runs fn on a new goroutine and returns a future for its result.
// A panic in fn rejects the future instead of crashing the process.
func Go(ctx context.Context, fn func(context.Context) (any, error)) *Future {
	p := NewPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(fmt.Errorf("tool: panic in async call: %v\n%s", r, debug.Stack()))
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p.f
}

func (f *Future) complete(v any, err error) bool {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return false
	default:
	}
	f.val, f.err = v, err
	thens := f.thens
	f.thens = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range thens {
		fn(v, err)
	}
	return true
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved and returns its outcome.
// There is no timeout: if the future never resolves, Wait never returns.
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.val, f.err
}

// Await is Wait bounded by ctx. When ctx ends first it returns ctx.Err() and
// leaves the future running.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then registers fn to run with the outcome once the future is resolved.
// If the future is already resolved, fn runs immediately on the calling
// goroutine; otherwise it runs on the goroutine that resolves the future,
// so fn must not block.
func (f *Future) Then(fn func(any, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		fn(f.val, f.err)
		return
	default:
	}
	f.thens = append(f.thens, fn)
	f.mu.Unlock()
}
