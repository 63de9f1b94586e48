package threadpool

import "errors"

const Namespace = "threadpool"

var (
	ErrInvalidConfig  = errors.New(Namespace + ": invalid configuration")
	ErrPoolTerminated = errors.New(Namespace + ": pool is terminated")
	ErrInvalidTask    = errors.New(Namespace + ": task must not be nil")
	ErrTaskPanicked   = errors.New(Namespace + ": task execution panicked")
	ErrResultConsumed = errors.New(Namespace + ": task result already consumed")
)
