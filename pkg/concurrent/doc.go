/*
Package concurrent provides bounded task execution utilities for
device-management services.

# Overview

This package implements:
- A bounded, blocking task executor with permit-based admission control
- A goroutine factory producing named, pprof-labeled goroutines
- A Clock abstraction for deterministic time in tests

# BoundedExecutor

BoundedExecutor throttles task admission with a counting permit pool sized to
the maximum pool size. Execute blocks the caller while all permits are held,
so at most MaxPoolSize tasks are queued or running at any time. Workers take
tasks over a direct (zero-capacity) hand-off; there is no internal task
queue, the permit pool is the sole backpressure mechanism.

A hand-off can be transiently rejected when a permit was obtained but no
worker has reached its receive yet. Such rejections are retried until the
hand-off succeeds and never surface to the caller; anything non-transient
releases the held permit and is returned.

Basic usage:

	exec, err := concurrent.NewBoundedExecutor(&concurrent.BoundedExecutorConfig{
		CorePoolSize: 4,
		MaxPoolSize:  10,
		KeepAlive:    60 * time.Second,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer exec.Close()

	err = exec.Execute(func() {
		// task logic
	})

# Concurrency Safety

All exported methods are safe for concurrent use. Permit accounting uses a
weighted semaphore; worker bookkeeping uses atomic counters. The package
passes the Go race detector.
*/
package concurrent
