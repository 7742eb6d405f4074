package simulation

import "context"

// progressBuffer is the number of progress events a Job queues for a slow
// consumer before dropping intermediate events.
const progressBuffer = 16

// Job is a simulation running on a background goroutine.
type Job struct {
	progress chan Progress
	done     chan struct{}
	result   *Result
	err      error
}

// Start runs the simulation on a new goroutine and returns immediately.
// Progress events are delivered on Job.Progress; intermediate events are
// dropped rather than stalling the run when the consumer falls behind, but
// the final event is always delivered.
func (e *Engine) Start(ctx context.Context, params Params) *Job {
	j := &Job{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(j.done)
		defer close(j.progress)
		j.result, j.err = e.Run(ctx, params, ProgressFunc(j.publish))
	}()

	return j
}

// Progress returns the channel of progress events. It is closed when the
// run ends.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done is closed when the run ends.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the run ends and returns its result.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}

func (j *Job) publish(p Progress) {
	select {
	case j.progress <- p:
		return
	default:
	}

	if !p.Done() {
		return
	}

	// Make room for the final event. The run goroutine is the only sender,
	// so after one receive the send below cannot block.
	select {
	case <-j.progress:
	default:
	}
	j.progress <- p
}
