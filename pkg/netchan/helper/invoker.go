package helper

import "sync"

// Invoker is responsible for handling goroutines.
// This is used so go routines are not spawned without any control.
// Any routine spawned through the invoker is waited for when the
// owning component shuts down.
type Invoker struct {
	group sync.WaitGroup
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

// Spawn a new goroutine and manage it through the wait group.
func (i *Invoker) Spawn(f func()) {
	i.group.Add(1)
	go func() {
		defer i.group.Done()
		f()
	}()
}

// Wait for every spawned routine to finish.
func (i *Invoker) Wait() {
	i.group.Wait()
}
