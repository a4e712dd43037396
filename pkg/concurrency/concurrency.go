package concurrency

import "runtime"

// GoLimit go limit
type GoLimit struct {
	ch chan int
}

// NewGoLimit new go limit, max <= 0 means one slot per cpu
func NewGoLimit(max int) *GoLimit {
	if max <= 0 {
		max = runtime.NumCPU()
	}

	return &GoLimit{
		ch: make(chan int, max),
	}
}

// Add add num, blocks while max goroutines are running
func (g *GoLimit) Add() {
	g.ch <- 1
}

// Done remove num
func (g *GoLimit) Done() {
	<-g.ch
}

// Close close chan
func (g *GoLimit) Close() {
	close(g.ch)
}
