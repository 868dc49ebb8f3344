// Package aitest provides a scripted text generator for tests.
package aitest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/myrjola/whodunit/internal/ai"
)

// Fake answers each call with the next scripted reply, split into word fragments. When the script runs out the
// reply is "fake reply N" where N counts the calls.
type Fake struct {
	// Err fails every call when set.
	Err error
	// FailAfter makes the stream fail with Err after that many fragments when both are set.
	FailAfter int

	mu       sync.Mutex
	replies  []string
	requests []ai.Request
}

func NewFake(replies ...string) *Fake {
	return &Fake{replies: replies}
}

func (f *Fake) Configured() bool {
	return true
}

func (f *Fake) StreamText(_ context.Context, req ai.Request) (ai.TextStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.Err != nil && f.FailAfter == 0 {
		return nil, f.Err
	}
	var reply string
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	} else {
		reply = fmt.Sprintf("fake reply %d", len(f.requests))
	}
	return &stream{fragments: strings.SplitAfter(reply, " "), err: f.Err, failAfter: f.FailAfter}, nil
}

func (f *Fake) Close() error {
	return nil
}

// Requests returns the requests received so far.
func (f *Fake) Requests() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.requests...)
}

type stream struct {
	fragments []string
	sent      int
	err       error
	failAfter int
}

func (s *stream) Recv() (string, error) {
	if s.err != nil && s.sent >= s.failAfter {
		return "", s.err
	}
	if s.sent >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.sent]
	s.sent++
	return fragment, nil
}

func (s *stream) Close() error {
	return nil
}
