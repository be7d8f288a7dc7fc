package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Loading...")
	s.interval = 10 * time.Millisecond

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Loading...") {
		t.Error("Spinner output should contain the message")
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Error("Stop should clear the line")
	}

	// Nothing is written after Stop returns.
	n := len(buf.String())
	time.Sleep(30 * time.Millisecond)
	if len(buf.String()) != n {
		t.Error("Spinner kept writing after Stop")
	}
}

func TestSpinner_StopTwice(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Loading...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Test")

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stop without Start caused panic: %v", r)
		}
	}()

	s.Stop()
}
