package shellsession

import (
	"bytes"
	"os"
	"strings"
	"sync"
)

// ptyReader is the single reader loop that continuously drains a PTY's
// output into a buffer, broadcasting arrival of new data: in Go, PTY reads
// and writes are independent (full-duplex), so one always-on reader
// suffices — no pause/resume handoff between a writer and a reader thread
// is needed.
type ptyReader struct {
	f *os.File

	mu     sync.Mutex
	buf    bytes.Buffer
	ch     chan struct{} // closed and replaced whenever new data arrives
	closed bool

	done chan struct{}
}

func newPTYReader(f *os.File) *ptyReader {
	return &ptyReader{
		f:    f,
		ch:   make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (r *ptyReader) run() {
	defer close(r.done)
	chunk := make([]byte, 4096)
	for {
		n, err := r.f.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			r.buf.Write(chunk[:n])
			old := r.ch
			r.ch = make(chan struct{})
			r.closed = false
			r.mu.Unlock()
			close(old)
		}
		if err != nil {
			r.mu.Lock()
			r.closed = true
			old := r.ch
			r.mu.Unlock()
			select {
			case <-old:
			default:
				close(old)
			}
			return
		}
	}
}

func (r *ptyReader) stop() {
	// Closing the PTY master (done by the caller) unblocks the pending
	// Read and causes run() to exit; nothing else to synchronize on here
	// beyond waiting for that exit.
	<-r.done
}

// notify returns a channel that closes when new bytes have arrived since
// this call, or immediately if the reader has already terminated.
func (r *ptyReader) notify() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch
}

// snapshotSincePrompt looks for prompt in the unconsumed buffer. If found,
// it returns everything before the prompt occurrence (the "before" text)
// and matched=true. Otherwise it returns the entire unconsumed buffer and
// matched=false.
func (r *ptyReader) snapshotSincePrompt(prompt string) (before []byte, matched bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data := r.buf.Bytes()
	if idx := strings.Index(string(data), prompt); idx >= 0 {
		out := make([]byte, idx)
		copy(out, data[:idx])
		return out, true
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, false
}

// consumeUpToPrompt removes everything up to and including the first
// occurrence of prompt from the buffer, so the next command starts with a
// clean slate.
func (r *ptyReader) consumeUpToPrompt(prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data := r.buf.Bytes()
	idx := strings.Index(string(data), prompt)
	if idx < 0 {
		return
	}
	rest := data[idx+len(prompt):]
	remaining := make([]byte, len(rest))
	copy(remaining, rest)
	r.buf.Reset()
	r.buf.Write(remaining)
}
