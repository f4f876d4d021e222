package external

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// pipeSet owns the parent's ends of the pipes joining adjacent stages.
// Pipe i connects stage i (writer) to stage i+1 (reader). Close may be
// called any number of times.
type pipeSet struct {
	readers []*os.File
	writers []*os.File
}

// newPipeSet creates n pipes up front. If any creation fails, the pipes
// already made are closed.
func newPipeSet(n int) (*pipeSet, error) {

	ps := &pipeSet{
		readers: make([]*os.File, 0, n),
		writers: make([]*os.File, 0, n),
	}

	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			ps.Close()
			return nil, fmt.Errorf("mysh: pipe: %w: %v", ErrPipeCreationFailed, err)
		}
		ps.readers = append(ps.readers, r)
		ps.writers = append(ps.writers, w)
	}

	return ps, nil

}

// reader returns the read end of pipe i, or nil when there is no such pipe.
func (ps *pipeSet) reader(i int) io.Reader {
	if i < 0 || i >= len(ps.readers) || ps.readers[i] == nil {
		return nil
	}
	return ps.readers[i]
}

// writer returns the write end of pipe i, or nil when there is no such pipe.
func (ps *pipeSet) writer(i int) io.Writer {
	if i < 0 || i >= len(ps.writers) || ps.writers[i] == nil {
		return nil
	}
	return ps.writers[i]
}

// Close releases every end still held by the parent.
func (ps *pipeSet) Close() {
	closeDescriptors(ps.readers)
	closeDescriptors(ps.writers)
}

func closeDescriptors(descriptors []*os.File) {
	for i, descriptor := range descriptors {
		if descriptor != nil {
			_ = descriptor.Close()
			descriptors[i] = nil
		}
	}
}

// lockedWriter serializes writes to a stream shared by the parent and the
// copying goroutines os/exec starts for writers that are not files.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// lockStream wraps w in a lockedWriter unless children can write to it
// directly.
func lockStream(w io.Writer) io.Writer {
	switch w.(type) {
	case nil, *os.File:
		return w
	}
	return &lockedWriter{w: w}
}
