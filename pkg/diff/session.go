package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultBatchSize is the number of line indexes classified per step
const DefaultBatchSize = 50

// ErrCancelled is returned by Run when the session was cancelled
var ErrCancelled = errors.New("comparison cancelled")

// Phase is the state of a Session
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseProbing
	PhaseDiffing
	PhaseDone
	PhaseCancelled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseProbing:
		return "probing-binary"
	case PhaseDiffing:
		return "diffing"
	case PhaseDone:
		return "done"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further steps will run
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled || p == PhaseFailed
}

// Loader opens one side for reading. The session closes the reader.
type Loader func(ctx context.Context) (io.ReadCloser, error)

// Bytes returns a loader serving data
func Bytes(data []byte) Loader {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// side is one opened file: its probed prefix and the unread remainder
type side struct {
	prefix []byte
	rest   io.ReadCloser
}

func (sd *side) close() {
	if sd != nil && sd.rest != nil {
		sd.rest.Close()
		sd.rest = nil
	}
}

// Progress is reported after every step
type Progress struct {
	Phase     Phase
	Processed int
	Total     int
}

// Options configure a Session
type Options struct {
	// BatchSize is the number of line indexes per diffing step.
	// Zero selects DefaultBatchSize.
	BatchSize int

	// OnProgress is called after each step from the stepping goroutine
	OnProgress func(Progress)
}

// Session computes a positional line diff as an explicit state machine:
//
//	loading -> probing-binary -> diffing -> done
//
// Loading opens both sides and reads only their first ProbeSize bytes.
// Probing refuses a binary pair without reading further; for a text pair it
// reads the remainders and splits them into lines.
//
// Cancel may be called from any goroutine; it takes effect at the next
// step boundary, moves the session to cancelled and releases its buffers.
// A read failure moves the session to failed.
type Session struct {
	id         string
	left       Loader
	right      Loader
	batchSize  int
	onProgress func(Progress)

	mu         sync.Mutex
	phase      Phase
	err        error
	leftSide   *side
	rightSide  *side
	leftText   string
	rightText  string
	leftLines  []string
	rightLines []string
	processed  int
	total      int
	result     *Result

	cancelled atomic.Bool
}

// NewSession creates a session comparing left and right
func NewSession(left, right Loader, opts Options) *Session {
	batch := opts.BatchSize
	if batch < 1 {
		batch = DefaultBatchSize
	}
	return &Session{
		id:         uuid.New().String(),
		left:       left,
		right:      right,
		batchSize:  batch,
		onProgress: opts.OnProgress,
		phase:      PhaseLoading,
	}
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Cancel requests cancellation at the next step boundary
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// Phase returns the current state
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the load error of a failed session
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Progress returns the number of line indexes classified so far
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{Phase: s.phase, Processed: s.processed, Total: s.total}
}

// Result returns the classification once the session is done, or nil
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDone {
		return nil
	}
	return s.result
}

// Texts returns the decoded text of both sides once probing has finished.
// Binary pairs have empty texts.
func (s *Session) Texts() (left, right string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leftText, s.rightText
}

// Step advances the state machine by one unit of work and returns the new
// phase. Stepping a terminal session is a no-op. Steps must come from a
// single goroutine.
func (s *Session) Step(ctx context.Context) (Phase, error) {
	s.mu.Lock()

	if s.phase.Terminal() {
		phase, err := s.phase, s.err
		s.mu.Unlock()
		return phase, err
	}

	if s.cancelled.Load() || ctx.Err() != nil {
		s.cancelLocked()
		s.mu.Unlock()
		s.report()
		return PhaseCancelled, nil
	}

	var err error
	switch s.phase {
	case PhaseLoading:
		// I/O happens without the lock so Cancel/Progress stay responsive
		s.mu.Unlock()
		left, right, loadErr := s.open(ctx)
		s.mu.Lock()
		if loadErr != nil {
			s.fail(loadErr)
			err = loadErr
		} else {
			s.leftSide, s.rightSide = left, right
			s.phase = PhaseProbing
		}

	case PhaseProbing:
		if IsBinary(s.leftSide.prefix) || IsBinary(s.rightSide.prefix) {
			s.releaseSides()
			s.result = &Result{Binary: true}
			s.phase = PhaseDone
			break
		}
		left, right := s.leftSide, s.rightSide
		s.mu.Unlock()
		leftRaw, rightRaw, readErr := s.readRest(left, right)
		s.mu.Lock()
		if readErr != nil {
			s.fail(readErr)
			err = readErr
		} else {
			s.split(leftRaw, rightRaw)
		}

	case PhaseDiffing:
		s.diffBatch()
	}

	phase := s.phase
	s.mu.Unlock()
	s.report()
	return phase, err
}

// Run steps the session until it reaches a terminal phase, yielding between
// batches. Context cancellation cancels the session.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	for {
		phase, err := s.Step(ctx)
		switch phase {
		case PhaseDone:
			return s.Result(), nil
		case PhaseCancelled:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			return nil, ErrCancelled
		case PhaseFailed:
			return nil, err
		}
		runtime.Gosched()
	}
}

// open opens both sides concurrently and reads their probe prefixes
func (s *Session) open(ctx context.Context) (*side, *side, error) {
	var wg sync.WaitGroup
	var left, right *side
	var leftErr, rightErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		left, leftErr = openSide(ctx, s.left)
	}()
	go func() {
		defer wg.Done()
		right, rightErr = openSide(ctx, s.right)
	}()
	wg.Wait()

	if leftErr != nil || rightErr != nil {
		left.close()
		right.close()
		if leftErr != nil {
			return nil, nil, fmt.Errorf("failed to load left side: %w", leftErr)
		}
		return nil, nil, fmt.Errorf("failed to load right side: %w", rightErr)
	}
	return left, right, nil
}

func openSide(ctx context.Context, load Loader) (*side, error) {
	r, err := load(ctx)
	if err != nil {
		return nil, err
	}
	prefix, err := ReadPrefix(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &side{prefix: prefix, rest: r}, nil
}

// readRest reads both remainders concurrently, prefixes included
func (s *Session) readRest(left, right *side) ([]byte, []byte, error) {
	var wg sync.WaitGroup
	var leftRaw, rightRaw []byte
	var leftErr, rightErr error

	read := func(sd *side) ([]byte, error) {
		var buf bytes.Buffer
		buf.Write(sd.prefix)
		_, err := buf.ReadFrom(sd.rest)
		return buf.Bytes(), err
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		leftRaw, leftErr = read(left)
	}()
	go func() {
		defer wg.Done()
		rightRaw, rightErr = read(right)
	}()
	wg.Wait()

	if leftErr != nil {
		return nil, nil, fmt.Errorf("failed to load left side: %w", leftErr)
	}
	if rightErr != nil {
		return nil, nil, fmt.Errorf("failed to load right side: %w", rightErr)
	}
	return leftRaw, rightRaw, nil
}

func (s *Session) split(leftRaw, rightRaw []byte) {
	s.releaseSides()
	s.leftText = Decode(leftRaw)
	s.rightText = Decode(rightRaw)

	s.leftLines = SplitLines(s.leftText)
	s.rightLines = SplitLines(s.rightText)

	s.total = max(len(s.leftLines), len(s.rightLines))
	s.result = &Result{
		Left:  make([]Line, len(s.leftLines)),
		Right: make([]Line, len(s.rightLines)),
	}
	s.phase = PhaseDiffing
	if s.total == 0 {
		s.phase = PhaseDone
	}
}

func (s *Session) fail(err error) {
	s.releaseSides()
	s.phase = PhaseFailed
	s.err = err
}

func (s *Session) releaseSides() {
	s.leftSide.close()
	s.rightSide.close()
	s.leftSide, s.rightSide = nil, nil
}

// diffBatch classifies the next batch of line indexes.
// For an index present on both sides the lines are Changed when they differ;
// beyond the shorter side only the longer side has a line, marked Appended.
func (s *Session) diffBatch() {
	end := min(s.processed+s.batchSize, s.total)
	common := min(len(s.leftLines), len(s.rightLines))
	r := s.result

	for i := s.processed; i < end; i++ {
		switch {
		case i < common:
			kind := Unchanged
			if s.leftLines[i] != s.rightLines[i] {
				kind = Changed
				r.Changed++
			}
			r.Left[i] = Line{Number: i + 1, Text: s.leftLines[i], Kind: kind}
			r.Right[i] = Line{Number: i + 1, Text: s.rightLines[i], Kind: kind}
		case i < len(s.leftLines):
			r.Left[i] = Line{Number: i + 1, Text: s.leftLines[i], Kind: Appended}
			r.Appended++
		default:
			r.Right[i] = Line{Number: i + 1, Text: s.rightLines[i], Kind: Appended}
			r.Appended++
		}
	}

	s.processed = end
	if s.processed >= s.total {
		s.leftLines, s.rightLines = nil, nil
		s.phase = PhaseDone
	}
}

func (s *Session) cancelLocked() {
	s.phase = PhaseCancelled
	s.releaseSides()
	s.leftLines, s.rightLines = nil, nil
	s.leftText, s.rightText = "", ""
	s.result = nil
}

func (s *Session) report() {
	if s.onProgress == nil {
		return
	}
	s.onProgress(s.Progress())
}
