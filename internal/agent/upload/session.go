// Package upload drives one resumable upload session against a pre-signed
// storage URL: initiation, chunked transfer, resumption after interruption
// and completion detection.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"filecollect/internal/agent/domain"
	"filecollect/internal/agent/source"
	collecterrors "filecollect/pkg/errors"
	"filecollect/pkg/logger"
)

// SizeUnknown marks a session whose total length is not determinable up
// front. Such sessions send every chunk with a deferred total and declare
// the real total only on the finalize marker.
const SizeUnknown int64 = -1

const (
	initiateHeader       = "x-goog-resumable"
	initiateValue        = "start"
	contentLengthHeader  = "X-Upload-Content-Length"
	statusResumeIncomplt = 308
)

// Config tunes one session. HTTPClient may be nil, in which case a default
// client with RequestTimeout applied is used.
type Config struct {
	ChunkSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// Session owns the lifecycle of one upload against one signed URL. It is
// advanced by one thread of control at a time: the initiating caller up to
// Transferring, then the detached Run loop. The mutex exists only so that
// outside observers can read state and offset while Run owns the machine.
type Session struct {
	signedURL string
	src       source.ByteSource
	chk       *chunker
	client    *http.Client
	log       *logger.Logger

	chunkSize      int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// transfer cursor, touched only by the owning thread
	buf        []byte
	bufFinal   bool
	chunkStart int64
	progressed bool

	mu         sync.Mutex
	state      domain.UploadState
	offset     int64 // last remote-acknowledged byte count
	totalSize  int64 // SizeUnknown until the source reports otherwise
	sessionURI string
	finalErr   error
	done       chan struct{}
}

// NewSession binds a byte source to a signed URL. The session starts in
// Initiating; nothing touches the network until Initiate is called.
func NewSession(signedURL string, src source.ByteSource, cfg Config, log *logger.Logger) *Session {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}

	total := SizeUnknown
	if n, known := src.Size(); known {
		total = n
	}

	return &Session{
		signedURL:      signedURL,
		src:            src,
		chk:            newChunker(src),
		client:         client,
		log:            log.WithField("component", "upload-session"),
		chunkSize:      cfg.ChunkSize,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		state:          domain.StateInitiating,
		totalSize:      total,
		done:           make(chan struct{}),
	}
}

// State returns the current lifecycle position.
func (s *Session) State() domain.UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionURI returns the handle assigned by the remote endpoint at
// initiation, empty before then.
func (s *Session) SessionURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionURI
}

// CommittedOffset returns the byte count the remote has durably
// acknowledged.
func (s *Session) CommittedOffset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Err returns the terminal failure, nil unless the session Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalErr
}

// Done is closed once the session reaches Completed or Failed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Initiate performs the blocking session-creation round trip. On success
// the session holds a remote session URI and is in Transferring with offset
// zero. On failure the session is terminally Failed with one of the
// UrlExpired, UrlInvalid or RemoteRejected classifications.
func (s *Session) Initiate(ctx context.Context) error {
	if st := s.State(); st != domain.StateInitiating {
		return fmt.Errorf("initiate called in state %s", st)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.signedURL, nil)
	if err != nil {
		return s.failWith(collecterrors.Classify(collecterrors.ClassUrlInvalid, err))
	}
	req.Header.Set(initiateHeader, initiateValue)
	req.ContentLength = 0
	if s.totalSize != SizeUnknown {
		req.Header.Set(contentLengthHeader, strconv.FormatInt(s.totalSize, 10))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return s.failWith(collecterrors.Classify(collecterrors.ClassRemoteRejected, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// accepted below
	case resp.StatusCode == http.StatusUnauthorized:
		return s.failWith(collecterrors.Classifyf(collecterrors.ClassUrlExpired, "initiation returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusForbidden:
		return s.failWith(collecterrors.Classifyf(collecterrors.ClassUrlInvalid, "initiation returned %d", resp.StatusCode))
	default:
		return s.failWith(collecterrors.Classifyf(collecterrors.ClassRemoteRejected, "initiation returned %d", resp.StatusCode))
	}

	uri := resp.Header.Get("Location")
	if uri == "" {
		return s.failWith(collecterrors.Classifyf(collecterrors.ClassRemoteRejected, "initiation response carried no session URI"))
	}

	s.mu.Lock()
	s.sessionURI = uri
	s.state = domain.StateTransferring
	s.offset = 0
	s.mu.Unlock()

	s.log.Info("upload session initiated",
		"sessionURI", uri,
		"totalSize", s.describeTotal())
	return nil
}

// Run drives the session from Transferring to a terminal state. It is meant
// to be detached (go session.Run(...)) after Initiate succeeds; nothing is
// reported back to the initiating caller from here on. Retries are
// unbounded; the committed offset only ever advances on remote
// acknowledgment.
func (s *Session) Run(ctx context.Context) {
	if st := s.State(); st != domain.StateTransferring {
		return
	}

	backoff := s.initialBackoff
	for {
		err := s.transfer(ctx)
		if err == nil {
			s.complete()
			return
		}
		if _, classified := collecterrors.ClassOf(err); classified {
			s.failWith(err)
			return
		}
		if ctx.Err() != nil {
			s.failWith(collecterrors.Classify(collecterrors.ClassRemoteRejected, ctx.Err()))
			return
		}

		if s.progressed {
			backoff = s.initialBackoff
			s.progressed = false
		}
		if !s.resumeCycle(ctx, &backoff) {
			return
		}
	}
}

// transfer sends chunks from the current cursor until the source is
// exhausted and the remote confirms completion. It returns nil on
// completion, a classified error on terminal conditions and an unclassified
// error on transient transport failure.
func (s *Session) transfer(ctx context.Context) error {
	for {
		if s.buf == nil {
			data, final, err := s.chk.next(s.chunkSize)
			if err != nil {
				return collecterrors.Classify(collecterrors.ClassUnreadable, err)
			}
			if data == nil {
				data = []byte{}
			}
			s.buf = data
			s.bufFinal = final
			s.chunkStart = s.CommittedOffset()
		}

		start := s.CommittedOffset()
		send := s.buf[start-s.chunkStart:]

		committed, complete, err := s.sendChunk(ctx, send, start, s.bufFinal)
		if err != nil {
			return err
		}
		if !complete && committed > start+int64(len(send)) {
			return collecterrors.Classifyf(collecterrors.ClassRemoteRejected,
				"remote reports %d committed bytes but only %d were sent", committed, start+int64(len(send)))
		}

		if committed > start {
			s.progressed = true
		}
		s.setOffset(committed)

		if complete {
			return nil
		}

		if committed < s.chunkStart {
			// remote fell behind the buffered window mid-transfer
			if err := s.repositionTo(committed); err != nil {
				return err
			}
			continue
		}

		if !s.bufFinal && committed == s.chunkStart+int64(len(s.buf)) {
			s.buf = nil
		}
		// A final chunk answered with 308 leaves buf in place: the next
		// iteration sends the empty finalize marker carrying the total.
	}
}

// sendChunk puts one byte range. The Content-Range header carries the total
// size when it is known, the deferred marker otherwise, and always the real
// total on the final chunk.
func (s *Session) sendChunk(ctx context.Context, data []byte, start int64, final bool) (int64, bool, error) {
	uri := s.SessionURI()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, bytes.NewReader(data))
	if err != nil {
		return 0, false, collecterrors.Classify(collecterrors.ClassRemoteRejected, err)
	}
	req.Header.Set("Content-Range", contentRange(start, len(data), s.totalSize, final))
	req.ContentLength = int64(len(data))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("chunk at offset %d: %w", start, err)
	}
	defer resp.Body.Close()

	return s.interpretRangeResponse(resp, start, len(data), final)
}

// queryRemoteOffset asks the endpoint which byte count it has durably
// committed. The answer is authoritative; local send state never overrides
// it.
func (s *Session) queryRemoteOffset(ctx context.Context) (int64, bool, error) {
	uri := s.SessionURI()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, nil)
	if err != nil {
		return 0, false, collecterrors.Classify(collecterrors.ClassRemoteRejected, err)
	}
	req.Header.Set("Content-Range", statusProbeRange(s.totalSize))
	req.ContentLength = 0

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("offset probe: %w", err)
	}
	defer resp.Body.Close()

	return s.interpretRangeResponse(resp, 0, 0, false)
}

func (s *Session) interpretRangeResponse(resp *http.Response, start int64, sent int, final bool) (int64, bool, error) {
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		total := start + int64(sent)
		if s.totalSize != SizeUnknown {
			total = s.totalSize
		}
		return total, true, nil

	case resp.StatusCode == statusResumeIncomplt:
		committed, err := parseCommitted(resp.Header.Get("Range"))
		if err != nil {
			return 0, false, collecterrors.Classify(collecterrors.ClassRemoteRejected, err)
		}
		return committed, false, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return 0, false, collecterrors.Classifyf(collecterrors.ClassUrlExpired, "endpoint returned %d", resp.StatusCode)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return 0, false, collecterrors.Classifyf(collecterrors.ClassRemoteRejected, "endpoint returned %d (offset %d, final=%t)", resp.StatusCode, start, final)

	default:
		// 5xx: transient, the resume cycle will re-probe
		return 0, false, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
}

// resumeCycle runs Interrupted → Resuming until the remote view is
// reconciled. Returns false when the session reached a terminal state.
func (s *Session) resumeCycle(ctx context.Context, backoff *time.Duration) bool {
	s.transition(domain.StateInterrupted)
	s.log.Warn("transfer interrupted",
		"committedOffset", s.CommittedOffset(),
		"retryIn", *backoff)

	for {
		if !sleepCtx(ctx, *backoff) {
			s.failWith(collecterrors.Classify(collecterrors.ClassRemoteRejected, ctx.Err()))
			return false
		}
		if *backoff < s.maxBackoff {
			*backoff *= 2
			if *backoff > s.maxBackoff {
				*backoff = s.maxBackoff
			}
		}

		s.transition(domain.StateResuming)

		remote, complete, err := s.queryRemoteOffset(ctx)
		if err != nil {
			if _, classified := collecterrors.ClassOf(err); classified {
				s.failWith(err)
				return false
			}
			s.transition(domain.StateInterrupted)
			s.log.Warn("offset probe failed, backing off", "error", err, "retryIn", *backoff)
			continue
		}

		if complete {
			// the chunk whose acknowledgment we lost was the last one
			if remote > s.CommittedOffset() {
				s.setOffset(remote)
			}
			s.complete()
			return false
		}

		if err := s.repositionTo(remote); err != nil {
			s.failWith(err)
			return false
		}
		s.setOffset(remote)
		s.transition(domain.StateTransferring)
		s.log.Info("transfer resumed from remote offset", "offset", remote)
		return true
	}
}

// repositionTo aligns the local cursor and the byte source with a
// remote-reported committed offset. Inside the buffered window no source
// repositioning is needed; outside it the source must support seeking.
func (s *Session) repositionTo(target int64) error {
	highWater := s.CommittedOffset()
	if s.buf != nil {
		highWater = s.chunkStart + int64(len(s.buf))
	}
	if target > highWater {
		return collecterrors.Classifyf(collecterrors.ClassRemoteRejected,
			"remote reports %d committed bytes but only %d were sent", target, highWater)
	}

	if s.buf != nil && target >= s.chunkStart {
		if !s.bufFinal && target == s.chunkStart+int64(len(s.buf)) {
			// the buffered chunk was fully persisted, only its ack was
			// lost; the next iteration must read fresh bytes
			s.buf = nil
		}
		s.setOffset(target)
		return nil
	}

	seeker, ok := s.src.(source.Seeker)
	if !ok {
		return collecterrors.Classifyf(collecterrors.ClassNonResumableSource,
			"remote committed %d, buffered window starts at %d and source cannot seek", target, s.chunkStart)
	}
	if err := seeker.SeekTo(target); err != nil {
		return collecterrors.Classify(collecterrors.ClassUnreadable, err)
	}

	s.chk.reset(target)
	s.buf = nil
	s.bufFinal = false
	s.setOffset(target)
	return nil
}

func (s *Session) complete() {
	s.mu.Lock()
	already := s.state == domain.StateCompleted
	if !already {
		s.state = domain.StateCompleted
	}
	offset := s.offset
	s.mu.Unlock()
	if already {
		return
	}

	s.log.Info("upload completed",
		"sessionURI", s.SessionURI(),
		"bytes", humanize.IBytes(uint64(offset)))
	close(s.done)
}

func (s *Session) failWith(err error) error {
	s.mu.Lock()
	if s.state == domain.StateFailed || s.state == domain.StateCompleted {
		s.mu.Unlock()
		return err
	}
	s.state = domain.StateFailed
	s.finalErr = err
	offset := s.offset
	s.mu.Unlock()

	class, _ := collecterrors.ClassOf(err)
	s.log.Error("upload session failed",
		"classification", string(class),
		"committedOffset", offset,
		"error", err)
	close(s.done)
	return err
}

func (s *Session) transition(next domain.UploadState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransitionTo(next) {
		s.log.Warn("illegal state transition ignored", "from", string(s.state), "to", string(next))
		return
	}
	s.state = next
}

func (s *Session) setOffset(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
}

func (s *Session) describeTotal() string {
	if s.totalSize == SizeUnknown {
		return "unknown"
	}
	return humanize.IBytes(uint64(s.totalSize))
}

// contentRange renders the Content-Range header for a chunk. Final chunks
// always declare the real total; non-final chunks declare it only when it
// was known up front.
func contentRange(start int64, length int, total int64, final bool) string {
	if final {
		end := start + int64(length)
		if length == 0 {
			return fmt.Sprintf("bytes */%d", end)
		}
		return fmt.Sprintf("bytes %d-%d/%d", start, end-1, end)
	}
	if total == SizeUnknown {
		return fmt.Sprintf("bytes %d-%d/*", start, start+int64(length)-1)
	}
	return fmt.Sprintf("bytes %d-%d/%d", start, start+int64(length)-1, total)
}

func statusProbeRange(total int64) string {
	if total == SizeUnknown {
		return "bytes */*"
	}
	return fmt.Sprintf("bytes */%d", total)
}

// parseCommitted extracts the committed byte count from a Range response
// header of the form "bytes=0-N". An absent header means nothing has been
// persisted yet.
func parseCommitted(header string) (int64, error) {
	if header == "" {
		return 0, nil
	}
	value, ok := strings.CutPrefix(header, "bytes=0-")
	if !ok {
		return 0, fmt.Errorf("unparseable Range header %q", header)
	}
	last, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable Range header %q: %w", header, err)
	}
	return last + 1, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
