package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"filecollect/internal/agent/domain"
	"filecollect/internal/agent/source"
	collecterrors "filecollect/pkg/errors"
	"filecollect/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithConfig(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func testConfig() Config {
	return Config{
		ChunkSize:      1024,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
}

type acceptedRange struct {
	start, end int64
}

// fakeObjectStore speaks the storage side of the resumable-upload protocol:
// POST initiation handing out a session URI, chunked PUTs with Content-Range,
// 308 + Range for the committed offset, 200 on completion.
type fakeObjectStore struct {
	mu         sync.Mutex
	initStatus int // 0 means accept with 201
	data       []byte
	complete   bool
	accepted   []acceptedRange
	initCount  int

	// strict rejects malformed data PUTs the way a conforming endpoint
	// does: a non-final chunk must carry at least one byte.
	strict bool

	// overrideRange, when set, replaces the Range header on 308 answers.
	overrideRange string

	// beforeChunk may inspect/mutate the store and force a response status.
	// Returning 0 lets the chunk through. Called with the lock held.
	beforeChunk func(f *fakeObjectStore, start int64, body []byte) int
}

func (f *fakeObjectStore) serve() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			f.mu.Lock()
			defer f.mu.Unlock()
			f.initCount++
			if f.initStatus != 0 {
				w.WriteHeader(f.initStatus)
				return
			}
			w.Header().Set("Location", "http://"+r.Host+"/session/abc123")
			w.WriteHeader(http.StatusCreated)

		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.handlePut(w, r.Header.Get("Content-Range"), body)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func (f *fakeObjectStore) handlePut(w http.ResponseWriter, contentRange string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.complete {
		w.WriteHeader(http.StatusOK)
		return
	}

	start, total, probe, err := parseTestContentRange(contentRange)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if probe {
		if total >= 0 && int64(len(f.data)) == total {
			f.complete = true
			w.WriteHeader(http.StatusOK)
			return
		}
		f.write308(w)
		return
	}

	if f.beforeChunk != nil {
		if status := f.beforeChunk(f, start, body); status != 0 {
			if status == 308 {
				f.write308(w)
				return
			}
			w.WriteHeader(status)
			return
		}
	}

	if f.strict && len(body) == 0 {
		// zero-length data PUT: its Content-Range is inverted (the only
		// legal empty requests are the probe and finalize-marker forms)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if start > int64(len(f.data)) {
		// gap: refuse and report what is committed
		f.write308(w)
		return
	}

	f.data = append(f.data[:start], body...)
	f.accepted = append(f.accepted, acceptedRange{start: start, end: start + int64(len(body))})

	if total >= 0 && int64(len(f.data)) == total {
		f.complete = true
		w.WriteHeader(http.StatusOK)
		return
	}
	f.write308(w)
}

func (f *fakeObjectStore) write308(w http.ResponseWriter) {
	if f.overrideRange != "" {
		w.Header().Set("Range", f.overrideRange)
	} else if len(f.data) > 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", len(f.data)-1))
	}
	w.WriteHeader(308)
}

// parseTestContentRange understands "bytes S-E/T", "bytes */T" and the
// deferred forms with T = "*".
func parseTestContentRange(header string) (start, total int64, probe bool, err error) {
	rest, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return 0, 0, false, fmt.Errorf("bad Content-Range %q", header)
	}
	rangePart, totalPart, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, 0, false, fmt.Errorf("bad Content-Range %q", header)
	}

	total = int64(-1)
	if totalPart != "*" {
		total, err = strconv.ParseInt(totalPart, 10, 64)
		if err != nil {
			return 0, 0, false, err
		}
	}

	if rangePart == "*" {
		return -1, total, true, nil
	}
	startPart, _, ok := strings.Cut(rangePart, "-")
	if !ok {
		return 0, 0, false, fmt.Errorf("bad Content-Range %q", header)
	}
	start, err = strconv.ParseInt(startPart, 10, 64)
	return start, total, false, err
}

// streamSource is a read-once, non-seekable source of unknown length.
type streamSource struct {
	r *bytes.Reader
}

func (s *streamSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *streamSource) Close() error               { return nil }
func (s *streamSource) Size() (int64, bool)        { return 0, false }

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func patternedBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func openSource(t *testing.T, content []byte) *source.FileSource {
	t.Helper()
	src, err := source.Open(writeTempFile(t, content))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestInitiateAssignsSessionURI(t *testing.T) {
	store := &fakeObjectStore{}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, []byte("hello")), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	if sess.State() != domain.StateTransferring {
		t.Errorf("state = %s, want TRANSFERRING", sess.State())
	}
	if sess.SessionURI() == "" {
		t.Error("expected a non-empty session URI")
	}
	if sess.CommittedOffset() != 0 {
		t.Errorf("offset = %d, want 0", sess.CommittedOffset())
	}
}

func TestInitiateClassifications(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"expired URL", http.StatusUnauthorized, collecterrors.ErrUrlExpired},
		{"invalid URL", http.StatusForbidden, collecterrors.ErrUrlInvalid},
		{"quota rejection", http.StatusTooManyRequests, collecterrors.ErrRemoteRejected},
		{"server error", http.StatusInternalServerError, collecterrors.ErrRemoteRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeObjectStore{initStatus: tt.status}
			srv := store.serve()
			defer srv.Close()

			sess := NewSession(srv.URL, openSource(t, []byte("x")), testConfig(), testLogger())
			err := sess.Initiate(context.Background())
			if err == nil {
				t.Fatal("expected initiation to fail")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
			if sess.State() != domain.StateFailed {
				t.Errorf("state = %s, want FAILED", sess.State())
			}
			select {
			case <-sess.Done():
			default:
				t.Error("done channel must be closed after terminal failure")
			}
		})
	}
}

func TestTransferHappyPathMultiChunk(t *testing.T) {
	content := patternedBytes(4096 + 100) // five chunks, short tail
	store := &fakeObjectStore{}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !bytes.Equal(store.data, content) {
		t.Errorf("stored %d bytes, want %d, content mismatch", len(store.data), len(content))
	}

	// offsets strictly increasing and contiguous
	var next int64
	for i, r := range store.accepted {
		if r.start != next {
			t.Errorf("chunk %d starts at %d, want %d", i, r.start, next)
		}
		if r.end <= r.start {
			t.Errorf("chunk %d is empty or inverted: %+v", i, r)
		}
		next = r.end
	}
	if next != int64(len(content)) {
		t.Errorf("last committed byte = %d, want %d", next, len(content))
	}
}

func TestZeroLengthFileCompletesWithoutDataChunks(t *testing.T) {
	store := &fakeObjectStore{}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, nil), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if len(store.accepted) != 0 {
		t.Errorf("zero-length upload sent %d data chunks, want 0", len(store.accepted))
	}
	if len(store.data) != 0 {
		t.Errorf("stored %d bytes, want 0", len(store.data))
	}
	if !store.complete {
		t.Error("remote object must be finalized")
	}
}

func TestResumeUsesRemoteAuthoritativeOffset(t *testing.T) {
	// Acknowledgment-loss scenario: the client believes 1024 bytes are
	// acknowledged but the remote durably committed only 800. The next
	// chunk must be resent from 800, not from the local belief.
	content := patternedBytes(4096)
	store := &fakeObjectStore{}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 1024 && !tripped {
			tripped = true
			f.data = f.data[:800] // regress the durable state
			return http.StatusServiceUnavailable
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !bytes.Equal(store.data, content) {
		t.Error("reassembled object differs from the source")
	}

	var resent bool
	for _, r := range store.accepted {
		if r.start == 800 {
			resent = true
		}
	}
	if !resent {
		t.Errorf("expected a chunk resent from offset 800, accepted ranges: %+v", store.accepted)
	}
}

func TestMidStreamDropResumesNotFromZero(t *testing.T) {
	content := patternedBytes(8 * 1024)
	store := &fakeObjectStore{}
	dropped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start >= 3*1024 && !dropped {
			dropped = true
			return http.StatusBadGateway
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !bytes.Equal(store.data, content) {
		t.Error("reassembled object differs from the source")
	}

	// no chunk after the drop may restart at zero
	var sawDropRetry bool
	for i, r := range store.accepted {
		if i > 0 && r.start == 0 {
			t.Errorf("chunk %d restarted from zero after interruption", i)
		}
		if r.start == 3*1024 {
			sawDropRetry = true
		}
	}
	if !sawDropRetry {
		t.Errorf("expected the dropped chunk to be retried at offset %d", 3*1024)
	}
}

func TestExpiredURLMidTransferIsTerminal(t *testing.T) {
	content := patternedBytes(4096)
	store := &fakeObjectStore{}
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start >= 1024 {
			return http.StatusUnauthorized
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateFailed {
		t.Fatalf("state = %s, want FAILED", sess.State())
	}
	if !errors.Is(sess.Err(), collecterrors.ErrUrlExpired) {
		t.Errorf("err = %v, want UrlExpired", sess.Err())
	}
	if sess.CommittedOffset() != 1024 {
		t.Errorf("failure must carry the last committed offset, got %d want 1024", sess.CommittedOffset())
	}
}

func TestNonSeekableSourceRecoversWithinBufferedWindow(t *testing.T) {
	content := patternedBytes(3 * 1024)
	store := &fakeObjectStore{}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 1024 && !tripped {
			tripped = true
			// partial persist of the in-flight chunk, then failure
			f.data = append(f.data, body[:200]...)
			return http.StatusServiceUnavailable
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	src := &streamSource{r: bytes.NewReader(content)}
	sess := NewSession(srv.URL, src, testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !bytes.Equal(store.data, content) {
		t.Error("reassembled object differs from the source")
	}
}

func TestNonSeekableSourceFailsOutsideWindow(t *testing.T) {
	content := patternedBytes(4 * 1024)
	store := &fakeObjectStore{}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 2048 && !tripped {
			tripped = true
			// regress below the buffered window: bytes 0-2047 were already
			// acknowledged, the stream cannot produce them again
			f.data = f.data[:100]
			return http.StatusServiceUnavailable
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	src := &streamSource{r: bytes.NewReader(content)}
	sess := NewSession(srv.URL, src, testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateFailed {
		t.Fatalf("state = %s, want FAILED", sess.State())
	}
	if !errors.Is(sess.Err(), collecterrors.ErrNonResumableSource) {
		t.Errorf("err = %v, want NonResumableSource", sess.Err())
	}
}

func TestLostAckOfFullyPersistedChunkResumesWithFreshBytes(t *testing.T) {
	// The endpoint persists the whole non-final chunk but the 308 never
	// arrives. The probe then reports a committed offset at the exact end
	// of the buffered window; the session must continue with the next
	// chunk, never with a zero-length re-send of the exhausted one.
	content := patternedBytes(3 * 1024)
	store := &fakeObjectStore{strict: true}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 1024 && !tripped {
			tripped = true
			f.data = append(f.data[:start], body...)
			return http.StatusServiceUnavailable
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	src := &streamSource{r: bytes.NewReader(content)}
	sess := NewSession(srv.URL, src, testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !bytes.Equal(store.data, content) {
		t.Error("reassembled object differs from the source")
	}
	for _, r := range store.accepted {
		if r.end <= r.start {
			t.Errorf("endpoint saw an empty data range %d-%d", r.start, r.end)
		}
	}
}

func TestOverReportedAckFailsRemoteRejected(t *testing.T) {
	// A 308 acknowledging more bytes than the chunk carried cannot be
	// reconciled; the session must fail cleanly instead of trusting it.
	content := patternedBytes(3 * 1024)
	store := &fakeObjectStore{}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 0 && !tripped {
			tripped = true
			f.overrideRange = "bytes=0-4999"
			return 308
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateFailed {
		t.Fatalf("state = %s, want FAILED", sess.State())
	}
	if !errors.Is(sess.Err(), collecterrors.ErrRemoteRejected) {
		t.Errorf("err = %v, want RemoteRejected", sess.Err())
	}
}

func TestOverReportedProbeOffsetFailsRemoteRejected(t *testing.T) {
	content := patternedBytes(3 * 1024)
	store := &fakeObjectStore{}
	tripped := false
	store.beforeChunk = func(f *fakeObjectStore, start int64, body []byte) int {
		if start == 0 && !tripped {
			tripped = true
			// drop the chunk and poison the following offset probe
			f.overrideRange = "bytes=0-4999"
			return http.StatusServiceUnavailable
		}
		return 0
	}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateFailed {
		t.Fatalf("state = %s, want FAILED", sess.State())
	}
	if !errors.Is(sess.Err(), collecterrors.ErrRemoteRejected) {
		t.Errorf("err = %v, want RemoteRejected", sess.Err())
	}
}

func TestFinalizeIdempotentAfterCompletion(t *testing.T) {
	content := patternedBytes(512)
	store := &fakeObjectStore{}
	srv := store.serve()
	defer srv.Close()

	sess := NewSession(srv.URL, openSource(t, content), testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())
	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", sess.State())
	}

	chunks := len(store.accepted)

	// re-sending the finalize marker must be a no-op, not a new transfer
	_, complete, err := sess.sendChunk(context.Background(), nil, int64(len(content)), true)
	if err != nil {
		t.Fatalf("repeated finalize errored: %v", err)
	}
	if !complete {
		t.Error("repeated finalize must report completion")
	}
	if len(store.accepted) != chunks {
		t.Error("repeated finalize must not append data")
	}
	if !bytes.Equal(store.data, content) {
		t.Error("repeated finalize altered the stored object")
	}

	// Run on a terminal session is also a no-op
	sess.Run(context.Background())
	if sess.State() != domain.StateCompleted {
		t.Errorf("state changed to %s after redundant Run", sess.State())
	}
}

func TestUnknownSizeUsesDeferredTotal(t *testing.T) {
	content := patternedBytes(2048 + 10)
	var sawDeferred, sawFinalTotal bool
	store := &fakeObjectStore{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session/s1")
			w.WriteHeader(http.StatusCreated)
			return
		}
		cr := r.Header.Get("Content-Range")
		if strings.HasSuffix(cr, "/*") {
			sawDeferred = true
		}
		if strings.HasSuffix(cr, "/"+strconv.Itoa(len(content))) {
			sawFinalTotal = true
		}
		body, _ := io.ReadAll(r.Body)
		store.handlePut(w, cr, body)
	}))
	defer srv.Close()

	src := &streamSource{r: bytes.NewReader(content)}
	sess := NewSession(srv.URL, src, testConfig(), testLogger())
	if err := sess.Initiate(context.Background()); err != nil {
		t.Fatal(err)
	}
	sess.Run(context.Background())

	if sess.State() != domain.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED (err: %v)", sess.State(), sess.Err())
	}
	if !sawDeferred {
		t.Error("expected intermediate chunks with a deferred total (bytes S-E/*)")
	}
	if !sawFinalTotal {
		t.Error("expected the final request to declare the real total")
	}
	if !bytes.Equal(store.data, content) {
		t.Error("reassembled object differs from the source")
	}
}

func TestContentRangeRendering(t *testing.T) {
	tests := []struct {
		name   string
		start  int64
		length int
		total  int64
		final  bool
		want   string
	}{
		{"intermediate known total", 0, 1024, 4096, false, "bytes 0-1023/4096"},
		{"intermediate deferred total", 1024, 1024, SizeUnknown, false, "bytes 1024-2047/*"},
		{"final with data", 4096, 100, 4196, true, "bytes 4096-4195/4196"},
		{"empty finalize", 4196, 0, SizeUnknown, true, "bytes */4196"},
		{"zero-length object", 0, 0, 0, true, "bytes */0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentRange(tt.start, tt.length, tt.total, tt.final); got != tt.want {
				t.Errorf("contentRange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCommitted(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"bytes=0-0", 1, false},
		{"bytes=0-1023", 1024, false},
		{"bytes=512-1023", 0, true},
		{"chunks=0-7", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCommitted(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCommitted(%q) err = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseCommitted(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
