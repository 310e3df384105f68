package source

import (
	"fmt"
	"os"
	"path/filepath"

	collecterrors "filecollect/pkg/errors"
)

// FileSource is a ByteSource over a local file.
type FileSource struct {
	file *os.File
	size int64
}

var _ ByteSource = (*FileSource)(nil)
var _ Seeker = (*FileSource)(nil)

// Open resolves a path spec against the local filesystem. All failures are
// classified before any network use: NotFound, PermissionDenied or
// Unreadable.
func Open(pathSpec string) (*FileSource, error) {
	if pathSpec == "" {
		return nil, collecterrors.Classifyf(collecterrors.ClassNotFound, "empty path spec")
	}

	path := filepath.Clean(pathSpec)

	f, err := os.Open(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, collecterrors.Classify(collecterrors.ClassUnreadable, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, collecterrors.Classifyf(collecterrors.ClassUnreadable, "%s is a directory", path)
	}

	return &FileSource{file: f, size: info.Size()}, nil
}

func classifyOpenError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return collecterrors.Classify(collecterrors.ClassNotFound, err)
	case os.IsPermission(err):
		return collecterrors.Classify(collecterrors.ClassPermissionDenied, err)
	default:
		return collecterrors.Classify(collecterrors.ClassUnreadable, fmt.Errorf("open %s: %w", path, err))
	}
}

func (s *FileSource) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

// Size reports the length observed at open time. Regular files always know
// their size; the second return stays for the ByteSource contract, where
// pipe-like sources cannot tell.
func (s *FileSource) Size() (int64, bool) {
	return s.size, true
}

// SeekTo repositions the stream to an absolute offset, used when an upload
// resumes from a remote-reported committed offset.
func (s *FileSource) SeekTo(offset int64) error {
	_, err := s.file.Seek(offset, 0)
	return err
}

// Describe returns the resolved path of the underlying file, for logging.
func (s *FileSource) Describe() string {
	return s.file.Name()
}
