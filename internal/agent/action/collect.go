// Package action implements the agent-side large-file collection action.
package action

import (
	"context"

	"filecollect/internal/agent/domain"
	"filecollect/internal/agent/source"
	"filecollect/internal/agent/upload"
	"filecollect/pkg/logger"
)

// Opener resolves a path spec to a byte source. Wired to source.Open in
// production; tests substitute their own.
type Opener func(pathSpec string) (source.ByteSource, error)

// CollectLargeFile streams one file to a pre-signed storage URL. The call
// is synchronous through session initiation only: once the remote endpoint
// has accepted the session, the transfer continues in a detached goroutine
// and the caller gets the session URI as a monitoring handle. Errors past
// that point are terminal to the detached transfer and are not reported
// through this contract.
type CollectLargeFile struct {
	open   Opener
	cfg    upload.Config
	logger *logger.Logger
}

func NewCollectLargeFile(open Opener, cfg upload.Config, log *logger.Logger) *CollectLargeFile {
	if open == nil {
		open = func(pathSpec string) (source.ByteSource, error) {
			return source.Open(pathSpec)
		}
	}
	return &CollectLargeFile{
		open:   open,
		cfg:    cfg,
		logger: log.WithField("component", "collect-action"),
	}
}

// Execute runs one collection. The returned result carries the session URI;
// it is a commitment that the transfer started, not that it finished.
func (a *CollectLargeFile) Execute(ctx context.Context, args domain.ActionArgs) (*domain.ActionResult, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}

	log := a.logger.WithField("pathSpec", args.PathSpec)

	src, err := a.open(args.PathSpec)
	if err != nil {
		log.Warn("source open failed", "error", err)
		return nil, err
	}

	sess := upload.NewSession(args.SignedURL, src, a.cfg, a.logger)

	if err := sess.Initiate(ctx); err != nil {
		_ = src.Close()
		log.Warn("session initiation failed", "error", err)
		return nil, err
	}

	// Hand the session off. The detached transfer owns the source now and
	// closes it when it reaches a terminal state. A fresh context keeps the
	// transfer alive past this call's deadline: there is deliberately no
	// cancellation path once transferring has started.
	go func() {
		defer src.Close()
		sess.Run(context.Background())
	}()

	log.Info("collection started", "sessionURI", sess.SessionURI())
	return &domain.ActionResult{SessionURI: sess.SessionURI()}, nil
}
