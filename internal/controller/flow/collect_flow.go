// Package flow runs the controller side of large-file collection. The flow
// validates its arguments, obtains a signed upload URL, invokes the agent
// action exactly once, and persists the returned session URI. It does not
// monitor the transfer: once the agent has initiated the upload, the object
// store session URI is the only handle the caller keeps.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filecollect/internal/controller/issuance"
	"filecollect/internal/controller/state"
	"filecollect/pkg/logger"
)

const defaultSizeHint = 0

// FlowArgs configures one collection flow. SignedURL is optional: when
// empty the flow requests one from the issuance service.
type FlowArgs struct {
	PathSpec  string
	SignedURL string
}

func (a *FlowArgs) Validate() error {
	if a.PathSpec == "" {
		return fmt.Errorf("path spec must not be empty")
	}
	return nil
}

// ActionInvoker dispatches the collection action to an agent and returns
// the session URI the agent committed to. Implemented by pkg/client.
type ActionInvoker interface {
	CollectLargeFile(ctx context.Context, pathSpec, signedURL string) (sessionURI string, err error)
}

type CollectLargeFileFlow struct {
	issuer  issuance.Issuer
	invoker ActionInvoker
	store   *state.Store
	logger  *logger.Logger
}

func NewCollectLargeFileFlow(issuer issuance.Issuer, invoker ActionInvoker, store *state.Store) *CollectLargeFileFlow {
	return &CollectLargeFileFlow{
		issuer:  issuer,
		invoker: invoker,
		store:   store,
		logger:  logger.WithField("component", "collect-flow"),
	}
}

// Run executes one flow. The agent action is invoked exactly once; an
// initiation failure is terminal for this flow and is never retried with
// a fresh URL. Callers start a new flow to try again.
func (f *CollectLargeFileFlow) Run(ctx context.Context, args FlowArgs) (*state.FlowRecord, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}

	flowID := uuid.New().String()
	log := f.logger.WithFields("flowId", flowID, "pathSpec", args.PathSpec)

	rec, err := f.store.CreateFlow(flowID, args.PathSpec)
	if err != nil {
		return nil, fmt.Errorf("creating flow record: %w", err)
	}

	signedURL := args.SignedURL
	if signedURL == "" {
		issued, err := f.issuer.Issue(ctx, args.PathSpec, defaultSizeHint)
		if err != nil {
			return f.fail(rec, log, fmt.Errorf("requesting signed upload URL: %w", err))
		}
		if !issued.ExpiresAt.IsZero() && issued.ExpiresAt.Before(time.Now()) {
			return f.fail(rec, log, fmt.Errorf("issuance returned an already-expired URL"))
		}
		signedURL = issued.URL
		log.Debug("signed URL issued", "expiresAt", issued.ExpiresAt)
	}

	sessionURI, err := f.invoker.CollectLargeFile(ctx, args.PathSpec, signedURL)
	if err != nil {
		return f.fail(rec, log, fmt.Errorf("agent action failed: %w", err))
	}

	if err := f.store.MarkStarted(flowID, sessionURI); err != nil {
		return nil, err
	}
	log.Info("collection started", "sessionUri", sessionURI)

	started, _ := f.store.GetFlow(flowID)
	return started, nil
}

func (f *CollectLargeFileFlow) fail(rec *state.FlowRecord, log *logger.Logger, cause error) (*state.FlowRecord, error) {
	log.Error("flow failed", "error", cause)
	if err := f.store.MarkFailed(rec.ID, cause); err != nil {
		log.Warn("failed to persist flow failure", "error", err)
	}
	failed, _ := f.store.GetFlow(rec.ID)
	return failed, cause
}
