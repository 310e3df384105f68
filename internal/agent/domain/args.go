package domain

import "fmt"

// ActionArgs are the inputs to one collection. Both values are opaque at
// this layer: the path spec is decoded only by the byte source, the signed
// URL only by the remote endpoint.
type ActionArgs struct {
	PathSpec  string
	SignedURL string
}

// Validate checks the only invariant the args carry: both fields present.
func (a ActionArgs) Validate() error {
	if a.PathSpec == "" {
		return fmt.Errorf("path spec must not be empty")
	}
	if a.SignedURL == "" {
		return fmt.Errorf("signed URL must not be empty")
	}
	return nil
}

// ActionResult is the action's commitment: the upload session exists and is
// transferring. It says nothing about eventual completion; the session URI
// is the handle an out-of-band supervisor can watch.
type ActionResult struct {
	SessionURI string
}
