// Package hierarchy owns the client's view of the folder/document tree: the
// listing of the active folder and the currently open document. Consistency
// model: every mutation performs its single remote effect and then refetches
// the active folder, so after a successful mutation-plus-refetch the items
// always mirror the server. There is no optimistic merge and no client-side
// retry; failures propagate to the caller unchanged.
package hierarchy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/docvault/docvault-go/internal/api"
)

// DocumentAPI is the slice of the gateway the store calls. Satisfied by
// *api.Client; narrowed so tests stub it without HTTP.
type DocumentAPI interface {
	ListDocuments(ctx context.Context, opts api.ListOptions) ([]api.Document, error)
	GetDocument(ctx context.Context, id string) (*api.Document, error)
	CreateFolder(ctx context.Context, name, description, parentFolderID string) (*api.Document, error)
	UploadFile(ctx context.Context, req api.UploadRequest) (*api.Document, error)
	UpdateDocument(ctx context.Context, id string, req api.UpdateRequest) (*api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	MoveDocument(ctx context.Context, id, targetFolderID string) (*api.Document, error)
	DownloadURL(ctx context.Context, id string) (string, error)
}

// Store holds the hierarchy view state. Concurrent List calls are allowed;
// responses are applied in request-issue order via a generation counter, so
// a slow older response can never overwrite a newer listing.
type Store struct {
	mu              sync.Mutex
	currentFolderID string
	items           []api.Document
	currentDocument *api.Document
	inFlight        int
	stale           bool

	// issuedGen increments when a List is issued; appliedGen records the
	// newest generation whose response has been applied.
	issuedGen  uint64
	appliedGen uint64

	docs   DocumentAPI
	logger *slog.Logger
}

// NewStore creates a hierarchy store over the given gateway.
func NewStore(docs DocumentAPI, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{docs: docs, logger: logger}
}

// CurrentFolderID returns the folder whose listing the store holds.
// Empty means root.
func (s *Store) CurrentFolderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentFolderID
}

// Items returns a copy of the current listing.
func (s *Store) Items() []api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Document, len(s.items))
	copy(out, s.items)

	return out
}

// CurrentDocument returns the currently open document, or nil.
func (s *Store) CurrentDocument() *api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentDocument == nil {
		return nil
	}

	d := *s.currentDocument

	return &d
}

// Busy reports whether any store request is in flight. UI treats a busy
// store as unsettled.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inFlight > 0
}

// Stale reports whether a mutation succeeded but its refetch failed: the
// mutation stands on the server, the local listing does not reflect it yet.
// Cleared by the next successful List.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stale
}

// beginRequest marks a request in flight and returns a release func.
// Release runs on every exit path so an error never wedges the busy flag.
func (s *Store) beginRequest() func() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}
}

// List fetches the children of folderID (root when empty) and installs them
// as the current listing. When List calls race, each response is applied
// only if no response from a later-issued List has been applied; in-flight
// requests are never canceled, stale results are discarded.
func (s *Store) List(ctx context.Context, folderID string, opts api.ListOptions) ([]api.Document, error) {
	release := s.beginRequest()
	defer release()

	s.mu.Lock()
	s.issuedGen++
	gen := s.issuedGen
	s.mu.Unlock()

	opts.FolderID = folderID

	items, err := s.docs.ListDocuments(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen <= s.appliedGen {
		s.logger.Debug("discarding stale listing response",
			slog.Uint64("generation", gen),
			slog.Uint64("applied_generation", s.appliedGen),
		)

		return items, nil
	}

	s.appliedGen = gen
	s.currentFolderID = folderID
	s.items = items
	s.stale = false

	return items, nil
}

// Get fetches one node and sets it as the current document.
func (s *Store) Get(ctx context.Context, id string) (*api.Document, error) {
	release := s.beginRequest()
	defer release()

	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.currentDocument = doc
	s.mu.Unlock()

	return doc, nil
}

// refresh re-lists the active folder after a mutation. A refresh failure
// does not fail the mutation: the server already applied it. The view is
// flagged stale until the next successful List.
func (s *Store) refresh(ctx context.Context) {
	s.mu.Lock()
	folderID := s.currentFolderID
	s.mu.Unlock()

	if _, err := s.List(ctx, folderID, api.ListOptions{}); err != nil {
		s.logger.Warn("refetch after mutation failed, view is stale",
			slog.String("folder_id", folderID),
			slog.String("error", err.Error()),
		)

		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
	}
}

// CreateFolder creates a folder and refetches the active folder's listing.
func (s *Store) CreateFolder(ctx context.Context, name, description, parentFolderID string) (*api.Document, error) {
	doc, err := s.docs.CreateFolder(ctx, name, description, parentFolderID)
	if err != nil {
		return nil, err
	}

	s.refresh(ctx)

	return doc, nil
}

// UploadFile uploads a file and refetches the active folder's listing.
func (s *Store) UploadFile(ctx context.Context, req api.UploadRequest) (*api.Document, error) {
	doc, err := s.docs.UploadFile(ctx, req)
	if err != nil {
		return nil, err
	}

	s.refresh(ctx)

	return doc, nil
}

// Update applies a partial update and refetches the active folder's listing.
func (s *Store) Update(ctx context.Context, id string, req api.UpdateRequest) (*api.Document, error) {
	doc, err := s.docs.UpdateDocument(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.refresh(ctx)

	return doc, nil
}

// Delete soft-deletes a node and refetches the active folder's listing.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}

	s.refresh(ctx)

	return nil
}

// Move reparents a node (empty targetFolderID = root) and refetches the
// active folder's listing.
func (s *Store) Move(ctx context.Context, id, targetFolderID string) (*api.Document, error) {
	doc, err := s.docs.MoveDocument(ctx, id, targetFolderID)
	if err != nil {
		return nil, err
	}

	s.refresh(ctx)

	return doc, nil
}

// Download returns a short-lived access URL for a file. No local mutation.
func (s *Store) Download(ctx context.Context, id string) (string, error) {
	return s.docs.DownloadURL(ctx, id)
}
