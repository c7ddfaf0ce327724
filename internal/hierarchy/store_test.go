package hierarchy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-go/internal/api"
)

// fakeDocs is a scriptable DocumentAPI. Each call site can install a hook;
// unhooked methods serve the canned fields.
type fakeDocs struct {
	mu sync.Mutex

	listFn  func(ctx context.Context, opts api.ListOptions) ([]api.Document, error)
	listErr error
	items   []api.Document

	getDoc *api.Document
	getErr error

	createDoc *api.Document
	createErr error

	uploadDoc *api.Document
	uploadErr error

	updateDoc *api.Document
	updateErr error

	deleteErr error

	moveDoc *api.Document
	moveErr error

	downloadURL string
	downloadErr error

	listCalls int
}

func (f *fakeDocs) ListDocuments(ctx context.Context, opts api.ListOptions) ([]api.Document, error) {
	f.mu.Lock()
	f.listCalls++
	fn := f.listFn
	items, err := f.items, f.listErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, opts)
	}

	return items, err
}

func (f *fakeDocs) GetDocument(_ context.Context, _ string) (*api.Document, error) {
	return f.getDoc, f.getErr
}

func (f *fakeDocs) CreateFolder(_ context.Context, _, _, _ string) (*api.Document, error) {
	return f.createDoc, f.createErr
}

func (f *fakeDocs) UploadFile(_ context.Context, _ api.UploadRequest) (*api.Document, error) {
	return f.uploadDoc, f.uploadErr
}

func (f *fakeDocs) UpdateDocument(_ context.Context, _ string, _ api.UpdateRequest) (*api.Document, error) {
	return f.updateDoc, f.updateErr
}

func (f *fakeDocs) DeleteDocument(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakeDocs) MoveDocument(_ context.Context, _, _ string) (*api.Document, error) {
	return f.moveDoc, f.moveErr
}

func (f *fakeDocs) DownloadURL(_ context.Context, _ string) (string, error) {
	return f.downloadURL, f.downloadErr
}

func doc(id, name string) api.Document {
	return api.Document{ID: id, Name: name}
}

func TestList_InstallsListing(t *testing.T) {
	docs := &fakeDocs{items: []api.Document{doc("d1", "a"), doc("d2", "b")}}
	store := NewStore(docs, nil)

	items, err := store.List(context.Background(), "f1", api.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "f1", store.CurrentFolderID())
	assert.Equal(t, items, store.Items())
	assert.False(t, store.Busy())
}

func TestList_ErrorLeavesStateUntouched(t *testing.T) {
	docs := &fakeDocs{items: []api.Document{doc("d1", "a")}}
	store := NewStore(docs, nil)

	_, err := store.List(context.Background(), "f1", api.ListOptions{})
	require.NoError(t, err)

	docs.mu.Lock()
	docs.listErr = errors.New("boom")
	docs.mu.Unlock()

	_, err = store.List(context.Background(), "f2", api.ListOptions{})
	require.Error(t, err)

	// The previous listing stays installed.
	assert.Equal(t, "f1", store.CurrentFolderID())
	assert.Len(t, store.Items(), 1)
	assert.False(t, store.Busy())
}

func TestList_StaleResponseDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	docs := &fakeDocs{}
	docs.listFn = func(_ context.Context, opts api.ListOptions) ([]api.Document, error) {
		if opts.FolderID == "slow" {
			close(slowStarted)
			<-slowRelease

			return []api.Document{doc("old", "old")}, nil
		}

		return []api.Document{doc("new", "new")}, nil
	}

	store := NewStore(docs, nil)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		// Issued first, completes last.
		items, err := store.List(context.Background(), "slow", api.ListOptions{})
		assert.NoError(t, err)
		assert.Equal(t, "old", items[0].ID)
	}()

	<-slowStarted

	// Issued second, completes first, so its response wins.
	_, err := store.List(context.Background(), "fast", api.ListOptions{})
	require.NoError(t, err)

	close(slowRelease)
	wg.Wait()

	// The older response was returned to its caller but never applied.
	assert.Equal(t, "fast", store.CurrentFolderID())

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
}

func TestGet_SetsCurrentDocument(t *testing.T) {
	d := doc("d1", "report.pdf")
	docs := &fakeDocs{getDoc: &d}
	store := NewStore(docs, nil)

	got, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	current := store.CurrentDocument()
	require.NotNil(t, current)
	assert.Equal(t, "report.pdf", current.Name)

	// Mutating the returned copy does not touch store state.
	current.Name = "changed"
	assert.Equal(t, "report.pdf", store.CurrentDocument().Name)
}

func TestGet_ErrorKeepsCurrentDocument(t *testing.T) {
	d := doc("d1", "report.pdf")
	docs := &fakeDocs{getDoc: &d}
	store := NewStore(docs, nil)

	_, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)

	docs.getDoc = nil
	docs.getErr = errors.New("boom")

	_, err = store.Get(context.Background(), "d2")
	require.Error(t, err)
	assert.Equal(t, "d1", store.CurrentDocument().ID)
}

func TestCreateFolder_RefetchesListing(t *testing.T) {
	created := doc("f2", "Reports")
	docs := &fakeDocs{
		createDoc: &created,
		items:     []api.Document{doc("f2", "Reports")},
	}
	store := NewStore(docs, nil)

	got, err := store.CreateFolder(context.Background(), "Reports", "", "")
	require.NoError(t, err)
	assert.Equal(t, "f2", got.ID)

	// The refetched listing is installed.
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Reports", items[0].Name)
	assert.False(t, store.Stale())
}

func TestMutation_RemoteErrorSkipsRefetch(t *testing.T) {
	docs := &fakeDocs{createErr: errors.New("boom")}
	store := NewStore(docs, nil)

	_, err := store.CreateFolder(context.Background(), "Reports", "", "")
	require.Error(t, err)
	assert.Zero(t, docs.listCalls)
	assert.False(t, store.Stale())
}

func TestMutation_RefetchFailureFlagsStale(t *testing.T) {
	deleted := errors.New("listing down")
	docs := &fakeDocs{listErr: deleted}
	store := NewStore(docs, nil)

	// The delete itself succeeds, so no error surfaces, but the view could
	// not be refreshed.
	err := store.Delete(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, store.Stale())

	// The next successful List clears the flag.
	docs.mu.Lock()
	docs.listErr = nil
	docs.items = []api.Document{}
	docs.mu.Unlock()

	_, err = store.List(context.Background(), "", api.ListOptions{})
	require.NoError(t, err)
	assert.False(t, store.Stale())
}

func TestMutation_RefetchesActiveFolderNotTarget(t *testing.T) {
	var refetchedFolder string

	docs := &fakeDocs{}
	docs.listFn = func(_ context.Context, opts api.ListOptions) ([]api.Document, error) {
		refetchedFolder = opts.FolderID

		return nil, nil
	}

	moved := doc("d1", "report.pdf")
	docs.moveDoc = &moved

	store := NewStore(docs, nil)

	_, err := store.List(context.Background(), "f1", api.ListOptions{})
	require.NoError(t, err)

	// Moving a document into some other folder still refreshes f1, the
	// folder being viewed.
	_, err = store.Move(context.Background(), "d1", "f9")
	require.NoError(t, err)
	assert.Equal(t, "f1", refetchedFolder)
}

func TestUploadFile_RefetchesListing(t *testing.T) {
	uploaded := doc("d9", "notes.txt")
	docs := &fakeDocs{uploadDoc: &uploaded}
	store := NewStore(docs, nil)

	got, err := store.UploadFile(context.Background(), api.UploadRequest{Name: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "d9", got.ID)
	assert.Equal(t, 1, docs.listCalls)
}

func TestUpdate_RefetchesListing(t *testing.T) {
	updated := doc("d1", "renamed.pdf")
	docs := &fakeDocs{updateDoc: &updated}
	store := NewStore(docs, nil)

	name := "renamed.pdf"

	got, err := store.Update(context.Background(), "d1", api.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", got.Name)
	assert.Equal(t, 1, docs.listCalls)
}

func TestDownload_NoLocalMutation(t *testing.T) {
	docs := &fakeDocs{downloadURL: "https://cdn.example.com/d1?sig=abc"}
	store := NewStore(docs, nil)

	url, err := store.Download(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/d1?sig=abc", url)
	assert.Zero(t, docs.listCalls)
}

func TestBusy_DuringRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	docs := &fakeDocs{}
	docs.listFn = func(_ context.Context, _ api.ListOptions) ([]api.Document, error) {
		close(started)
		<-release

		return nil, nil
	}

	store := NewStore(docs, nil)

	done := make(chan struct{})

	go func() {
		defer close(done)

		_, _ = store.List(context.Background(), "", api.ListOptions{})
	}()

	<-started
	assert.True(t, store.Busy())

	close(release)
	<-done
	assert.False(t, store.Busy())
}

func TestBusy_ReleasedOnError(t *testing.T) {
	docs := &fakeDocs{listErr: errors.New("boom")}
	store := NewStore(docs, nil)

	_, err := store.List(context.Background(), "", api.ListOptions{})
	require.Error(t, err)
	assert.False(t, store.Busy())
}

func TestItems_ReturnsCopy(t *testing.T) {
	docs := &fakeDocs{items: []api.Document{doc("d1", "a")}}
	store := NewStore(docs, nil)

	_, err := store.List(context.Background(), "", api.ListOptions{})
	require.NoError(t, err)

	items := store.Items()
	items[0].Name = "mutated"

	assert.Equal(t, "a", store.Items()[0].Name)
}
