package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanastassiou/seneschal/internal/kv"
	"github.com/vanastassiou/seneschal/internal/oauth"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeFile is one object held by the fake Drive backend.
type fakeFile struct {
	ID       string
	Name     string
	MimeType string
	Parent   string
	Content  []byte
}

// fakeDrive is a minimal in-memory stand-in for the Drive v3 endpoints the
// provider uses.
type fakeDrive struct {
	mu       sync.Mutex
	files    map[string]*fakeFile
	nextID   int
	listHits int
	failList int // when non-zero, lists fail with this HTTP status
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: make(map[string]*fakeFile)}
}

func (d *fakeDrive) add(name, mimeType, parent string, content []byte) *fakeFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	f := &fakeFile{
		ID:       fmt.Sprintf("fid-%d", d.nextID),
		Name:     name,
		MimeType: mimeType,
		Parent:   parent,
		Content:  content,
	}
	d.files[f.ID] = f
	return f
}

func (d *fakeDrive) byName(name string) *fakeFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

var (
	reName     = regexp.MustCompile(`name = '((?:[^'\\]|\\.)*)'`)
	reContains = regexp.MustCompile(`name contains '([^']+)'`)
	reParent   = regexp.MustCompile(`'([^']+)' in parents`)
	reMime     = regexp.MustCompile(`mimeType = '([^']+)'`)
)

func (d *fakeDrive) handler(t *testing.T) http.Handler {
	type fileJSON struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		MimeType     string   `json:"mimeType,omitempty"`
		ModifiedTime string   `json:"modifiedTime,omitempty"`
		Parents      []string `json:"parents,omitempty"`
	}

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
			return
		}

		switch {
		// files.list
		case r.Method == http.MethodGet && r.URL.Path == "/api/files":
			d.mu.Lock()
			d.listHits++
			fail := d.failList
			d.mu.Unlock()
			if fail != 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(fail)
				w.Write([]byte(`{"error":{"code":403,"message":"Rate limit exceeded"}}`))
				return
			}

			q := r.URL.Query().Get("q")
			var out []fileJSON
			d.mu.Lock()
			for _, f := range d.files {
				if m := reName.FindStringSubmatch(q); m != nil && f.Name != strings.ReplaceAll(m[1], `\'`, "'") {
					continue
				}
				if m := reContains.FindStringSubmatch(q); m != nil && !strings.Contains(f.Name, m[1]) {
					continue
				}
				if m := reParent.FindStringSubmatch(q); m != nil && f.Parent != m[1] {
					continue
				}
				if m := reMime.FindStringSubmatch(q); m != nil && f.MimeType != m[1] {
					continue
				}
				out = append(out, fileJSON{
					ID: f.ID, Name: f.Name, MimeType: f.MimeType,
					ModifiedTime: testNow.Format(time.RFC3339),
				})
			}
			d.mu.Unlock()
			writeJSON(w, map[string]any{"files": out})

		// multipart create
		case r.Method == http.MethodPost && r.URL.Path == "/upload/files":
			_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			require.NoError(t, err)
			mr := multipart.NewReader(r.Body, params["boundary"])

			metaPart, err := mr.NextPart()
			require.NoError(t, err)
			var meta fileJSON
			require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))

			mediaPart, err := mr.NextPart()
			require.NoError(t, err)
			content, err := io.ReadAll(mediaPart)
			require.NoError(t, err)

			parent := ""
			if len(meta.Parents) > 0 {
				parent = meta.Parents[0]
			}
			f := d.add(meta.Name, mediaPart.Header.Get("Content-Type"), parent, content)
			writeJSON(w, fileJSON{ID: f.ID, Name: f.Name})

		// metadata-only create (folders)
		case r.Method == http.MethodPost && r.URL.Path == "/api/files":
			var meta fileJSON
			require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
			parent := ""
			if len(meta.Parents) > 0 {
				parent = meta.Parents[0]
			}
			f := d.add(meta.Name, meta.MimeType, parent, nil)
			writeJSON(w, fileJSON{ID: f.ID, Name: f.Name})

		// media update
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/upload/files/"):
			id := strings.TrimPrefix(r.URL.Path, "/upload/files/")
			content, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			d.mu.Lock()
			f, ok := d.files[id]
			if ok {
				f.Content = content
			}
			d.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(w, fileJSON{ID: id})

		// download
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/files/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/files/")
			d.mu.Lock()
			f, ok := d.files[id]
			d.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(f.Content)

		// delete
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/files/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/files/")
			d.mu.Lock()
			delete(d.files, id)
			d.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusTeapot)
		}
	})
}

func newTestProvider(t *testing.T) (*Provider, *fakeDrive) {
	t.Helper()

	drive := newFakeDrive()
	srv := httptest.NewServer(drive.handler(t))
	t.Cleanup(srv.Close)

	store := kv.NewMemStore()
	auth := oauth.New(store, &oauth.Options{
		Now: func() time.Time { return testNow },
	})
	authReq := &oauth.AuthRequest{Provider: "gdrive", ClientID: "client-1"}
	require.NoError(t, auth.Tokens().Save("gdrive", &oauth.Token{
		AccessToken: "test-token",
		ExpiresAt:   testNow.Add(time.Hour).UnixMilli(),
	}))

	provider := New("notes", auth, authReq, store, &Options{
		APIURL:    srv.URL + "/api",
		UploadURL: srv.URL + "/upload",
		Now:       func() time.Time { return testNow },
	})
	return provider, drive
}

func selectTestFolder(t *testing.T, p *Provider, d *fakeDrive) *fakeFile {
	t.Helper()
	folder := d.add("Apps", mimeFolder, "", nil)
	require.NoError(t, p.SelectFolder(&Folder{ID: folder.ID, Name: folder.Name}))
	return folder
}

func TestProvider_FailsFastWhenNotAuthenticated(t *testing.T) {
	provider, drive := newTestProvider(t)
	require.NoError(t, provider.Disconnect())
	require.NoError(t, provider.SelectFolder(&Folder{ID: "f1", Name: "Apps"}))

	_, _, err := provider.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	err = provider.Push(context.Background(), []any{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = provider.ListAttachments(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, drive.listHits, "no network I/O before the auth check")
}

func TestProvider_RequiresFolder(t *testing.T) {
	provider, _ := newTestProvider(t)

	assert.False(t, provider.IsFolderConfigured())

	_, _, err := provider.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoFolderConfigured)

	err = provider.Push(context.Background(), []any{})
	assert.ErrorIs(t, err, ErrNoFolderConfigured)

	_, err = provider.ListAllDomainFiles(context.Background())
	assert.ErrorIs(t, err, ErrNoFolderConfigured)
}

func TestProvider_FetchFirstSyncCreatesEmptyFile(t *testing.T) {
	provider, drive := newTestProvider(t)
	selectTestFolder(t, provider, drive)

	data, lastModified, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, lastModified)

	created := drive.byName("notes-data.json")
	require.NotNil(t, created, "first fetch creates the remote data object")
	assert.Empty(t, created.Content)
}

func TestProvider_PushFetchRoundTrip(t *testing.T) {
	provider, drive := newTestProvider(t)
	selectTestFolder(t, provider, drive)

	snapshot := []any{
		map[string]any{"id": "r1", "updatedAt": "2025-01-01T00:00:00Z", "title": "hello"},
	}
	require.NoError(t, provider.Push(context.Background(), snapshot))

	file := drive.byName("notes-data.json")
	require.NotNil(t, file)
	firstContent := string(file.Content)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(file.Content, &doc))
	assert.Equal(t, "notes", doc["domain"])
	assert.Equal(t, float64(remoteDocVersion), doc["version"])
	assert.NotEmpty(t, doc["lastModified"])

	// pushing the same payload again leaves the same remote state
	require.NoError(t, provider.Push(context.Background(), snapshot))
	assert.Equal(t, firstContent, string(drive.byName("notes-data.json").Content))

	data, lastModified, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, data)
	assert.Equal(t, testNow.UTC().Format(time.RFC3339), lastModified)
}

func TestProvider_CachesDataFileID(t *testing.T) {
	provider, drive := newTestProvider(t)
	selectTestFolder(t, provider, drive)

	_, _, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	hitsAfterFirst := drive.listHits

	_, _, err = provider.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hitsAfterFirst, drive.listHits, "second fetch reuses the cached file id")

	// changing the folder invalidates the cache
	other := drive.add("Other", mimeFolder, "", nil)
	require.NoError(t, provider.SelectFolder(&Folder{ID: other.ID, Name: other.Name}))
	_, _, err = provider.Fetch(context.Background())
	require.NoError(t, err)
	assert.Greater(t, drive.listHits, hitsAfterFirst)
}

func TestProvider_ApiErrorCarriesBackendMessage(t *testing.T) {
	provider, drive := newTestProvider(t)
	selectTestFolder(t, provider, drive)
	drive.failList = http.StatusForbidden

	_, _, err := provider.Fetch(context.Background())
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusForbidden, provErr.Status)
	assert.Equal(t, "Rate limit exceeded", provErr.Message)
}

func TestProvider_Attachments(t *testing.T) {
	provider, drive := newTestProvider(t)
	selectTestFolder(t, provider, drive)
	ctx := context.Background()

	att, err := provider.UploadAttachment(ctx, "att1", "report.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "att1", att.ID)
	assert.Equal(t, "report.pdf", att.Filename)

	require.NotNil(t, drive.byName("att1-report.pdf"))
	require.NotNil(t, drive.byName(attachmentsFolderName), "attachments folder chain is created")
	require.NotNil(t, drive.byName("notes"))

	// a filename with its own dashes splits on the first one only
	_, err = provider.UploadAttachment(ctx, "att2", "q3-summary-final.txt", []byte("text"))
	require.NoError(t, err)

	list, err := provider.ListAttachments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := map[string]Attachment{}
	for _, a := range list {
		byID[a.ID] = a
	}
	assert.Equal(t, "report.pdf", byID["att1"].Filename)
	assert.Equal(t, "q3-summary-final.txt", byID["att2"].Filename)

	gotAtt, content, err := provider.DownloadAttachment(ctx, "att1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", gotAtt.Filename)
	assert.Equal(t, []byte("pdf-bytes"), content)

	require.NoError(t, provider.DeleteAttachment(ctx, "att1"))
	assert.Nil(t, drive.byName("att1-report.pdf"))

	_, _, err = provider.DownloadAttachment(ctx, "att1")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestSplitAttachmentName_NoDelimiter(t *testing.T) {
	att := splitAttachmentName("plainname")
	assert.Empty(t, att.ID)
	assert.Equal(t, "plainname", att.Filename)
}

func TestProvider_ListAllDomainFiles(t *testing.T) {
	provider, drive := newTestProvider(t)
	folder := selectTestFolder(t, provider, drive)

	drive.add("notes-data.json", mimeJSON, folder.ID, []byte(`{}`))
	drive.add("recipes-data.json", mimeJSON, folder.ID, []byte(`{}`))
	drive.add("unrelated.txt", "text/plain", folder.ID, nil)

	files, err := provider.ListAllDomainFiles(context.Background())
	require.NoError(t, err)

	domains := make([]string, 0, len(files))
	for _, f := range files {
		domains = append(domains, f.Domain)
	}
	assert.ElementsMatch(t, []string{"notes", "recipes"}, domains)
}

func TestProvider_FetchDomainData(t *testing.T) {
	provider, drive := newTestProvider(t)
	folder := selectTestFolder(t, provider, drive)

	doc := `{"domain":"recipes","version":1,"data":{"updatedAt":"2025-01-01T00:00:00Z","name":"pie"},"lastModified":"2025-01-01T00:00:00Z"}`
	drive.add("recipes-data.json", mimeJSON, folder.ID, []byte(doc))

	data := provider.FetchDomainData(context.Background(), "recipes")
	require.NotNil(t, data)
	assert.Equal(t, "pie", data.(map[string]any)["name"])

	// every failure mode degrades to nil
	assert.Nil(t, provider.FetchDomainData(context.Background(), "missing"))
	drive.failList = http.StatusForbidden
	assert.Nil(t, provider.FetchDomainData(context.Background(), "recipes"))
}

func TestProvider_ConnectAndCallbackDelegation(t *testing.T) {
	provider, _ := newTestProvider(t)

	url, err := provider.Connect()
	require.NoError(t, err)
	assert.Contains(t, url, "response_type=code")

	assert.True(t, provider.IsConnected())
	require.NoError(t, provider.Disconnect())
	assert.False(t, provider.IsConnected())
}
