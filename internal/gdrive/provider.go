// Package gdrive adapts the sync engine's data and attachment operations to
// the Google Drive REST surface. Discovered resource ids (the domain's data
// file, the attachments folder) are cached on the provider and invalidated
// whenever the configured sync folder changes.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/imroc/req/v3"

	"github.com/vanastassiou/seneschal/internal/jsonx"
	"github.com/vanastassiou/seneschal/internal/kv"
	"github.com/vanastassiou/seneschal/internal/oauth"
)

const (
	folderKey = "syncfolder"

	dataFileSuffix        = "-data.json"
	attachmentsFolderName = "attachments"

	remoteDocVersion = 1
)

// Options configures a Provider. Zero values pick the public Drive endpoints,
// a default HTTP client and the wall clock.
type Options struct {
	APIURL    string
	UploadURL string
	Client    *req.Client
	Now       func() time.Time
}

// Provider syncs one domain's data against Google Drive. A process owns one
// Provider per domain; the id cache is single-writer and process-local.
type Provider struct {
	domain  string
	auth    *oauth.Authenticator
	authReq *oauth.AuthRequest
	store   kv.Store
	client  *driveClient
	now     func() time.Time

	mu            sync.Mutex
	dataFileID    string
	attachmentsID string
}

// New creates a Provider for the domain. opts may be nil.
func New(domain string, auth *oauth.Authenticator, authReq *oauth.AuthRequest, store kv.Store, opts *Options) *Provider {
	if opts == nil {
		opts = &Options{}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Provider{
		domain:  domain,
		auth:    auth,
		authReq: authReq,
		store:   store,
		client:  newDriveClient(auth, authReq, opts.Client, opts.APIURL, opts.UploadURL),
		now:     now,
	}
}

// Domain returns the domain this provider syncs.
func (p *Provider) Domain() string {
	return p.domain
}

// IsConnected reports whether a usable or refreshable token exists.
func (p *Provider) IsConnected() bool {
	return p.auth.IsAuthenticated(p.authReq.Provider)
}

// Connect starts the authorization flow and returns the URL the user agent
// must visit.
func (p *Provider) Connect() (string, error) {
	return p.auth.BeginAuth(p.authReq)
}

// HandleAuthCallback completes the authorization flow from the redirect's
// query parameters.
func (p *Provider) HandleAuthCallback(ctx context.Context, query url.Values) error {
	return p.auth.HandleCallback(ctx, p.authReq, query)
}

// HasAuthCallback reports whether the query carries an authorization callback.
func (p *Provider) HasAuthCallback(query url.Values) bool {
	return p.auth.HasCallback(query)
}

// Disconnect logs out and drops the cached resource ids.
func (p *Provider) Disconnect() error {
	p.invalidateCache()
	return p.auth.Logout(p.authReq.Provider)
}

// IsFolderConfigured reports whether a sync folder has been selected.
func (p *Provider) IsFolderConfigured() bool {
	folder, err := p.Folder()
	return err == nil && folder != nil
}

// Folder returns the selected sync folder, or nil when none is set.
func (p *Provider) Folder() (*Folder, error) {
	data, err := p.store.Get(folderKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var folder Folder
	if err := jsonx.Unmarshal(data, &folder); err != nil {
		return nil, fmt.Errorf("unmarshal folder: %w", err)
	}
	return &folder, nil
}

// SelectFolder records the sync container. Previously discovered data-file
// and attachments-folder ids are invalid once the container changes.
func (p *Provider) SelectFolder(folder *Folder) error {
	data, err := jsonx.Marshal(folder)
	if err != nil {
		return fmt.Errorf("marshal folder: %w", err)
	}
	if err := p.store.Set(folderKey, data); err != nil {
		return err
	}
	p.invalidateCache()
	slog.Info("sync folder selected", "domain", p.domain, "folder", folder.Name)
	return nil
}

// RemoveFolder clears the selection and the id cache.
func (p *Provider) RemoveFolder() error {
	if err := p.store.Delete(folderKey); err != nil {
		return err
	}
	p.invalidateCache()
	return nil
}

// ListFolders enumerates folders the token can see, for folder selection.
func (p *Provider) ListFolders(ctx context.Context) ([]Folder, error) {
	files, err := p.client.listFiles(ctx,
		fmt.Sprintf("mimeType = '%s' and trashed = false", mimeFolder))
	if err != nil {
		return nil, err
	}

	folders := make([]Folder, 0, len(files))
	for _, f := range files {
		folders = append(folders, Folder{ID: f.ID, Name: f.Name})
	}
	return folders, nil
}

// Fetch downloads the domain's remote document, returning its data payload
// and lastModified stamp. A missing or unparseable remote object is a normal
// first-sync state and yields nil data, not an error.
func (p *Provider) Fetch(ctx context.Context) (data any, lastModified string, err error) {
	fileID, err := p.ensureDataFile(ctx)
	if err != nil {
		return nil, "", err
	}

	raw, err := p.client.download(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	var doc RemoteDocument
	if err := jsonx.Unmarshal(raw, &doc); err != nil {
		slog.Debug("remote document unparseable, treating as empty", "domain", p.domain)
		return nil, "", nil
	}

	return doc.Data, doc.LastModified, nil
}

// Push overwrites the domain's remote document with the given snapshot.
// Pushing the same snapshot twice produces the same remote state.
func (p *Provider) Push(ctx context.Context, data any) error {
	fileID, err := p.ensureDataFile(ctx)
	if err != nil {
		return err
	}

	doc := RemoteDocument{
		Domain:       p.domain,
		Version:      remoteDocVersion,
		Data:         data,
		LastModified: p.now().UTC().Format(time.RFC3339),
	}
	payload, err := jsonx.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal remote document: %w", err)
	}

	if err := p.client.updateContent(ctx, fileID, payload, mimeJSON); err != nil {
		return err
	}

	slog.Debug("pushed remote document", "domain", p.domain, "bytes", len(payload))
	return nil
}

// ListAllDomainFiles enumerates every "*-data.json" object in the sync
// folder, across all domains sharing it.
func (p *Provider) ListAllDomainFiles(ctx context.Context) ([]DomainFile, error) {
	folder, err := p.requireFolder()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("name contains '%s' and '%s' in parents and trashed = false",
		dataFileSuffix, escapeQuery(folder.ID))
	files, err := p.client.listFiles(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]DomainFile, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(f.Name, dataFileSuffix) {
			continue
		}
		out = append(out, DomainFile{
			Domain:       strings.TrimSuffix(f.Name, dataFileSuffix),
			FileID:       f.ID,
			Name:         f.Name,
			LastModified: f.ModifiedTime,
		})
	}
	return out, nil
}

// FetchDomainData reads another domain's document from the shared folder.
// It degrades to nil on any failure; aggregation consumers render what they
// can reach and skip the rest.
func (p *Provider) FetchDomainData(ctx context.Context, domain string) any {
	folder, err := p.requireFolder()
	if err != nil {
		return nil
	}

	file, err := p.client.findFile(ctx, domain+dataFileSuffix, folder.ID)
	if err != nil || file == nil {
		return nil
	}

	raw, err := p.client.download(ctx, file.ID)
	if err != nil {
		return nil
	}

	var doc RemoteDocument
	if err := jsonx.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc.Data
}

// UploadAttachment stores binary content as "{id}-{filename}" in the
// domain's attachments folder.
func (p *Provider) UploadAttachment(ctx context.Context, attachmentID, filename string, content []byte) (*Attachment, error) {
	folderID, err := p.ensureAttachmentsFolder(ctx)
	if err != nil {
		return nil, err
	}

	name := attachmentID + "-" + filename
	created, err := p.client.createFile(ctx, name, folderID, content, mimeBinary)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		ID:       attachmentID,
		Filename: filename,
		FileID:   created.ID,
		Size:     int64(len(content)),
	}, nil
}

// DownloadAttachment returns an attachment's metadata and content.
func (p *Provider) DownloadAttachment(ctx context.Context, attachmentID string) (*Attachment, []byte, error) {
	att, err := p.findAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	content, err := p.client.download(ctx, att.FileID)
	if err != nil {
		return nil, nil, err
	}
	return att, content, nil
}

// DeleteAttachment removes an attachment by id.
func (p *Provider) DeleteAttachment(ctx context.Context, attachmentID string) error {
	att, err := p.findAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	return p.client.deleteFile(ctx, att.FileID)
}

// ListAttachments enumerates the domain's attachments.
func (p *Provider) ListAttachments(ctx context.Context) ([]Attachment, error) {
	folderID, err := p.ensureAttachmentsFolder(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	files, err := p.client.listFiles(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Attachment, 0, len(files))
	for _, f := range files {
		att := splitAttachmentName(f.Name)
		att.FileID = f.ID
		out = append(out, att)
	}
	return out, nil
}

// splitAttachmentName recovers id and filename from the "{id}-{filename}"
// convention. The first '-' is the delimiter; a name without one is all
// filename.
func splitAttachmentName(name string) Attachment {
	parts := strings.SplitN(name, "-", 2)
	if len(parts) == 2 {
		return Attachment{ID: parts[0], Filename: parts[1]}
	}
	return Attachment{Filename: name}
}

func (p *Provider) findAttachment(ctx context.Context, attachmentID string) (*Attachment, error) {
	attachments, err := p.ListAttachments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range attachments {
		if attachments[i].ID == attachmentID {
			return &attachments[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAttachmentNotFound, attachmentID)
}

// requireFolder fails folder-dependent operations before any network I/O.
func (p *Provider) requireFolder() (*Folder, error) {
	if !p.IsConnected() {
		return nil, ErrNotAuthenticated
	}
	folder, err := p.Folder()
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, ErrNoFolderConfigured
	}
	return folder, nil
}

// ensureDataFile resolves (creating on first use) the domain's data file and
// caches its id. A freshly created file is empty, which Fetch reads as the
// no-remote-data-yet state.
func (p *Provider) ensureDataFile(ctx context.Context) (string, error) {
	folder, err := p.requireFolder()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	cached := p.dataFileID
	p.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	name := p.domain + dataFileSuffix
	file, err := p.client.findFile(ctx, name, folder.ID)
	if err != nil {
		return "", err
	}

	var fileID string
	if file != nil {
		fileID = file.ID
	} else {
		created, err := p.client.createFile(ctx, name, folder.ID, nil, mimeJSON)
		if err != nil {
			return "", err
		}
		fileID = created.ID
		slog.Info("created remote data file", "domain", p.domain, "name", name)
	}

	p.mu.Lock()
	p.dataFileID = fileID
	p.mu.Unlock()
	return fileID, nil
}

// ensureAttachmentsFolder resolves (creating on first use) the
// "attachments/{domain}" folder chain and caches the leaf id.
func (p *Provider) ensureAttachmentsFolder(ctx context.Context) (string, error) {
	folder, err := p.requireFolder()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	cached := p.attachmentsID
	p.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	parentID, err := p.findOrCreateFolder(ctx, attachmentsFolderName, folder.ID)
	if err != nil {
		return "", err
	}
	leafID, err := p.findOrCreateFolder(ctx, p.domain, parentID)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.attachmentsID = leafID
	p.mu.Unlock()
	return leafID, nil
}

func (p *Provider) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	file, err := p.client.findFile(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if file != nil {
		return file.ID, nil
	}

	created, err := p.client.createFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (p *Provider) invalidateCache() {
	p.mu.Lock()
	p.dataFileID = ""
	p.attachmentsID = ""
	p.mu.Unlock()
}
