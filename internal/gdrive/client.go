package gdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/vanastassiou/seneschal/internal/jsonx"
	"github.com/vanastassiou/seneschal/internal/oauth"
)

const (
	DefaultAPIURL    = "https://www.googleapis.com/drive/v3"
	DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3"

	fileFields = "files(id,name,mimeType,modifiedTime,size)"
	pageSize   = "1000"
)

// driveClient is the REST glue for the Drive v3 surface this package needs.
// Every call resolves a bearer token first and fails fast with
// ErrNotAuthenticated before touching the network.
type driveClient struct {
	http      *req.Client
	auth      *oauth.Authenticator
	authReq   *oauth.AuthRequest
	apiURL    string
	uploadURL string
}

func newDriveClient(auth *oauth.Authenticator, authReq *oauth.AuthRequest, client *req.Client, apiURL, uploadURL string) *driveClient {
	if client == nil {
		client = req.C().
			SetCommonRetryCount(2).
			SetCommonRetryFixedInterval(1 * time.Second).
			SetJsonMarshal(jsonx.Marshal).
			SetJsonUnmarshal(jsonx.Unmarshal)
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	return &driveClient{
		http:      client,
		auth:      auth,
		authReq:   authReq,
		apiURL:    apiURL,
		uploadURL: uploadURL,
	}
}

// request returns a request primed with the bearer token and context.
func (c *driveClient) request(ctx context.Context) (*req.Request, error) {
	token, err := c.auth.AccessToken(ctx, c.authReq)
	if errors.Is(err, oauth.ErrNotAuthenticated) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("gdrive: resolve token: %w", err)
	}

	return c.http.R().
		SetContext(ctx).
		SetBearerAuthToken(token).
		SetErrorResult(&driveErrorBody{}), nil
}

// listFiles runs a files.list query and returns all matches.
func (c *driveClient) listFiles(ctx context.Context, query string) ([]driveFile, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var list driveFileList
	resp, err := r.
		SetQueryParam("q", query).
		SetQueryParam("fields", fileFields).
		SetQueryParam("pageSize", pageSize).
		SetSuccessResult(&list).
		Get(c.apiURL + "/files")
	if err := apiError(resp, err, "list files"); err != nil {
		return nil, err
	}

	return list.Files, nil
}

// findFile returns the first file with the exact name under the parent, or
// nil when none exists.
func (c *driveClient) findFile(ctx context.Context, name, parentID string) (*driveFile, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), escapeQuery(parentID))
	files, err := c.listFiles(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return &files[0], nil
}

// createFile uploads a new file with metadata and content in one
// multipart/related request.
func (c *driveClient) createFile(ctx context.Context, name, parentID string, content []byte, mime string) (*driveFile, error) {
	meta := driveFile{Name: name, Parents: []string{parentID}}
	body, contentType, err := multipartRelated(&meta, content, mime)
	if err != nil {
		return nil, fmt.Errorf("gdrive: encode upload: %w", err)
	}

	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var created driveFile
	resp, err := r.
		SetQueryParam("uploadType", "multipart").
		SetQueryParam("fields", "id,name,modifiedTime").
		SetContentType(contentType).
		SetBodyBytes(body).
		SetSuccessResult(&created).
		Post(c.uploadURL + "/files")
	if err := apiError(resp, err, "create file"); err != nil {
		return nil, err
	}

	return &created, nil
}

// createFolder creates a folder under the parent (or in the Drive root when
// parentID is empty).
func (c *driveClient) createFolder(ctx context.Context, name, parentID string) (*driveFile, error) {
	meta := driveFile{Name: name, MimeType: mimeFolder}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var created driveFile
	resp, err := r.
		SetQueryParam("fields", "id,name").
		SetBody(&meta).
		SetSuccessResult(&created).
		Post(c.apiURL + "/files")
	if err := apiError(resp, err, "create folder"); err != nil {
		return nil, err
	}

	return &created, nil
}

// updateContent overwrites a file's content in place.
func (c *driveClient) updateContent(ctx context.Context, fileID string, content []byte, mime string) error {
	r, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := r.
		SetQueryParam("uploadType", "media").
		SetContentType(mime).
		SetBodyBytes(content).
		Patch(c.uploadURL + "/files/" + fileID)
	return apiError(resp, err, "update file content")
}

// download returns a file's raw content.
func (c *driveClient) download(ctx context.Context, fileID string) ([]byte, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.
		SetQueryParam("alt", "media").
		Get(c.apiURL + "/files/" + fileID)
	if err := apiError(resp, err, "download file"); err != nil {
		return nil, err
	}

	return resp.Bytes(), nil
}

func (c *driveClient) deleteFile(ctx context.Context, fileID string) error {
	r, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := r.Delete(c.apiURL + "/files/" + fileID)
	return apiError(resp, err, "delete file")
}

// escapeQuery escapes a value for embedding in a Drive search query literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`)
}

// multipartRelated builds the two-part metadata+media body the Drive upload
// endpoint expects.
func multipartRelated(meta *driveFile, content []byte, mime string) ([]byte, string, error) {
	metaJSON, err := jsonx.Marshal(meta)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, "", err
	}

	mediaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mime},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := mediaPart.Write(content); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), "multipart/related; boundary=" + w.Boundary(), nil
}
