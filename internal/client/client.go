// Package client talks to the leadaudit HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"leadaudit/internal/report"
	"leadaudit/internal/setup"
	"leadaudit/pkg/models"
)

const DefaultBaseURL = "http://localhost:8080"

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Code returns the machine readable code of an API error, or "".
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Code = e.Error, e.Code
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	payload := map[string]string{"email": email, "password": password, "name": name}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/create-user", payload, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/auth/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListProspects(ctx context.Context, q string) ([]models.Prospect, error) {
	path := "/prospects"
	if q != "" {
		path += "?q=" + url.QueryEscape(q)
	}
	var out struct {
		Prospects []models.Prospect `json:"prospects"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Prospects, nil
}

type ProspectDetails struct {
	Prospect *models.Prospect `json:"prospect"`
	Audit    *models.Audit    `json:"audit"`
	Assets   []models.Asset   `json:"assets"`
}

func (c *Client) GetProspect(ctx context.Context, id string) (*ProspectDetails, error) {
	var out ProspectDetails
	if err := c.doJSON(ctx, http.MethodGet, "/prospects/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckSlug(ctx context.Context, slug string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/prospects/check-slug/"+url.PathEscape(slug), nil, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *Client) CreateProspect(ctx context.Context, p models.Prospect) (*models.Prospect, error) {
	var out struct {
		Prospect models.Prospect `json:"prospect"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/prospects", p, &out); err != nil {
		return nil, err
	}
	return &out.Prospect, nil
}

func (c *Client) UpdateProspect(ctx context.Context, id string, patch models.ProspectPatch) (*models.Prospect, error) {
	var out struct {
		Prospect models.Prospect `json:"prospect"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/prospects/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out.Prospect, nil
}

func (c *Client) DeleteProspect(ctx context.Context, id string) (*models.Prospect, error) {
	var out struct {
		DeletedProspect models.Prospect `json:"deletedProspect"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/prospects/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.DeletedProspect, nil
}

type EditorScore struct {
	Coarse      int    `json:"coarse"`
	CoarseLabel string `json:"coarse_label"`
	Overall     int    `json:"overall"`
	Band        string `json:"band"`
}

type EditorView struct {
	Prospect    *models.Prospect          `json:"prospect"`
	Published   bool                      `json:"published"`
	Audit       models.Audit              `json:"audit"`
	Screenshots map[string][]models.Asset `json:"screenshots"`
	Score       EditorScore               `json:"score"`
}

func (c *Client) Editor(ctx context.Context, prospectID string) (*EditorView, error) {
	var out EditorView
	if err := c.doJSON(ctx, http.MethodGet, "/prospects/"+url.PathEscape(prospectID)+"/editor", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PublishResult struct {
	Audit     models.Audit `json:"audit"`
	PublicURL string       `json:"public_url"`
}

// PublishAudit upserts a. A non-nil top replaces the prospect's
// opportunities text in the same request.
func (c *Client) PublishAudit(ctx context.Context, a models.Audit, top *string) (*PublishResult, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, err
	}
	if top != nil {
		payload["top_opportunities"] = *top
	}
	var out PublishResult
	if err := c.doJSON(ctx, http.MethodPost, "/audits", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UploadRequest struct {
	ProspectID  string
	CompanySlug string
	Label       string
	Kind        string
	Filename    string
	ContentType string
	Body        io.Reader
}

type UploadResult struct {
	Asset models.Asset `json:"asset"`
	URL   string       `json:"url"`
}

func (c *Client) Upload(ctx context.Context, in UploadRequest) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"prospect_id":  in.ProspectID,
		"company_slug": in.CompanySlug,
		"label":        in.Label,
		"kind":         in.Kind,
	} {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	if in.ContentType != "" {
		h.Set("Content-Type", in.ContentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var out UploadResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/assets/"+url.PathEscape(id), nil, nil)
}

// Report fetches the public report. A missing slug yields a not_found
// report rather than an error.
func (c *Client) Report(ctx context.Context, slug string) (*report.Report, error) {
	var out report.Report
	err := c.doJSON(ctx, http.MethodGet, "/reports/"+url.PathEscape(slug), nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return &report.Report{State: report.StateNotFound, Slug: slug}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reports(ctx context.Context) ([]report.IndexEntry, error) {
	var out struct {
		Reports []report.IndexEntry `json:"reports"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/reports", nil, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

func (c *Client) SetupStatus(ctx context.Context) (*setup.Status, error) {
	var out setup.Status
	if err := c.doJSON(ctx, http.MethodGet, "/setup/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
