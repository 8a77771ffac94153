// Package clickup implements board.Board over the ClickUp REST API.
package clickup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rotisserie/eris"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/errors"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

const maxErrorBody = 512

// Client talks to the ClickUp API.
type Client struct {
	client  *client.Client
	baseURL string
	token   string
	timeout time.Duration
}

// NewClient returns a Client. timeout bounds each request; zero means 30s.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, eris.Wrap(err, "clickup: create http client")
	}
	return &Client{client: c, baseURL: base, token: token, timeout: timeout}, nil
}

// normalizeBaseURL adds a scheme when missing and drops trailing slashes.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid api url: %q", raw))
	}
	return strings.TrimRight(u.String(), "/"), nil
}

type taskList struct {
	Tasks []board.Record `json:"tasks"`
}

type createdTask struct {
	ID string `json:"id"`
}

type fieldValue struct {
	Value any `json:"value"`
}

// SampleRecords fetches the first page of tasks on listID and returns at
// most limit of them.
func (c *Client) SampleRecords(ctx context.Context, listID string, limit int, includeClosed bool) ([]board.Record, error) {
	q := url.Values{}
	q.Set("page", "0")
	q.Set("include_closed", fmt.Sprintf("%t", includeClosed))
	uri := fmt.Sprintf("%s/list/%s/task?%s", c.baseURL, url.PathEscape(listID), q.Encode())

	body, err := c.do(ctx, "sample tasks", consts.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	var out taskList
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "clickup: decode task list")
	}
	if limit >= 0 && len(out.Tasks) > limit {
		out.Tasks = out.Tasks[:limit]
	}
	return out.Tasks, nil
}

// CreateRecord creates a task on listID.
func (c *Client) CreateRecord(ctx context.Context, listID string, p board.Payload) (string, error) {
	payload, err := sonic.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "clickup: encode task")
	}
	uri := fmt.Sprintf("%s/list/%s/task", c.baseURL, url.PathEscape(listID))

	body, err := c.do(ctx, "create task", consts.MethodPost, uri, payload)
	if err != nil {
		return "", err
	}
	var out createdTask
	if err := sonic.Unmarshal(body, &out); err != nil {
		return "", eris.Wrap(err, "clickup: decode created task")
	}
	if out.ID == "" {
		return "", eris.New("clickup: create task returned no id")
	}
	return out.ID, nil
}

// UpdateRecord sets each custom field of p on taskID, one call per field.
// The name and description of p are not sent.
func (c *Client) UpdateRecord(ctx context.Context, taskID string, p board.Payload) error {
	for _, cf := range p.CustomFields {
		payload, err := sonic.Marshal(fieldValue{Value: cf.Value})
		if err != nil {
			return eris.Wrap(err, "clickup: encode field value")
		}
		uri := fmt.Sprintf("%s/task/%s/field/%s", c.baseURL, url.PathEscape(taskID), url.PathEscape(cf.ID))
		if _, err := c.do(ctx, "set field", consts.MethodPost, uri, payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, uri string, payload []byte) ([]byte, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.Set("Authorization", c.token)
	if payload != nil {
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(payload)
	}

	if err := c.client.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return nil, eris.Wrapf(err, "clickup: %s", op)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		body := string(resp.Body())
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, errors.NewUpstream(op, status, body)
	}
	// resp is released on return.
	return append([]byte(nil), resp.Body()...), nil
}

var _ board.Board = (*Client)(nil)
