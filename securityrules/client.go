package securityrules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// jsonMarshalClient is a test hook for request marshaling.
var jsonMarshalClient = json.Marshal

var statusToCode = map[string]string{
	"INVALID_ARGUMENT":    CodeInvalidArgument,
	"NOT_FOUND":           CodeNotFound,
	"FAILED_PRECONDITION": CodeFailedPrecondition,
	"RESOURCE_EXHAUSTED":  CodeResourceExhausted,
	"INTERNAL":            CodeInternalError,
}

// Client talks to one project's ruleset store.
type Client struct {
	baseURL    string
	project    string
	httpClient *http.Client
}

// NewClient returns a client for the service at baseURL scoped to the given
// project.
func NewClient(baseURL, project string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		project:    project,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type sourcePayload struct {
	Files []RulesFile `json:"files"`
}

type rulesetPayload struct {
	Name       string         `json:"name"`
	CreateTime string         `json:"createTime"`
	Source     *sourcePayload `json:"source"`
}

type createRulesetPayload struct {
	Source sourcePayload `json:"source"`
}

type listPayload struct {
	Rulesets      []rulesetPayload `json:"rulesets"`
	NextPageToken string           `json:"nextPageToken"`
}

type releasePayload struct {
	Name        string `json:"name"`
	RulesetName string `json:"rulesetName"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
}

type errorPayload struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateRuleset submits the given source files as a new immutable ruleset
// and returns it with its server-assigned name.
func (c *Client) CreateRuleset(ctx context.Context, files ...RulesFile) (*Ruleset, error) {
	if len(files) == 0 {
		return nil, &Error{Code: CodeInvalidArgument, Message: "at least one rules file is required"}
	}
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, &Error{Code: CodeInvalidArgument, Message: "rules file name must not be empty"}
		}
	}

	var resp rulesetPayload
	body := createRulesetPayload{Source: sourcePayload{Files: files}}
	if err := c.do(ctx, http.MethodPost, c.rulesetsPath(), nil, body, &resp); err != nil {
		return nil, err
	}
	return rulesetFromPayload(&resp)
}

// GetRuleset fetches one ruleset, source included. The name is validated
// locally; a malformed name fails without a round trip.
func (c *Client) GetRuleset(ctx context.Context, name string) (*Ruleset, error) {
	if !ValidRulesetName(name) {
		return nil, invalidNameError(name)
	}

	var resp rulesetPayload
	if err := c.do(ctx, http.MethodGet, c.rulesetPath(name), nil, nil, &resp); err != nil {
		return nil, err
	}
	return rulesetFromPayload(&resp)
}

// DeleteRuleset permanently removes a ruleset. Rulesets bound to a release
// slot cannot be deleted until the slot is pointed elsewhere.
func (c *Client) DeleteRuleset(ctx context.Context, name string) error {
	if !ValidRulesetName(name) {
		return invalidNameError(name)
	}
	return c.do(ctx, http.MethodDelete, c.rulesetPath(name), nil, nil, nil)
}

// ListRulesetMetadata returns one page of the project's rulesets. A zero
// pageSize lets the service pick its default. Following NextPageToken until
// it comes back empty enumerates every ruleset that existed when the walk
// started, each exactly once.
func (c *Client) ListRulesetMetadata(ctx context.Context, pageSize int, pageToken string) (*RulesetMetadataList, error) {
	if pageSize < 0 {
		return nil, &Error{Code: CodeInvalidArgument, Message: "pageSize must not be negative"}
	}

	q := url.Values{}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp listPayload
	if err := c.do(ctx, http.MethodGet, c.rulesetsPath(), q, nil, &resp); err != nil {
		return nil, err
	}

	out := &RulesetMetadataList{
		Rulesets:      make([]RulesetMetadata, len(resp.Rulesets)),
		NextPageToken: resp.NextPageToken,
	}
	for i := range resp.Rulesets {
		md, err := metadataFromPayload(&resp.Rulesets[i])
		if err != nil {
			return nil, err
		}
		out.Rulesets[i] = md
	}
	return out, nil
}

// Ping checks that the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (c *Client) rulesetsPath() string {
	return fmt.Sprintf("/v1/projects/%s/rulesets", c.project)
}

func (c *Client) rulesetPath(name string) string {
	return c.rulesetsPath() + "/" + name
}

func (c *Client) releasePath(release string) string {
	return fmt.Sprintf("/v1/projects/%s/releases/%s", c.project, release)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		raw, err := jsonMarshalClient(body)
		if err != nil {
			return &Error{Code: CodeUnknownError, Message: fmt.Sprintf("marshal request: %v", err)}
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return &Error{Code: CodeUnknownError, Message: fmt.Sprintf("create request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: CodeServiceUnavailable, Message: fmt.Sprintf("execute request: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeServiceUnavailable, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: CodeInvalidServerResponse, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func errorFromResponse(status int, body []byte) *Error {
	var envelope errorPayload
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Status != "" {
		if code, ok := statusToCode[envelope.Error.Status]; ok {
			return &Error{Code: code, Message: envelope.Error.Message}
		}
		return &Error{Code: CodeUnknownError, Message: envelope.Error.Message}
	}
	return &Error{Code: CodeUnknownError, Message: fmt.Sprintf("unexpected status %d", status)}
}

func invalidNameError(name string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("ruleset name %q must match [0-9a-zA-Z-]+", name)}
}

// shortResourceName strips the projects/<p>/rulesets/ prefix the wire format
// carries, leaving the bare identifier the rest of the API works with.
func shortResourceName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func metadataFromPayload(p *rulesetPayload) (RulesetMetadata, error) {
	created, err := time.Parse(time.RFC3339Nano, p.CreateTime)
	if err != nil {
		return RulesetMetadata{}, &Error{
			Code:    CodeInvalidServerResponse,
			Message: fmt.Sprintf("malformed createTime %q in response", p.CreateTime),
		}
	}
	return RulesetMetadata{
		Name:       shortResourceName(p.Name),
		CreateTime: FormatCreateTime(created),
	}, nil
}

func rulesetFromPayload(p *rulesetPayload) (*Ruleset, error) {
	md, err := metadataFromPayload(p)
	if err != nil {
		return nil, err
	}

	ruleset := &Ruleset{RulesetMetadata: md}
	if p.Source != nil {
		ruleset.Source = append(ruleset.Source, p.Source.Files...)
	}
	return ruleset, nil
}
