package securityrules

import (
	"context"
	"net/http"
)

// Release slots the engines read their active ruleset from.
const (
	docstoreRelease  = "aegis.docstore"
	blobstoreRelease = "aegis.blobstore"
)

// GetDocstoreRuleset returns the ruleset currently enforced by the document
// database engine.
func (c *Client) GetDocstoreRuleset(ctx context.Context) (*Ruleset, error) {
	return c.getReleasedRuleset(ctx, docstoreRelease)
}

// GetBlobstoreRuleset returns the ruleset currently enforced by the object
// storage engine.
func (c *Client) GetBlobstoreRuleset(ctx context.Context) (*Ruleset, error) {
	return c.getReleasedRuleset(ctx, blobstoreRelease)
}

// ReleaseDocstoreRuleset makes an existing ruleset the active one for the
// document database engine and returns it. The previously active ruleset is
// displaced, not deleted.
func (c *Client) ReleaseDocstoreRuleset(ctx context.Context, name string) (*Ruleset, error) {
	return c.releaseRuleset(ctx, docstoreRelease, name)
}

// ReleaseBlobstoreRuleset makes an existing ruleset the active one for the
// object storage engine and returns it.
func (c *Client) ReleaseBlobstoreRuleset(ctx context.Context, name string) (*Ruleset, error) {
	return c.releaseRuleset(ctx, blobstoreRelease, name)
}

// ReleaseDocstoreRulesetFromSource creates a ruleset from raw source text
// and makes it the active one for the document database engine in one step.
func (c *Client) ReleaseDocstoreRulesetFromSource(ctx context.Context, source string) (*Ruleset, error) {
	return c.releaseFromSource(ctx, docstoreRelease, "docstore.rules", source)
}

// ReleaseBlobstoreRulesetFromSource creates a ruleset from raw source text
// and makes it the active one for the object storage engine in one step.
func (c *Client) ReleaseBlobstoreRulesetFromSource(ctx context.Context, source string) (*Ruleset, error) {
	return c.releaseFromSource(ctx, blobstoreRelease, "blobstore.rules", source)
}

func (c *Client) getReleasedRuleset(ctx context.Context, release string) (*Ruleset, error) {
	var resp releasePayload
	if err := c.do(ctx, http.MethodGet, c.releasePath(release), nil, nil, &resp); err != nil {
		return nil, err
	}
	return c.GetRuleset(ctx, shortResourceName(resp.RulesetName))
}

func (c *Client) releaseRuleset(ctx context.Context, release, name string) (*Ruleset, error) {
	if !ValidRulesetName(name) {
		return nil, invalidNameError(name)
	}

	var resp releasePayload
	body := struct {
		RulesetName string `json:"rulesetName"`
	}{RulesetName: name}
	if err := c.do(ctx, http.MethodPut, c.releasePath(release), nil, body, &resp); err != nil {
		return nil, err
	}
	return c.GetRuleset(ctx, shortResourceName(resp.RulesetName))
}

func (c *Client) releaseFromSource(ctx context.Context, release, filename, source string) (*Ruleset, error) {
	created, err := c.CreateRuleset(ctx, NewRulesFile(filename, source))
	if err != nil {
		return nil, err
	}
	if _, err := c.releaseRuleset(ctx, release, created.Name); err != nil {
		return nil, err
	}
	return created, nil
}
