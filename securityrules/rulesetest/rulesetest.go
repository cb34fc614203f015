// Package rulesetest supports tests that create rulesets against a live
// service. A Harness tracks every ruleset a test run creates and deletes
// them all at teardown, so aborted runs do not strand rulesets in the
// project.
package rulesetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/aegisrules/aegis/securityrules"
)

// Harness owns the pending-delete list for one test run.
type Harness struct {
	mu      sync.Mutex
	client  *securityrules.Client
	pending []string
}

// New returns a Harness that cleans up through the given client.
func New(client *securityrules.Client) *Harness {
	return &Harness{client: client}
}

// Client returns the client the harness was built with.
func (h *Harness) Client() *securityrules.Client {
	return h.client
}

// Create submits files through the harness client and schedules the
// resulting ruleset for cleanup.
func (h *Harness) Create(ctx context.Context, files ...securityrules.RulesFile) (*securityrules.Ruleset, error) {
	ruleset, err := h.client.CreateRuleset(ctx, files...)
	if err != nil {
		return nil, err
	}
	h.Schedule(ruleset.Name)
	return ruleset, nil
}

// Schedule registers a ruleset name for deletion at cleanup. Scheduling the
// same name repeatedly holds it once.
func (h *Harness) Schedule(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.pending {
		if existing == name {
			return
		}
	}
	h.pending = append(h.pending, name)
}

// Unschedule drops a name from the pending list. Tests that delete a
// ruleset themselves call this so cleanup does not attempt a second delete
// that can only fail.
func (h *Harness) Unschedule(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.pending {
		if existing == name {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			return
		}
	}
}

// Pending returns a copy of the names currently scheduled, in insertion
// order.
func (h *Harness) Pending() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.pending))
	copy(out, h.pending)
	return out
}

// Cleanup deletes every scheduled ruleset. The pending list is cleared
// before any delete is issued, the deletes run concurrently, and individual
// failures are logged but never acted on, so one stuck ruleset cannot
// strand the rest or leak into a later run.
func (h *Harness) Cleanup(ctx context.Context) {
	h.mu.Lock()
	names := h.pending
	h.pending = nil
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := h.client.DeleteRuleset(ctx, name); err != nil {
				logrus.WithField("ruleset", name).WithError(err).Warn("cleanup delete failed")
			}
		}(name)
	}
	wg.Wait()
}

// maxListPages bounds a ListAll walk; a token chain longer than this is a
// service bug, not a big project.
const maxListPages = 1000

// ListAll walks the metadata listing in pageSize chunks until the token
// chain ends and returns every record seen. It errors if the service hands
// back an oversized page or a chain that never terminates.
func ListAll(ctx context.Context, client *securityrules.Client, pageSize int) ([]securityrules.RulesetMetadata, error) {
	var all []securityrules.RulesetMetadata
	token := ""
	for pages := 0; ; pages++ {
		if pages >= maxListPages {
			return nil, fmt.Errorf("listing did not terminate after %d pages", maxListPages)
		}

		page, err := client.ListRulesetMetadata(ctx, pageSize, token)
		if err != nil {
			return nil, err
		}
		if pageSize > 0 && len(page.Rulesets) > pageSize {
			return nil, fmt.Errorf("page holds %d rulesets, want at most %d", len(page.Rulesets), pageSize)
		}

		all = append(all, page.Rulesets...)
		token = page.NextPageToken
		if token == "" {
			return all, nil
		}
	}
}

// RequireValidRulesetName asserts that name is a well-formed ruleset
// identifier.
func RequireValidRulesetName(t require.TestingT, name string) {
	require.True(t, securityrules.ValidRulesetName(name),
		"ruleset name %q must match [0-9a-zA-Z-]+", name)
}

// RequireStableUTCTime asserts that createTime parses and that re-rendering
// the parsed value reproduces the original string byte for byte.
func RequireStableUTCTime(t require.TestingT, createTime string) {
	parsed, err := securityrules.ParseCreateTime(createTime)
	require.NoError(t, err, "createTime %q must parse", createTime)
	require.Equal(t, createTime, securityrules.FormatCreateTime(parsed),
		"createTime %q must survive a UTC round trip", createTime)
}
