package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/services"
)

type ruleFilePayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type rulesetSourcePayload struct {
	Files []ruleFilePayload `json:"files"`
}

type createRulesetRequest struct {
	Source rulesetSourcePayload `json:"source"`
}

// rulesetResponse is the wire form of a ruleset. List responses leave Source
// nil so pages stay small; Get and Create return the full source.
type rulesetResponse struct {
	Name       string                `json:"name"`
	CreateTime string                `json:"createTime"`
	Source     *rulesetSourcePayload `json:"source,omitempty"`
}

type listRulesetsResponse struct {
	Rulesets      []rulesetResponse `json:"rulesets"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

type RulesetHandler struct {
	service *services.RulesetService
}

func NewRulesetHandler(service *services.RulesetService) *RulesetHandler {
	return &RulesetHandler{service: service}
}

// Create stores a new ruleset from the submitted source files
func (h *RulesetHandler) Create(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}

	var req createRulesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "invalid request body")
		return
	}

	files := make([]models.RulesetFile, len(req.Source.Files))
	for i, f := range req.Source.Files {
		files[i] = models.RulesetFile{Name: f.Name, Content: f.Content}
	}

	ruleset, err := h.service.Create(project, files)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, renderRuleset(project, ruleset, true))
}

// Get returns one ruleset with its full source
func (h *RulesetHandler) Get(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}
	name, ok := requireRulesetName(c)
	if !ok {
		return
	}

	ruleset, err := h.service.Get(project, name)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, renderRuleset(project, ruleset, true))
}

// Delete removes a ruleset that no release references
func (h *RulesetHandler) Delete(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}
	name, ok := requireRulesetName(c)
	if !ok {
		return
	}

	if err := h.service.Delete(project, name); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List returns one page of ruleset metadata ordered by name
func (h *RulesetHandler) List(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}

	pageSize := 0
	if raw := c.Query("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "pageSize must be a non-negative integer")
			return
		}
		pageSize = n
	}

	page, next, err := h.service.List(project, pageSize, c.Query("pageToken"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := listRulesetsResponse{Rulesets: make([]rulesetResponse, len(page)), NextPageToken: next}
	for i := range page {
		resp.Rulesets[i] = renderRuleset(project, &page[i], false)
	}

	c.JSON(http.StatusOK, resp)
}

func requireProject(c *gin.Context) (string, bool) {
	project := c.Param("project")
	if !resourceNameRE.MatchString(project) {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "project id must match [0-9a-zA-Z-]+")
		return "", false
	}
	return project, true
}

func requireRulesetName(c *gin.Context) (string, bool) {
	name := c.Param("ruleset")
	if !resourceNameRE.MatchString(name) {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "ruleset name must match [0-9a-zA-Z-]+")
		return "", false
	}
	return name, true
}

func rulesetResourceName(project, name string) string {
	return fmt.Sprintf("projects/%s/rulesets/%s", project, name)
}

func renderRuleset(project string, ruleset *models.Ruleset, withSource bool) rulesetResponse {
	resp := rulesetResponse{
		Name:       rulesetResourceName(project, ruleset.Name),
		CreateTime: ruleset.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if withSource {
		source := rulesetSourcePayload{Files: make([]ruleFilePayload, len(ruleset.Files))}
		for i, f := range ruleset.Files {
			source.Files[i] = ruleFilePayload{Name: f.Name, Content: f.Content}
		}
		resp.Source = &source
	}
	return resp
}
