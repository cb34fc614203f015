package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/services"
)

type putReleaseRequest struct {
	RulesetName string `json:"rulesetName"`
}

type releaseResponse struct {
	Name        string `json:"name"`
	RulesetName string `json:"rulesetName"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
}

type ReleaseHandler struct {
	service *services.ReleaseService
}

func NewReleaseHandler(service *services.ReleaseService) *ReleaseHandler {
	return &ReleaseHandler{service: service}
}

// Get returns the release currently bound for the given name
func (h *ReleaseHandler) Get(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}
	name, ok := requireReleaseName(c)
	if !ok {
		return
	}

	release, err := h.service.Get(project, name)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, renderRelease(project, release))
}

// Put points a release at a ruleset, creating the release on first use
func (h *ReleaseHandler) Put(c *gin.Context) {
	project, ok := requireProject(c)
	if !ok {
		return
	}
	name, ok := requireReleaseName(c)
	if !ok {
		return
	}

	var req putReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "invalid request body")
		return
	}

	rulesetName, err := shortRulesetName(project, req.RulesetName)
	if err != nil {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, err.Error())
		return
	}
	if !resourceNameRE.MatchString(rulesetName) {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "ruleset name must match [0-9a-zA-Z-]+")
		return
	}

	release, err := h.service.Upsert(project, name, rulesetName)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, renderRelease(project, release))
}

func requireReleaseName(c *gin.Context) (string, bool) {
	name := c.Param("release")
	if !releaseNameRE.MatchString(name) {
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, "release name must match [0-9a-zA-Z._-]+")
		return "", false
	}
	return name, true
}

// shortRulesetName accepts a bare ruleset id or a full resource name and
// returns the id. Full names must belong to the same project.
func shortRulesetName(project, name string) (string, error) {
	if !strings.HasPrefix(name, "projects/") {
		return name, nil
	}
	rest := strings.TrimPrefix(name, "projects/")
	prj, id, ok := strings.Cut(rest, "/rulesets/")
	if !ok {
		return "", fmt.Errorf("malformed ruleset name %q", name)
	}
	if prj != project {
		return "", fmt.Errorf("ruleset name %q belongs to another project", name)
	}
	return id, nil
}

func renderRelease(project string, release *models.Release) releaseResponse {
	return releaseResponse{
		Name:        fmt.Sprintf("projects/%s/releases/%s", project, release.Name),
		RulesetName: rulesetResourceName(project, release.RulesetName),
		CreateTime:  release.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdateTime:  release.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
