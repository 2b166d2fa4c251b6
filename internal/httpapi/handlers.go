package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"agent-platform/internal/audit"
	"agent-platform/internal/auth"
	"agent-platform/internal/catalog"
	"agent-platform/internal/provision"
	"agent-platform/internal/rbac"
	"agent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Catalog     SalesLookup
	Provisioner TrunkProvisioner
	Runs        RunLister
}

type SalesLookup interface {
	Lookup(ctx context.Context, query string) ([]catalog.SalesItem, error)
}

type TrunkProvisioner interface {
	Provision(ctx context.Context, cfg provision.TrunkConfig) (provision.Result, error)
}

type RunLister interface {
	List(ctx context.Context, trunkName string, limit int) ([]audit.Run, error)
}

// --- Catalog ---

// LookupSales answers GET /v1/sales?query=. An empty query lists items.
// RBAC: viewer or operator.
func (h Handlers) LookupSales(c *gin.Context) {
	if h.Catalog == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return
	}
	query := c.Query("query")
	items, err := h.Catalog.Lookup(c.Request.Context(), query)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrNotReady) {
			status = http.StatusServiceUnavailable
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "catalog lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "items": items})
}

// --- Provisioning ---

type provisionResponse struct {
	provision.Result
	Complete bool   `json:"complete"`
	Error    string `json:"error,omitempty"`
}

// Provision answers POST /v1/provisioning.
// RBAC: operator.
func (h Handlers) Provision(c *gin.Context) {
	if h.Provisioner == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "provisioning not configured"})
		return
	}
	var req provision.TrunkConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := req.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Provisioner.Provision(c.Request.Context(), req)
	body := provisionResponse{Result: res, Complete: res.Complete()}
	if err != nil {
		body.Error = err.Error()
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, body)
	case errors.Is(err, provision.ErrBusy):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "provisioning already running for trunk"})
	case provision.IsCarrierError(err):
		c.AbortWithStatusJSON(http.StatusBadGateway, body)
	case provision.IsGatewayError(err):
		// the carrier trunk exists; report the partial outcome.
		c.JSON(http.StatusOK, body)
	default:
		logger.FromGin(c).Error("provisioning failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
	}
}

// ListRuns answers GET /v1/provisioning/runs?trunk_name=&limit=.
// RBAC: operator.
func (h Handlers) ListRuns(c *gin.Context) {
	if h.Runs == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "run history not configured"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := h.Runs.List(c.Request.Context(), c.Query("trunk_name"), limit)
	if err != nil {
		logger.FromGin(c).Error("run history lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "run history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// --- Auth ---

type tokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// IssueToken mints an access token for another subject.
// RBAC: admin.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Subject == "" || !rbac.Valid(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subject and a valid role required"})
		return
	}
	tok, err := h.Auth.Issue(time.Now(), req.Subject, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "expires_in": int(h.Auth.TTL().Seconds())})
}

// Healthz is the liveness probe.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
