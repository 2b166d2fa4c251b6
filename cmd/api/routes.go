package main

import (
	"agent-platform/internal/httpapi"
	"agent-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", httpapi.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/sales", rbac.RequireAnyRole(rbac.RoleViewer, rbac.RoleOperator), h.LookupSales)

		prov := v1.Group("/provisioning")
		prov.Use(rbac.RequireAnyRole(rbac.RoleOperator))
		{
			prov.POST("", h.Provision)
			prov.GET("/runs", h.ListRuns)
		}

		// ADMIN routes. Only admin passes RequireAnyRole with no roles listed.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole())
		{
			admin.POST("/tokens", h.IssueToken)
		}
	}
}
