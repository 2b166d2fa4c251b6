package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agent-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(role string, allowed ...string) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithIdentity(c.Request.Context(), "u", role)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveAs(RoleAdmin, RoleOperator); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_ViewerDeniedOnOperatorRoute(t *testing.T) {
	if code := serveAs(RoleViewer, RoleOperator); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serveAs(RoleViewer, RoleViewer, RoleOperator); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_RoleRequired(t *testing.T) {
	if code := serveAs("", RoleViewer); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestValid(t *testing.T) {
	for _, r := range []string{RoleViewer, RoleOperator, RoleAdmin} {
		if !Valid(r) {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Valid("super_admin") {
		t.Fatalf("unknown role accepted")
	}
}
