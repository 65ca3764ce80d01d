package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const (
	OrgIDKey  contextKey = "org_id"
	DBConnKey contextKey = "db_conn"
)

var orgIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// OrgMiddleware resolves the organization scope for the request and pins a
// database connection to the request context. All row-level scoping happens
// through the org_id column, so the same connection serves every org.
func OrgMiddleware(pool *pgxpool.Pool, defaultOrg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			orgID := extractOrgID(c, defaultOrg)

			if orgID != "" && !orgIDPattern.MatchString(orgID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid organization identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			ctx = context.WithValue(ctx, OrgIDKey, orgID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("org_id", orgID)
			c.Set("db", conn)

			return next(c)
		}
	}
}

func extractOrgID(c echo.Context, defaultOrg string) string {
	// 1. Check JWT claim (set by auth middleware)
	if oid, ok := c.Get("jwt_org_id").(string); ok && oid != "" {
		return oid
	}

	// 2. Check X-Org-ID header
	if oid := c.Request().Header.Get("X-Org-ID"); oid != "" {
		return oid
	}

	// 3. Check query parameter
	if oid := c.QueryParam("orgId"); oid != "" {
		return oid
	}

	return defaultOrg
}

// ConnFromContext retrieves the request-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// OrgFromContext retrieves the organization ID from context.
func OrgFromContext(ctx context.Context) string {
	oid, _ := ctx.Value(OrgIDKey).(string)
	return oid
}

// CreateOrganization registers a new organization row. Used by the CLI when
// bootstrapping a fresh deployment.
func CreateOrganization(ctx context.Context, pool *pgxpool.Pool, id, name string) error {
	if !orgIDPattern.MatchString(id) {
		return fmt.Errorf("invalid organization identifier: %s", id)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("create organization %s: %w", id, err)
	}
	return nil
}
