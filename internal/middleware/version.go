package middleware

import (
	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"` // "active", "deprecated"
	Message string `json:"message,omitempty"`
}

// VersionMiddleware stamps responses with the API and build versions
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
	buildVersion      string
}

// NewVersionMiddleware creates a new version middleware instance
func NewVersionMiddleware(buildVersion string) *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {
				Version: "v1",
				Status:  "active",
				Message: "Current stable API version",
			},
		},
		buildVersion: buildVersion,
	}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version)
			if vm.buildVersion != "" {
				h.Set("X-App-Version", vm.buildVersion)
			}
			if ver, ok := vm.supportedVersions[version]; ok && ver.Status == "deprecated" {
				h.Set("X-API-Deprecated", "true")
			}
			return next(c)
		}
	}
}

// VersionRoute creates the /api/<version> group
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/api/" + version)
	group.Use(vm.VersionHeader(version))
	return group
}

// GetSupportedVersions returns all supported API versions
func (vm *VersionMiddleware) GetSupportedVersions() map[string]APIVersion {
	return vm.supportedVersions
}
