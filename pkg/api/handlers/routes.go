package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Dashboard *DashboardHandler
	Activity  *ActivityHandler
	Companies *CompanyHandler
	Contacts  *ContactHandler
	Leads     *LeadHandler
	Ideas     *IdeaHandler
	Projects  *ProjectHandler
	Tasks     *TaskHandler
	Events    *EventHandler
	Assets    *AssetHandler
}

// Register mounts the JSON API on api (normally /api/v1) and the upload
// file server on root.
func Register(root *echo.Echo, api *echo.Group, h Handlers) {
	api.GET("/dashboard", h.Dashboard.Summary)

	api.GET("/activity", h.Activity.List)
	api.POST("/activity", h.Activity.Create)

	api.GET("/companies", h.Companies.List)
	api.POST("/companies", h.Companies.Create)
	api.GET("/companies/:id", h.Companies.Get)

	api.POST("/contacts/import", h.Contacts.Import)
	api.GET("/contacts/export", h.Contacts.Export)
	api.GET("/contacts", h.Contacts.List)
	api.POST("/contacts", h.Contacts.Create)
	api.GET("/contacts/:id", h.Contacts.Get)
	api.PUT("/contacts/:id", h.Contacts.Update)
	api.DELETE("/contacts/:id", h.Contacts.Delete)

	api.GET("/leads", h.Leads.Board)
	api.POST("/leads", h.Leads.Create)
	api.PATCH("/leads/:id/status", h.Leads.SetStatus)

	api.GET("/ideas", h.Ideas.List)
	api.POST("/ideas", h.Ideas.Create)

	api.GET("/projects", h.Projects.List)
	api.POST("/projects", h.Projects.Create)
	api.GET("/projects/:id", h.Projects.Get)
	api.PATCH("/projects/:id/status", h.Projects.SetStatus)
	api.POST("/projects/:id/tasks", h.Projects.CreateTask)
	api.POST("/projects/:id/assets", h.Projects.Upload)

	api.PATCH("/tasks/:id/status", h.Tasks.SetStatus)

	api.GET("/events", h.Events.List)
	api.POST("/events", h.Events.Create)
	api.GET("/calendar", h.Events.Calendar)

	api.GET("/assets", h.Assets.List)
	api.POST("/assets", h.Assets.Upload)
	api.DELETE("/assets/:id", h.Assets.Delete)

	root.GET("/uploads/:name", h.Assets.Serve)
}
