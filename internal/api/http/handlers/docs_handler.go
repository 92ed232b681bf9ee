package handlers

import "github.com/gofiber/fiber/v2"

type endpointDoc struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
	Description  string `json:"description"`
}

var endpoints = []endpointDoc{
	{Method: "POST", Path: "/auth", Description: "Register a new user"},
	{Method: "PUT", Path: "/auth", Description: "Login existing user"},
	{Method: "PUT", Path: "/auth/:userId", RequiresAuth: true, Description: "Update user"},
	{Method: "DELETE", Path: "/auth", RequiresAuth: true, Description: "Logout a user"},
	{Method: "GET", Path: "/order/menu", Description: "Get the menu"},
	{Method: "PUT", Path: "/order/menu", RequiresAuth: true, Description: "Add an item to the menu"},
	{Method: "GET", Path: "/order", RequiresAuth: true, Description: "Get the orders for the authenticated user"},
	{Method: "POST", Path: "/order", RequiresAuth: true, Description: "Create an order for the authenticated user"},
	{Method: "GET", Path: "/franchise", Description: "List all franchises"},
	{Method: "GET", Path: "/franchise/:userId", RequiresAuth: true, Description: "List a user's franchises"},
	{Method: "POST", Path: "/franchise", RequiresAuth: true, Description: "Create a new franchise"},
	{Method: "DELETE", Path: "/franchise/:franchiseId", RequiresAuth: true, Description: "Delete a franchise"},
	{Method: "POST", Path: "/franchise/:franchiseId/store", RequiresAuth: true, Description: "Create a new franchise store"},
	{Method: "DELETE", Path: "/franchise/:franchiseId/store/:storeId", RequiresAuth: true, Description: "Delete a store"},
}

// DocsHandler lists the API surface.
type DocsHandler struct {
	version string
}

// NewDocsHandler returns a new handler instance.
func NewDocsHandler(version string) *DocsHandler {
	return &DocsHandler{version: version}
}

// Index handles GET /docs.
func (h *DocsHandler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":   h.version,
		"endpoints": endpoints,
	})
}
