package main

import (
	"net/http"
)

// SetupBookRoutes injects the catalog pages. Order matters: the first
// matching entry wins so fixed paths come before the parameterized ones.
func (api *APIHandler) SetupBookRoutes(router *RouteTable, m *MiddlewareMap) *RouteTable {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/static/*filepath", m.public(api.OpsHandlerWrapper(http.StripPrefix("/static", http.FileServer(http.FS(StaticFS()))))))
	router.GET("/books/page/:page", m.public(api.ListBooks))
	router.GET("/books/new", m.public(api.NewBookForm))
	router.POST("/books/new", m.public(api.CreateBook))
	router.POST("/books/search", m.public(api.SearchBooks))
	router.GET("/books/:id", m.public(api.EditBook))
	router.POST("/books/:id", m.public(api.UpdateBook))
	router.POST("/books/:id/delete", m.public(api.DeleteBook))
	return router
}
