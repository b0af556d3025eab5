package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// CORSConfig returns the CORS configuration used by the application.
// Centralised here so that main.go and tests reference the same config.
func CORSConfig(extraOrigins ...string) middleware.CORSConfig {
	origins := append([]string{
		"http://localhost:3000", // Development frontend
		"http://localhost:5173", // Vite dev server
	}, extraOrigins...)

	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
	}
}
