package controllers

import (
	"log"
	"net/http"
	"os"

	apperrors "paycore/internal/shared_kernel/errors"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type SwaggerController struct {
	specPath        string
	logger          *log.Logger
	swaggerUIHandle http.Handler
}

func NewSwaggerController(specPath string, logger *log.Logger) *SwaggerController {
	return &SwaggerController{
		specPath: specPath,
		logger:   logger,
		swaggerUIHandle: httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.yaml"),
			httpSwagger.PersistAuthorization(true),
		),
	}
}

func (c *SwaggerController) RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusTemporaryRedirect)
}

func (c *SwaggerController) ServeUI(w http.ResponseWriter, r *http.Request) {
	c.swaggerUIHandle.ServeHTTP(w, r)
}

func (c *SwaggerController) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(c.specPath)
	if err != nil {
		c.logger.Printf("request error path=/swagger/openapi.yaml method=%s error=%v", r.Method, err)
		writeAppError(w, apperrors.NewInternal(
			"openapi_spec_unavailable",
			"failed to read the openapi document",
			nil,
		))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		c.logger.Printf("response write error path=/swagger/openapi.yaml method=%s error=%v", r.Method, err)
	}
}
