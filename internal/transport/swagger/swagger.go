package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves the Swagger UI pointed at the OpenAPI document the router
// exposes at specURL, "/openapi.yml" by default.
func Handler(specURL ...string) http.Handler {
	url := "/openapi.yml"
	if len(specURL) > 0 && specURL[0] != "" {
		url = specURL[0]
	}
	return httpSwagger.Handler(
		httpSwagger.URL(url),
		httpSwagger.DocExpansion("list"),
	)
}
