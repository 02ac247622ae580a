package graphql

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	_ "remanerp/custom"
	graphqlpkg "remanerp/graphql"
	"remanerp/graphqlserver"
)

func RegisterGraphQLRoutes(e *echo.Echo, db *gorm.DB) {
	schema, err := graphqlserver.NewSchema(db)
	if err != nil {
		panic("graphql schema: " + err.Error())
	}
	registerRoutes(e, schema)
}

// RegisterGraphQLRoutesWithSchema registers /graphql with a custom schema (for tests with mocks).
func RegisterGraphQLRoutesWithSchema(e *echo.Echo, schema *graphql.Schema) {
	registerRoutes(e, schema)
}

func registerRoutes(e *echo.Echo, schema *graphql.Schema) {
	handler := graphqlserver.Handler(schema)
	h := orgContextMiddleware(handler)
	e.POST("/graphql", echo.WrapHandler(h))
	e.GET("/graphql", echo.WrapHandler(h))
	e.GET("/playground", echo.WrapHandler(playgroundHandler()))
}

// orgContextMiddleware resolves the tenant for GraphQL requests.
// Priority: 1) X-Org-ID header, 2) __Org query param, 3) variables.__Org.
func orgContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := uint(0)
		if h := r.Header.Get("X-Org-ID"); h != "" {
			if id, err := strconv.ParseUint(h, 10, 32); err == nil {
				orgID = uint(id)
			}
		}
		if q := r.URL.Query().Get("__Org"); q != "" {
			if id, err := strconv.ParseUint(q, 10, 32); err == nil {
				orgID = uint(id)
			}
		}
		if orgID == 0 && r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
			var req struct {
				Variables map[string]interface{} `json:"variables"`
			}
			if json.Unmarshal(body, &req) == nil && req.Variables != nil {
				if v, ok := req.Variables["__Org"]; ok {
					switch val := v.(type) {
					case string:
						if id, err := strconv.ParseUint(val, 10, 32); err == nil {
							orgID = uint(id)
						}
					case float64:
						orgID = uint(val)
					}
				}
			}
		}
		ctx := graphqlpkg.WithOrgID(r.Context(), orgID)
		if h := r.Header.Get("X-User-ID"); h != "" {
			if id, err := strconv.ParseUint(h, 10, 32); err == nil {
				ctx = graphqlpkg.WithUserID(ctx, uint(id))
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playgroundHandler() http.Handler {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>GraphQL Playground</title>
	<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css"/>
</head>
<body>
	<div id="root"/>
	<script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
	<script>window.addEventListener('load', function() {
		GraphQLPlayground.init({ endpoint: '/graphql' });
	})</script>
</body>
</html>`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	})
}
