package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/render"
	"github.com/lvillar/certpdf/templates"
)

// RegisterCertificateResources adds the certificate:// resources backed by r.
func RegisterCertificateResources(s *Server, r *render.Renderer) {
	s.AddResource(Resource{
		URI:         "certificate://categories",
		Name:        "Certificate Categories",
		Description: "List the certificate categories and the template file each one loads.",
		MIMEType:    "application/json",
		Handler:     handleCategoriesResource,
	})

	s.AddResource(Resource{
		URI:         "certificate://geometry",
		Name:        "Certificate Geometry",
		Description: "Get the layout anchors of a category in design coordinates. Pass the category as a query parameter: certificate://geometry?category=work",
		MIMEType:    "application/json",
		Handler: func(_ context.Context, uri string) ([]ResourceContent, error) {
			return handleGeometryResource(r, uri)
		},
	})
}

func handleCategoriesResource(_ context.Context, uri string) ([]ResourceContent, error) {
	type entry struct {
		Category string `json:"category"`
		Template string `json:"template"`
	}
	list := make([]entry, 0, len(certpdf.Categories))
	for _, c := range certpdf.Categories {
		list = append(list, entry{Category: c.String(), Template: templates.FileName(c)})
	}
	return jsonContent(uri, list)
}

func handleGeometryResource(r *render.Renderer, uri string) ([]ResourceContent, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing URI: %w", err)
	}
	name := u.Query().Get("category")
	if name == "" {
		return nil, fmt.Errorf("missing 'category' parameter in URI")
	}
	cat, err := certpdf.ParseCategory(name)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, r.Geometry(cat))
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
}
