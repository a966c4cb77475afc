// Command certpdf-mcp is an MCP (Model Context Protocol) server that exposes
// certificate rendering to AI assistants and workflow automation.
//
// # Installation
//
//	go install github.com/lvillar/certpdf/cmd/certpdf-mcp@latest
//
// # Configuration
//
// The server reads the YAML file named by CERTPDF_CONFIG, if set, and the
// CERTPDF_TEMPLATE_DIR, CERTPDF_TEMPLATE_BASE_URL, CERTPDF_FETCH_TIMEOUT and
// CERTPDF_WATERMARK environment variables. Logs go to stderr; stdout carries
// the protocol.
//
//	{
//	  "mcpServers": {
//	    "certpdf": {
//	      "command": "certpdf-mcp",
//	      "env": {"CERTPDF_TEMPLATE_DIR": "/srv/certpdf/templates"}
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - render_certificate: Render a certificate PDF
//   - plan_certificate: Lay out a certificate without rendering
//
// # Available Resources
//
//   - certificate://categories : Categories and their template files
//   - certificate://geometry?category=... : Layout anchors of a category
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lvillar/certpdf/internal/config"
	"github.com/lvillar/certpdf/mcp"
	"github.com/lvillar/certpdf/render"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "certpdf-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(os.Getenv("CERTPDF_CONFIG"))
	if err != nil {
		return err
	}
	loader, err := cfg.Loader(log)
	if err != nil {
		return err
	}
	r := render.New(loader, cfg.RenderOptions(log)...)

	server := mcp.NewServer()
	mcp.RegisterCertificateTools(server, r)
	mcp.RegisterCertificateResources(server, r)

	log.Info("certpdf-mcp ready", zap.String("template_dir", cfg.TemplateDir), zap.String("template_base_url", cfg.TemplateBaseURL))
	return server.Run(ctx)
}
