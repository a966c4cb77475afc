package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/render"
)

// RegisterCertificateTools adds the certificate tools backed by r.
func RegisterCertificateTools(s *Server, r *render.Renderer) {
	s.AddTool(renderCertificateTool(r))
	s.AddTool(planCertificateTool(r))
}

func requestSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"category": map[string]any{
			"type":        "string",
			"enum":        []string{"work", "study", "carer"},
			"description": "Certificate category",
		},
		"patientName":      map[string]any{"type": "string", "description": "Patient full name (max 100 characters)"},
		"consultationDate": map[string]any{"type": "string", "description": "Consultation date as displayed, e.g. 18 February 2026"},
		"startDate":        map[string]any{"type": "string", "description": "First day covered, as displayed"},
		"endDate":          map[string]any{"type": "string", "description": "Last day covered, as displayed"},
		"certificateRef":   map[string]any{"type": "string", "description": "Pre-generated certificate identifier"},
		"issueDate":        map[string]any{"type": "string", "description": "Issue date shown in the header"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"category", "patientName", "consultationDate", "startDate", "endDate", "issueDate"},
	}
}

// parseRequest decodes tool arguments into a certificate request.
func parseRequest(args map[string]any) (certpdf.Request, error) {
	var req certpdf.Request
	if _, ok := args["category"]; !ok {
		return req, fmt.Errorf("missing 'category' argument")
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return req, fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decoding arguments: %w", err)
	}
	return req, nil
}

func renderCertificateTool(r *render.Renderer) Tool {
	return Tool{
		Name:        "render_certificate",
		Description: "Render a work, study or carer's leave certificate onto its category template. Returns the PDF as base64, or saves it when outputPath is given. Fails without output when the text would overlap the signature block.",
		InputSchema: requestSchema(map[string]any{
			"outputPath": map[string]any{
				"type":        "string",
				"description": "Optional file path to save the PDF. If omitted, returns base64.",
			},
		}),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			req, err := parseRequest(args)
			if err != nil {
				return ToolResult{}, err
			}

			res := r.RenderResult(ctx, req)
			if !res.Success {
				return errorResult(res.Err), nil
			}

			if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
				if err := os.WriteFile(outputPath, res.Bytes, 0o644); err != nil {
					return ToolResult{}, fmt.Errorf("writing file: %w", err)
				}
				return textResult(fmt.Sprintf("Certificate rendered: %s (%d bytes)", outputPath, len(res.Bytes))), nil
			}

			return ToolResult{
				Content: []ContentBlock{
					{Type: "text", Text: fmt.Sprintf("Certificate rendered (%d bytes).", len(res.Bytes))},
					{Type: "resource", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(res.Bytes)},
				},
			}, nil
		},
	}
}

func planCertificateTool(r *render.Renderer) Tool {
	return Tool{
		Name:        "plan_certificate",
		Description: "Lay out a certificate without rendering it. Returns every drawn line with its position and the final cursor, or the overflow error the render would fail with.",
		InputSchema: requestSchema(nil),
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			req, err := parseRequest(args)
			if err != nil {
				return ToolResult{}, err
			}
			plan, err := r.Plan(req)
			if err != nil {
				return errorResult(err), nil
			}
			g := r.Geometry(req.Category)
			out, err := json.MarshalIndent(map[string]any{
				"plan":      plan,
				"maxY":      g.MaxY,
				"remaining": g.MaxY - plan.CursorY,
			}, "", "  ")
			if err != nil {
				return ToolResult{}, fmt.Errorf("encoding plan: %w", err)
			}
			return textResult(string(out)), nil
		},
	}
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// errorResult reports a render failure with its class so that clients can
// tell user-correctable input from deployment faults.
func errorResult(err error) ToolResult {
	class := "render_failed"
	switch {
	case errors.Is(err, certpdf.ErrInvalidInput):
		class = "invalid_input"
	case errors.Is(err, certpdf.ErrBodyTooLong):
		class = "body_too_long"
	case errors.Is(err, certpdf.ErrTemplateNotFound):
		class = "template_not_found"
	}
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("%s: %v", class, err)}},
		IsError: true,
	}
}
