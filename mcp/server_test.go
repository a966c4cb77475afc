package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jung-kurt/gofpdf"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/render"
	"github.com/lvillar/certpdf/templates"
)

func templatePDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(56, 60, "Example Medical Centre")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building template: %v", err)
	}
	return buf.Bytes()
}

// testServer returns a server whose renderer only has a work template.
func testServer(t *testing.T) *Server {
	t.Helper()
	fsys := fstest.MapFS{"work_template.pdf": {Data: templatePDF(t)}}
	r := render.New(templates.NewLoader(templates.Dir(fsys)))

	s := NewServerWithIO(nil, nil)
	RegisterCertificateTools(s, r)
	RegisterCertificateResources(s, r)
	return s
}

func sendRequest(t *testing.T, s *Server, method string, id int, params any) jsonrpcResponse {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

// callTool invokes a tool and decodes its result.
func callTool(t *testing.T, s *Server, name string, args map[string]any) ToolResult {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 7, map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	raw, _ := json.Marshal(resp.Result)
	var result ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decoding tool result %s: %v", raw, err)
	}
	return result
}

func workArgs() map[string]any {
	return map[string]any{
		"category":         "work",
		"patientName":      "John Smith",
		"consultationDate": "18 February 2026",
		"startDate":        "18 February 2026",
		"endDate":          "18 February 2026",
		"certificateRef":   "MC-2026-000123",
		"issueDate":        "18 February 2026",
	}
}

func TestServerInitialize(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "initialize", 1, map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}
	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "certpdf-mcp" {
		t.Fatalf("unexpected server name: %v", serverInfo["name"])
	}
}

func TestServerToolsList(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "tools/list", 2, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]any)
	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatal("tools is not an array")
	}
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	if strings.Join(names, ",") != "plan_certificate,render_certificate" {
		t.Fatalf("tools = %v", names)
	}

	schema := tools[1].(map[string]any)["inputSchema"].(map[string]any)
	props := schema["properties"].(map[string]any)
	if _, ok := props["outputPath"]; !ok {
		t.Error("render_certificate schema has no outputPath")
	}
}

func TestServerResourcesList(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "resources/list", 3, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	resources, ok := resp.Result.(map[string]any)["resources"].([]any)
	if !ok {
		t.Fatal("resources is not an array")
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
}

func TestServerPing(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "ping", 4, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "nonexistent/method", 5, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected error code %d, got %d", codeMethodNotFound, resp.Error.Code)
	}
}

func TestServerUnknownTool(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "tools/call", 6, map[string]any{
		"name":      "nonexistent_tool",
		"arguments": map[string]any{},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRenderCertificateTool(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, "render_certificate", workArgs())
	if result.IsError {
		t.Fatalf("tool failed: %+v", result.Content)
	}
	if len(result.Content) != 2 {
		t.Fatalf("expected text and resource blocks, got %d", len(result.Content))
	}
	pdf, err := base64.StdEncoding.DecodeString(result.Content[1].Data)
	if err != nil {
		t.Fatalf("decoding PDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("data is not a PDF: %q", pdf[:min(len(pdf), 16)])
	}
	if result.Content[1].MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q", result.Content[1].MIMEType)
	}
}

func TestRenderCertificateToFile(t *testing.T) {
	s := testServer(t)
	path := filepath.Join(t.TempDir(), "certificate.pdf")

	args := workArgs()
	args["outputPath"] = path
	result := callTool(t, s, "render_certificate", args)
	if result.IsError {
		t.Fatalf("tool failed: %+v", result.Content)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("saved file is not a PDF")
	}
	if !strings.Contains(result.Content[0].Text, path) {
		t.Errorf("result text = %q", result.Content[0].Text)
	}
}

func TestRenderCertificateErrorClasses(t *testing.T) {
	tests := map[string]struct {
		mutate func(map[string]any)
		class  string
	}{
		"empty name": {
			mutate: func(a map[string]any) { a["patientName"] = "   " },
			class:  "invalid_input",
		},
		"missing template": {
			mutate: func(a map[string]any) { a["category"] = "study" },
			class:  "template_not_found",
		},
		"body too long": {
			mutate: func(a map[string]any) {
				a["patientName"] = strings.Repeat("Bartholomew ", 8)
				a["endDate"] = strings.Repeat("the twenty-eighth day of February 2026 ", 60)
			},
			class: "body_too_long",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := testServer(t)
			args := workArgs()
			tt.mutate(args)

			result := callTool(t, s, "render_certificate", args)
			if !result.IsError {
				t.Fatal("expected an error result")
			}
			if len(result.Content) != 1 || !strings.HasPrefix(result.Content[0].Text, tt.class+": ") {
				t.Errorf("result = %+v, want class %s", result.Content, tt.class)
			}
		})
	}
}

func TestRenderCertificateMissingCategory(t *testing.T) {
	s := testServer(t)
	args := workArgs()
	delete(args, "category")

	result := callTool(t, s, "render_certificate", args)
	if !result.IsError || !strings.Contains(result.Content[0].Text, "category") {
		t.Errorf("result = %+v", result)
	}
}

func TestPlanCertificateTool(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, "plan_certificate", workArgs())
	if result.IsError {
		t.Fatalf("tool failed: %+v", result.Content)
	}
	var out struct {
		Plan struct {
			Instructions []struct {
				Text string  `json:"text"`
				Y    float64 `json:"y"`
			} `json:"instructions"`
			CursorY float64 `json:"cursorY"`
		} `json:"plan"`
		MaxY      float64 `json:"maxY"`
		Remaining float64 `json:"remaining"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), &out); err != nil {
		t.Fatalf("decoding plan: %v", err)
	}
	if len(out.Plan.Instructions) < 3 {
		t.Fatalf("expected at least 3 instructions, got %d", len(out.Plan.Instructions))
	}
	if out.Plan.Instructions[1].Text != "To whom it may concern," {
		t.Errorf("second instruction = %q", out.Plan.Instructions[1].Text)
	}
	if out.MaxY != 560 || out.Remaining != out.MaxY-out.Plan.CursorY || out.Remaining <= 0 {
		t.Errorf("maxY = %v remaining = %v cursor = %v", out.MaxY, out.Remaining, out.Plan.CursorY)
	}
}

func TestGeometryResource(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "resources/read", 8, map[string]any{"uri": "certificate://geometry?category=study"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	raw, _ := json.Marshal(resp.Result)
	var result struct {
		Contents []ResourceContent `json:"contents"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents = %+v", result.Contents)
	}
	var g struct {
		MaxY float64 `json:"maxY"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &g); err != nil {
		t.Fatal(err)
	}
	if g.MaxY != 520 {
		t.Errorf("study maxY = %v", g.MaxY)
	}
}

func TestGeometryResourceErrors(t *testing.T) {
	s := testServer(t)

	for _, uri := range []string{"certificate://geometry", "certificate://geometry?category=sick", "certificate://nothing"} {
		resp := sendRequest(t, s, "resources/read", 9, map[string]any{"uri": uri})
		if resp.Error == nil {
			t.Errorf("%s: expected an error", uri)
		}
	}
}

func TestCategoriesResource(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "resources/read", 10, map[string]any{"uri": "certificate://categories"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	raw, _ := json.Marshal(resp.Result)
	for _, want := range []string{"work_template.pdf", "study_template.pdf", "carer_template.pdf"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("categories resource has no %s: %s", want, raw)
		}
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer

	s := testServer(t)
	s.input = strings.NewReader(input)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %s", len(lines), output.String())
	}
	for i, line := range lines {
		var resp jsonrpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}

func TestServerParseError(t *testing.T) {
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader("{not json\n"), &output)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != codeParseError {
		t.Errorf("response = %+v", resp)
	}
}

func TestServerIgnoresNotifications(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`,
		`{"jsonrpc":"2.0","method":"ping"}`,
		`{"jsonrpc":"2.0","id":"last","method":"ping"}`,
	}, "\n") + "\n"
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader(input), &output)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"id":"last"`) {
		t.Errorf("responses = %q", lines)
	}
}

func TestServerInvalidParams(t *testing.T) {
	s := testServer(t)
	for _, method := range []string{"tools/call", "resources/read"} {
		resp := sendRequest(t, s, method, 11, "not an object")
		if resp.Error == nil || resp.Error.Code != codeInvalidParams || resp.Error.Message != "Invalid params" {
			t.Errorf("%s: response = %+v", method, resp)
		}
	}
}

func TestServerStopsOnCanceledContext(t *testing.T) {
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &output)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if output.Len() != 0 {
		t.Errorf("unexpected output %q", output.String())
	}
}

func TestToolAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	s.AddTool(Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			return textResult("custom result"), nil
		},
	})

	result := callTool(t, s, "custom_tool", map[string]any{})
	if len(result.Content) != 1 || result.Content[0].Text != "custom result" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestJSONContentReportsEncodingErrors(t *testing.T) {
	if _, err := jsonContent("certificate://geometry", map[string]float64{"maxY": math.NaN()}); err == nil {
		t.Error("expected an encoding error for NaN")
	}
	contents, err := jsonContent("certificate://categories", []string{"work"})
	if err != nil || len(contents) != 1 || contents[0].MIMEType != "application/json" {
		t.Errorf("jsonContent = %+v, %v", contents, err)
	}
}

func TestPlanCertificateEncodingError(t *testing.T) {
	g := certpdf.DefaultGeometry(certpdf.Work)
	g.MaxY = math.NaN()
	r := render.New(nil, render.WithGeometry(certpdf.Work, g))
	s := NewServerWithIO(nil, nil)
	RegisterCertificateTools(s, r)

	result := callTool(t, s, "plan_certificate", workArgs())
	if !result.IsError || !strings.Contains(result.Content[0].Text, "encoding plan") {
		t.Errorf("result = %+v", result)
	}
}
