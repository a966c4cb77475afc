package config_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/internal/config"
	"github.com/lvillar/certpdf/templates"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "certpdf.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != "assets" {
		t.Errorf("TemplateDir = %q", cfg.TemplateDir)
	}
	d, err := cfg.Timeout()
	if err != nil || d != templates.DefaultTimeout {
		t.Errorf("Timeout = %v, %v", d, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
templateDir: /srv/certpdf/templates
templateBaseURL: https://assets.example.com/certificates
fetchTimeout: 2s
watermark: SPECIMEN
verification:
  kind: qr
  baseURL: https://verify.example.com/
geometry:
  study:
    maxY: 500
    lineHeight: 16
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != "/srv/certpdf/templates" || cfg.TemplateBaseURL != "https://assets.example.com/certificates" {
		t.Errorf("template sources = %q, %q", cfg.TemplateDir, cfg.TemplateBaseURL)
	}
	if d, _ := cfg.Timeout(); d != 2*time.Second {
		t.Errorf("Timeout = %v", d)
	}
	if cfg.Verification.Kind != "qr" || cfg.Watermark != "SPECIMEN" {
		t.Errorf("decorations = %+v, %q", cfg.Verification, cfg.Watermark)
	}

	study := cfg.GeometryFor(certpdf.Study)
	if study.MaxY != 500 || study.LineHeight != 16 {
		t.Errorf("study overrides not applied: maxY %v lineHeight %v", study.MaxY, study.LineHeight)
	}
	if study.ParagraphAnchorY != certpdf.DefaultGeometry(certpdf.Study).ParagraphAnchorY {
		t.Error("unset field lost its default")
	}
	if cfg.GeometryFor(certpdf.Work) != certpdf.DefaultGeometry(certpdf.Work) {
		t.Error("work geometry changed without an override")
	}
	if n := len(cfg.RenderOptions(zap.NewNop())); n != 1+len(certpdf.Categories)+2 {
		t.Errorf("RenderOptions returned %d options", n)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		body string
		want error
	}{
		"unknown field": {
			body: "templateDirectory: x\n",
			want: config.ErrConfigParse,
		},
		"bad yaml": {
			body: "templateDir: [\n",
			want: config.ErrConfigParse,
		},
		"no sources": {
			body: "templateDir: \"\"\n",
			want: config.ErrInvalidConfig,
		},
		"relative base url": {
			body: "templateBaseURL: assets/certificates\n",
			want: config.ErrInvalidConfig,
		},
		"bad timeout": {
			body: "fetchTimeout: soon\n",
			want: config.ErrInvalidConfig,
		},
		"negative timeout": {
			body: "fetchTimeout: -1s\n",
			want: config.ErrInvalidConfig,
		},
		"unknown code kind": {
			body: "verification:\n  kind: aztec\n",
			want: config.ErrInvalidConfig,
		},
		"unknown category": {
			body: "geometry:\n  sick:\n    maxY: 500\n",
			want: config.ErrInvalidConfig,
		},
		"invalid geometry": {
			body: "geometry:\n  work:\n    lineHeight: 0\n",
			want: config.ErrInvalidConfig,
		},
		"long watermark": {
			body: "watermark: THIS WATERMARK TEXT IS FAR TOO LONG TO BE PRINTED ON A PAGE\n",
			want: config.ErrInvalidConfig,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("Load = %v, want %v", err, tt.want)
			}
			t.Logf("%s: %v", name, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("Load = %v, want ErrConfigNotFound", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(config.EnvTemplateDir, "/env/templates")
	t.Setenv(config.EnvFetchTimeout, "750ms")
	t.Setenv(config.EnvWatermark, "COPY")

	cfg, err := config.Load(writeConfig(t, "templateDir: /file/templates\nwatermark: SPECIMEN\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != "/env/templates" {
		t.Errorf("TemplateDir = %q", cfg.TemplateDir)
	}
	if d, _ := cfg.Timeout(); d != 750*time.Millisecond {
		t.Errorf("Timeout = %v", d)
	}
	if cfg.Watermark != "COPY" {
		t.Errorf("Watermark = %q", cfg.Watermark)
	}
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.ApplyEnv(func(string) string { return "" })
	def := config.Default()
	if cfg.TemplateDir != def.TemplateDir || cfg.TemplateBaseURL != "" || cfg.FetchTimeout != def.FetchTimeout || cfg.Watermark != "" {
		t.Errorf("empty environment changed config: %+v", cfg)
	}
}

func TestLoaderPrefersDirectory(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("%PDF-1.4 remote"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "work_template.pdf"), []byte("%PDF-1.4 local"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{TemplateDir: dir, TemplateBaseURL: srv.URL}
	loader, err := cfg.Loader(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	local, err := loader.Load(context.Background(), certpdf.Work)
	if err != nil || string(local) != "%PDF-1.4 local" {
		t.Errorf("work = %q, %v", local, err)
	}
	remote, err := loader.Load(context.Background(), certpdf.Carer)
	if err != nil || string(remote) != "%PDF-1.4 remote" {
		t.Errorf("carer = %q, %v", remote, err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("network hits = %d, want 1", n)
	}
}
