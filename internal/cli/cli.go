// Package cli implements the certpdf command line: render a certificate to
// a file, print its layout plan, or inspect a rendered PDF.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lvillar/certpdf"
	"github.com/lvillar/certpdf/internal/config"
	"github.com/lvillar/certpdf/internal/pdfdoc"
	"github.com/lvillar/certpdf/render"
)

type loggerKey struct{}

func withLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// requestFlags binds the request fields to command flags.
type requestFlags struct {
	category     string
	name         string
	consultation string
	start        string
	end          string
	ref          string
	issue        string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.category, "category", "work", "certificate category: work, study or carer")
	fl.StringVar(&f.name, "name", "", "patient full name")
	fl.StringVar(&f.consultation, "consultation", "", "consultation date as displayed")
	fl.StringVar(&f.start, "start", "", "first day covered (defaults to --consultation)")
	fl.StringVar(&f.end, "end", "", "last day covered (defaults to --start)")
	fl.StringVar(&f.ref, "ref", "", "certificate reference (generated when empty)")
	fl.StringVar(&f.issue, "issue", "", "issue date shown in the header (defaults to --consultation)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("consultation")
}

func (f *requestFlags) request() (certpdf.Request, error) {
	cat, err := certpdf.ParseCategory(f.category)
	if err != nil {
		return certpdf.Request{}, err
	}
	req := certpdf.Request{
		Category:         cat,
		PatientName:      f.name,
		ConsultationDate: f.consultation,
		StartDate:        firstNonEmpty(f.start, f.consultation),
		CertificateRef:   f.ref,
		IssueDate:        firstNonEmpty(f.issue, f.consultation),
	}
	req.EndDate = firstNonEmpty(f.end, req.StartDate)
	if req.CertificateRef == "" {
		req.CertificateRef = NewReference()
	}
	return req, nil
}

// NewReference returns a fresh certificate reference of the form
// MC-XXXXXXXXXXXX.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MC-" + strings.ToUpper(id[:12])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// New builds the root command. out receives command output, errOut logs.
func New(out, errOut io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:           "certpdf",
		Short:         "certpdf renders medical certificates onto PDF templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), newLogger(errOut, verbose)))
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	renderer := func(ctx context.Context) (*render.Renderer, error) {
		log := loggerFromContext(ctx)
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		loader, err := cfg.Loader(log)
		if err != nil {
			return nil, err
		}
		return render.New(loader, cfg.RenderOptions(log)...), nil
	}

	root.AddCommand(newRenderCmd(renderer), newPlanCmd(renderer), newInspectCmd())
	return root
}

type rendererFunc func(ctx context.Context) (*render.Renderer, error)

func newRenderCmd(build rendererFunc) *cobra.Command {
	var (
		rf     requestFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a certificate PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rf.request()
			if err != nil {
				return err
			}
			r, err := build(cmd.Context())
			if err != nil {
				return err
			}
			pdf, err := r.Render(cmd.Context(), req)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(pdf)
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			loggerFromContext(cmd.Context()).Info("certificate written",
				zap.String("path", output),
				zap.String("certificate_ref", req.CertificateRef),
				zap.Int("bytes", len(pdf)))
			return nil
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty or -)")
	return cmd
}

func newPlanCmd(build rendererFunc) *cobra.Command {
	var rf requestFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the layout plan of a certificate as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rf.request()
			if err != nil {
				return err
			}
			r, err := build(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := r.Plan(req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	rf.bind(cmd)
	return cmd
}

// pageInfo is one page of the inspect output.
type pageInfo struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the metadata, page sizes and text of a PDF as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := pdfdoc.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			pages := make([]pageInfo, 0, doc.NumPages())
			for n := 1; n <= doc.NumPages(); n++ {
				p, err := doc.Page(n)
				if err != nil {
					return err
				}
				text, err := p.ExtractText()
				if err != nil {
					return err
				}
				pages = append(pages, pageInfo{
					Number: n,
					Width:  p.MediaBox.Width(),
					Height: p.MediaBox.Height(),
					Text:   text,
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"version":  doc.Version,
				"metadata": doc.Metadata(),
				"pages":    pages,
			})
		},
	}
}
