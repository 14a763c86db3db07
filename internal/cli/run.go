package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/mender/internal/config"
	"github.com/aretw0/mender/internal/presentation/graph"
	"github.com/aretw0/mender/internal/presentation/tui"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/observability"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/session"
)

// RunOptions controls how a single triage run is reported.
type RunOptions struct {
	JSON   bool // print the report as JSON instead of markdown
	Plain  bool // skip glamour styling
	Banner bool
	Graph  bool // append the Mermaid flowchart
	Link   bool // append a mermaid.live link
}

// RunOnce executes one run to completion and writes its report to out.
// The report is archived in the configured backend. A run that stops on
// the step budget is still reported, and the error is returned afterwards.
func RunOnce(ctx context.Context, cfg config.Config, opts RunOptions, logger *slog.Logger, out io.Writer) error {
	source, err := NewDelegateSource(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := NewBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	manager := newManager(backend, logger)
	build := Orchestrators(cfg, source, logger)
	hooks := observability.LoggingHooks(logger)

	id, err := manager.Start(ctx, func(runID string) ports.Orchestrator {
		return build(runID, hooks)
	})
	if err != nil {
		return err
	}

	_, runErr := manager.Run(ctx, id)
	var collab *domain.CollaboratorError
	if runErr != nil && !errors.Is(runErr, domain.ErrStepBudgetExhausted) && !errors.As(runErr, &collab) {
		return runErr
	}

	report, err := manager.Report(ctx, id)
	if err != nil {
		return err
	}
	if err := WriteReport(out, report, opts); err != nil {
		return err
	}
	return runErr
}

// WriteReport renders a report according to opts.
func WriteReport(out io.Writer, report *domain.RunReport, opts RunOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if opts.Banner {
		tui.PrintBanner(out)
	}
	rendered, err := tui.NewRenderer(opts.Plain)(tui.ReportMarkdown(report))
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)

	if !opts.Graph && !opts.Link {
		return nil
	}
	code := graph.GenerateMermaid(report.History, &graph.Overlay{CurrentState: report.Summary.State})
	if opts.Graph {
		fmt.Fprintf(out, "\n%s\n", code)
	}
	if opts.Link {
		link, err := graph.LiveLink(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", link)
	}
	return nil
}

func newManager(backend *Backend, logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	return session.NewManager(backend.Reports, opts...)
}

// RunGraph executes one run and prints only its flowchart, or its
// mermaid.live link when link is set.
func RunGraph(ctx context.Context, cfg config.Config, link bool, logger *slog.Logger, out io.Writer) error {
	var report bytes.Buffer
	if err := RunOnce(ctx, cfg, RunOptions{JSON: true}, logger, &report); err != nil && report.Len() == 0 {
		return err
	}
	var decoded domain.RunReport
	if err := json.Unmarshal(report.Bytes(), &decoded); err != nil {
		return err
	}
	code := graph.GenerateMermaid(decoded.History, &graph.Overlay{CurrentState: decoded.Summary.State})
	if !link {
		_, err := fmt.Fprintln(out, code)
		return err
	}
	url, err := graph.LiveLink(code)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, url)
	return err
}
