// Package bridge runs the summarize-and-mail workflow over a set of chat exports.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"discordbridge/internal/chat"
	"discordbridge/internal/config"
	"discordbridge/internal/emailer"
	"discordbridge/internal/llm"
	"discordbridge/internal/pipeline"
	"discordbridge/internal/progress"
	"discordbridge/internal/runlog"
	"discordbridge/internal/trace"
)

// DefaultConcurrency bounds how many files are analyzed at once.
const DefaultConcurrency = 4

// Options select what a run processes and what side effects it has.
type Options struct {
	Input   string
	DryRun  bool // no files written, no mail sent
	NoEmail bool
}

// FileResult is one processed export.
type FileResult struct {
	Input    string
	Output   string
	Channel  string
	Date     string
	Markdown string
}

// Report describes a completed run.
type Report struct {
	RunID   string
	Files   []FileResult
	Skipped []string
	Subject string
	Emailed bool
}

// Mailer sends the report mail.
type Mailer interface {
	Send(ctx context.Context, cfg config.SMTPConfig, subject, body string, attachments []emailer.Attachment) error
}

// Runner holds the collaborators of a run. Log and Progress are optional.
type Runner struct {
	Config      *config.AppConfig
	Provider    llm.Provider
	Mailer      Mailer
	Log         *runlog.Store
	Progress    progress.Emitter
	Logger      *zap.Logger
	Concurrency int
	ConfigName  string // shown in the mail subject when set
}

// Run processes every input and, unless disabled, mails the results.
func (r *Runner) Run(ctx context.Context, opts Options) (report *Report, err error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	emit := r.Progress
	if emit == nil {
		emit = progress.Nop{}
	}

	ctx, span := trace.Tracer().Start(ctx, "bridge.run")
	defer span.End()

	report = &Report{}
	if r.Log != nil {
		run, startErr := r.Log.StartRun(ctx, opts.Input, opts.DryRun)
		if startErr != nil {
			logger.Warn("failed to record run start", zap.Error(startErr))
		} else {
			report.RunID = run.ID
			span.SetAttributes(trace.RunIDKey.String(run.ID))
			defer func() {
				if ferr := r.Log.FinishRun(context.WithoutCancel(ctx), run.ID, len(report.Files), err); ferr != nil {
					logger.Warn("failed to record run finish", zap.Error(ferr))
				}
			}()
		}
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
			emit.Emit(progress.Event{Message: err.Error(), Status: progress.StatusError, Metadata: r.meta(report, nil)})
		}
	}()

	inputs, err := chat.CollectInputs(opts.Input)
	if err != nil {
		return report, err
	}

	var present []string
	for _, in := range inputs {
		if _, statErr := os.Stat(in); statErr != nil {
			logger.Warn("skipping missing input", zap.String("input", in))
			emit.Emit(progress.Event{Message: "Skipping missing input " + in, Status: progress.StatusSkipped, Metadata: r.meta(report, map[string]string{"file": in})})
			report.Skipped = append(report.Skipped, in)
			continue
		}
		present = append(present, in)
	}

	results, err := r.processAll(ctx, present, opts, report, emit, logger)
	if err != nil {
		return report, err
	}
	report.Files = results
	span.SetAttributes(trace.FilesKey.Int(len(results)))

	if r.Log != nil && report.RunID != "" && !opts.DryRun {
		for _, f := range results {
			if err := r.Log.AddSummary(ctx, runlog.Summary{RunID: report.RunID, Channel: f.Channel, Date: f.Date, OutputPath: f.Output}); err != nil {
				logger.Warn("failed to record summary", zap.String("output", f.Output), zap.Error(err))
			}
		}
	}

	if opts.DryRun || opts.NoEmail {
		emit.Emit(progress.Event{Message: fmt.Sprintf("Processed %d file(s); email disabled", len(results)), Status: progress.StatusDone, Metadata: r.meta(report, nil)})
		return report, nil
	}
	if len(results) == 0 {
		logger.Warn("no attachments generated; skipping email")
		emit.Emit(progress.Event{Message: "No attachments generated; skipping email", Status: progress.StatusSkipped, Metadata: r.meta(report, nil)})
		return report, nil
	}
	if r.Mailer == nil {
		return report, errors.New("no mailer configured")
	}

	outputs := make([]string, 0, len(results))
	attachments := make([]emailer.Attachment, 0, len(results))
	for _, f := range results {
		outputs = append(outputs, f.Output)
		attachments = append(attachments, emailer.Attachment{
			Filename: filepath.Base(f.Output),
			Content:  []byte(f.Markdown),
			MIMEType: "text/markdown",
		})
	}
	report.Subject = BuildSubject(outputs, r.ConfigName)
	if err := r.Mailer.Send(ctx, r.Config.SMTP, report.Subject, BuildBody(len(results)), attachments); err != nil {
		return report, fmt.Errorf("send report email: %w", err)
	}
	report.Emailed = true
	logger.Info("report email sent", zap.Strings("to", r.Config.SMTP.ToEmails))
	emit.Emit(progress.Event{Message: "Report email sent to " + strings.Join(r.Config.SMTP.ToEmails, ", "), Status: progress.StatusDone, Metadata: r.meta(report, nil)})
	return report, nil
}

// processAll analyzes inputs in parallel; results keep input order.
func (r *Runner) processAll(ctx context.Context, inputs []string, opts Options, report *Report, emit progress.Emitter, logger *zap.Logger) ([]FileResult, error) {
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]FileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			emit.Emit(progress.Event{Message: "Processing " + filepath.Base(in), Status: progress.StatusRunning, Metadata: r.meta(report, map[string]string{"file": in})})
			res, err := r.processFile(gctx, in, opts)
			if err != nil {
				return err
			}
			results[i] = res
			logger.Info("processed", zap.String("input", in), zap.String("output", res.Output))
			emit.Emit(progress.Event{Message: fmt.Sprintf("Processed %s -> %s", in, res.Output), Status: progress.StatusDone, Metadata: r.meta(report, map[string]string{"file": in, "output": res.Output})})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) processFile(ctx context.Context, input string, opts Options) (FileResult, error) {
	export, err := chat.Load(input)
	if err != nil {
		return FileResult{}, fmt.Errorf("load %s: %w", input, err)
	}
	channel := export.ChannelName("channel")
	out := filepath.Join(r.Config.OutputDir, fmt.Sprintf("%s_%s.md", channel, export.Date))

	target := out
	if opts.DryRun {
		target = ""
	}
	md, err := pipeline.Run(ctx, export, r.Provider, target, llm.Metadata{Lang: r.Config.Lang})
	if err != nil {
		return FileResult{}, err
	}
	return FileResult{Input: input, Output: out, Channel: channel, Date: export.Date, Markdown: md}, nil
}

func (r *Runner) meta(report *Report, extra map[string]string) map[string]string {
	m := map[string]string{}
	if report != nil && report.RunID != "" {
		m["run_id"] = report.RunID
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// BuildSubject returns "Discord Bridge Report[ (cfgName)][ - stem, stem...]"
// with file stems sorted and de-duplicated.
func BuildSubject(files []string, cfgName string) string {
	subject := "Discord Bridge Report"
	if cfgName != "" {
		subject += " (" + cfgName + ")"
	}
	if len(files) == 0 {
		return subject
	}
	seen := make(map[string]bool, len(files))
	var stems []string
	for _, f := range files {
		base := filepath.Base(f)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
	}
	sort.Strings(stems)
	return subject + " - " + strings.Join(stems, ", ")
}

// BuildBody is the plain text body of the report mail.
func BuildBody(n int) string {
	return "Discord Bridge processed " + strconv.Itoa(n) + " file(s). See attachments for details."
}

var _ Mailer = (*emailer.Sender)(nil)
