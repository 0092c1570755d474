// Package pipeline wires inputs, the schedule core and the output writers
// into the runs the CLI and the server perform.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"custodycal/internal/capture"
	"custodycal/internal/config"
	"custodycal/internal/ics"
	"custodycal/internal/input"
	appLog "custodycal/internal/log"
	"custodycal/internal/metrics"
	"custodycal/internal/model"
	"custodycal/internal/render"
	"custodycal/internal/schedule"
)

// Pipeline builds plans from the configured inputs and writes the
// configured outputs. Files are read and written through fs.
type Pipeline struct {
	cfg     *config.Config
	fs      afero.Fs
	metrics *metrics.Recorder

	// Now stamps generated files. Tests replace it.
	Now func() time.Time
}

// New builds a Pipeline. A nil fs means the OS filesystem; a nil
// recorder records nothing.
func New(cfg *config.Config, fsys afero.Fs, rec *metrics.Recorder) *Pipeline {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Pipeline{cfg: cfg, fs: fsys, metrics: rec, Now: time.Now}
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Build loads every input and runs the schedule core. Only a missing or
// invalid mandatory input is an error; everything else is logged and
// collected in Plan.Warnings.
func (p *Pipeline) Build() (*schedule.Plan, error) {
	started := time.Now()
	loader := input.NewLoader(p.fs, p.cfg.InputDir)

	in, problems, err := loader.LoadPlanInput(p.cfg.Files)
	if err != nil {
		p.metrics.RecordBuild(metrics.BuildResult{Duration: time.Since(started), Err: err})
		return nil, err
	}
	in.Problems = problems
	plan, err := schedule.NewPlan(in)
	if err != nil {
		p.metrics.RecordBuild(metrics.BuildResult{Duration: time.Since(started), Err: err})
		return nil, err
	}

	p.metrics.RecordBuild(metrics.BuildResult{
		Duration:  time.Since(started),
		Malformed: len(problems),
		Warnings:  len(plan.Warnings),
		Days:      len(plan.Days),
	})
	return plan, nil
}

// RenderOptions are the presentation settings from config.
func (p *Pipeline) RenderOptions() render.Options {
	return render.Options{Custodians: p.cfg.Custodians, StylesheetHref: p.cfg.Outputs.CSS}
}

// Events projects the export events in the configured timezone and
// records their per-custodian counts.
func (p *Pipeline) Events(plan *schedule.Plan) ([]model.Event, error) {
	loc, err := p.cfg.Location()
	if err != nil {
		return nil, err
	}
	events, err := plan.Events(loc)
	if err != nil {
		p.metrics.RecordEvents(nil)
		return nil, err
	}
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.Custodian]++
	}
	p.metrics.RecordEvents(counts)
	return events, nil
}

// WriteCSS writes the stylesheet to path.
func (p *Pipeline) WriteCSS(plan *schedule.Plan, path string) error {
	return p.writeFile(path, func(w io.Writer) error {
		return render.WriteCSS(w, p.RenderOptions().ForPlan(plan))
	})
}

// WriteHTML writes the calendar page to path. Export links point at the
// configured ICS and audit files.
func (p *Pipeline) WriteHTML(plan *schedule.Plan, path string) error {
	return p.writeFile(path, func(w io.Writer) error {
		return render.WriteHTML(w, plan, p.RenderOptions(), p.cfg.Outputs.ICS, p.cfg.Outputs.Audit)
	})
}

// WriteLookupJSON writes the daily lookup to path.
func (p *Pipeline) WriteLookupJSON(plan *schedule.Plan, path string) error {
	return p.writeFile(path, func(w io.Writer) error {
		return render.WriteLookupJSON(w, plan)
	})
}

// WriteAudit writes the audit CSV to path.
func (p *Pipeline) WriteAudit(plan *schedule.Plan, path string) error {
	return p.writeFile(path, func(w io.Writer) error {
		return render.WriteAudit(w, plan, p.RenderOptions(), p.Now())
	})
}

// WriteICS writes the event export to path. When no events are generated
// it returns an error wrapping schedule.ErrNoEventsGenerated and writes
// nothing. The feed is read back before it is written; a feed that does
// not hold every event is an error.
func (p *Pipeline) WriteICS(plan *schedule.Plan, path string) error {
	events, err := p.Events(plan)
	if err != nil {
		return err
	}
	return p.writeFile(path, func(w io.Writer) error {
		var buf bytes.Buffer
		if err := ics.Encode(&buf, events, p.ICSOptions()); err != nil {
			return err
		}
		if err := verifyICS(buf.Bytes(), len(events)); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// verifyICS checks that feed parses back into want events.
func verifyICS(feed []byte, want int) error {
	got, err := ics.ReadEvents(bytes.NewReader(feed), time.UTC)
	if err != nil {
		return fmt.Errorf("pipeline: ics read-back: %w", err)
	}
	if len(got) != want {
		return fmt.Errorf("pipeline: ics read-back: %d of %d events readable", len(got), want)
	}
	return nil
}

// ICSOptions is the calendar envelope for exports.
func (p *Pipeline) ICSOptions() ics.Options {
	tz := p.cfg.Timezone
	if tz == "Local" {
		tz = ""
	}
	return ics.Options{Timezone: tz, Stamp: p.Now()}
}

// WritePNG captures pageURL and writes the PNG to path.
func (p *Pipeline) WritePNG(ctx context.Context, pageURL, path string) error {
	png, err := capture.CalendarPNG(ctx, capture.Options{URL: pageURL})
	if err != nil {
		return err
	}
	return p.writeFile(path, func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	})
}

// HTMLFileURL is the file:// URL of the generated page. It needs the OS
// filesystem, since Chromium opens the file itself.
func (p *Pipeline) HTMLFileURL() (string, error) {
	if _, ok := p.fs.(*afero.OsFs); !ok {
		return "", errors.New("pipeline: page capture needs the OS filesystem")
	}
	if p.cfg.Outputs.HTML == "" {
		return "", errors.New("pipeline: no html output configured")
	}
	return capture.FileURL(p.cfg.OutputPath(p.cfg.Outputs.HTML))
}

// Generate writes every configured output. A missing event export is
// only a warning; any other failure stops the run.
func (p *Pipeline) Generate(ctx context.Context, plan *schedule.Plan) ([]string, error) {
	out := p.cfg.Outputs
	var written []string

	steps := []struct {
		name  string
		write func(*schedule.Plan, string) error
	}{
		{out.CSS, p.WriteCSS},
		{out.HTML, p.WriteHTML},
		{out.LookupJSON, p.WriteLookupJSON},
		{out.Audit, p.WriteAudit},
		{out.ICS, p.WriteICS},
	}
	for _, s := range steps {
		if s.name == "" {
			continue
		}
		path := p.cfg.OutputPath(s.name)
		if err := s.write(plan, path); err != nil {
			if errors.Is(err, schedule.ErrNoEventsGenerated) {
				appLog.Warn("no events generated; ics export skipped", "file", path)
				continue
			}
			return written, err
		}
		written = append(written, path)
	}

	if out.PNG != "" {
		pageURL, err := p.HTMLFileURL()
		if err != nil {
			return written, err
		}
		path := p.cfg.OutputPath(out.PNG)
		if err := p.WritePNG(ctx, pageURL, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	appLog.Info("outputs generated", "files", len(written), "output_dir", p.cfg.OutputDir)
	return written, nil
}

func (p *Pipeline) writeFile(path string, fill func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}
	if err := afero.WriteFile(p.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	appLog.Debug("file written", "path", path, "bytes", buf.Len())
	return nil
}
