// Package packager runs the full pipeline: collect, archive, encode,
// resolve the entry point, render the bootstrap and quote the command.
package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tristendillon/dashc/core/archive"
	"github.com/tristendillon/dashc/core/config"
	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/entrypoint"
	"github.com/tristendillon/dashc/core/generator"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
	"github.com/tristendillon/dashc/core/payload"
	"github.com/tristendillon/dashc/core/shell"
	"github.com/tristendillon/dashc/core/walker"
)

// DefaultPython is the interpreter named in commands when none is configured
const DefaultPython = "python3"

// ScriptHeader starts every script written by WriteScript
const ScriptHeader = "#!/usr/bin/env bash\n"

// Request describes one packaging run
type Request struct {
	Source walker.Descriptor
	// Entry is an explicit "module" or "module:function" reference; empty
	// auto-detects
	Entry       string
	Mode        models.ArchiveMode
	Encoding    models.Encoding
	Readonly    bool
	Python      string
	Quoting     shell.Strategy
	TemplateDir string
	Exclude     []string
	// Verify re-parses the command in-process and checks the program text
	// survives quoting
	Verify bool
}

// Result is the outcome of a packaging run
type Result struct {
	Command   string
	Bootstrap string
	Entry     models.EntryPoint
	// Warnings are non-fatal, e.g. an ambiguous auto-detected entry point
	Warnings []error
	Manifest archive.Manifest
}

// RequestFromConfig converts a loaded config into a request for src
func RequestFromConfig(cfg *config.Config, src walker.Descriptor) (Request, error) {
	mode, err := models.ParseArchiveMode(cfg.Mode)
	if err != nil {
		return Request{}, dasherr.Wrap(dasherr.ConfigInvalid, cfg.Path, "invalid mode", err)
	}
	encoding, err := models.ParseEncoding(cfg.Compression)
	if err != nil {
		return Request{}, dasherr.Wrap(dasherr.ConfigInvalid, cfg.Path, "invalid compression", err)
	}
	quoting, err := shell.ParseStrategy(cfg.Quoting)
	if err != nil {
		return Request{}, dasherr.Wrap(dasherr.ConfigInvalid, cfg.Path, "invalid quoting", err)
	}

	return Request{
		Source:      src,
		Entry:       cfg.Entry,
		Mode:        mode,
		Encoding:    encoding,
		Readonly:    cfg.Readonly,
		Python:      cfg.Python,
		Quoting:     quoting,
		TemplateDir: cfg.TemplateDir,
		Exclude:     cfg.Exclude,
	}, nil
}

// Invocation returns the interpreter words placed before the program text
func Invocation(python string, readonly bool) []string {
	if python == "" {
		python = DefaultPython
	}
	if readonly {
		return []string{python, "-B", "-c"}
	}
	return []string{python, "-c"}
}

// Package runs the pipeline for one request. Identical requests over
// identical sources produce identical commands.
func Package(ctx context.Context, req Request) (*Result, error) {
	sw := walker.NewSourceWalker(req.Mode, req.Exclude)
	collection, err := sw.Collect(req.Source)
	if err != nil {
		return nil, err
	}
	logger.Debug("Collected %d modules (%d archive members)", collection.Table.Len(), len(collection.Members))

	archiveBytes, err := archive.Pack(collection, req.Mode)
	if err != nil {
		return nil, err
	}

	encoded, err := payload.Encode(archiveBytes, req.Encoding)
	if err != nil {
		return nil, err
	}

	resolution, err := entrypoint.Resolve(req.Entry, collection)
	if err != nil {
		return nil, err
	}

	bg, err := generator.NewBootstrapGenerator(req.TemplateDir)
	if err != nil {
		return nil, err
	}
	bootstrap, err := bg.Generate(collection, req.Mode, encoded, resolution.Entry, req.Readonly)
	if err != nil {
		return nil, err
	}

	command, err := shell.Assemble(Invocation(req.Python, req.Readonly), bootstrap, req.Quoting)
	if err != nil {
		return nil, err
	}

	if req.Verify {
		if err := shell.Verify(ctx, command, bootstrap); err != nil {
			return nil, err
		}
		logger.Debug("Verified %s quoting round trip", req.Quoting)
	}

	mb := archive.NewManifestBuilder(req.Mode, req.Encoding)
	mb.AddCollection(collection)
	mb.SetEntry(resolution.Entry)
	mb.SetSizes(len(archiveBytes), len(encoded.Text), len(command))

	return &Result{
		Command:   command,
		Bootstrap: bootstrap,
		Entry:     resolution.Entry,
		Warnings:  resolution.Warnings,
		Manifest:  mb.Build(),
	}, nil
}

// PackageAll packages every request with at most workers running at once.
// Results keep request order; the first failure cancels the rest.
func PackageAll(ctx context.Context, reqs []Request, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Package(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteScript writes command as an executable bash script
func WriteScript(path, command string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ScriptHeader+command+"\n"), 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(path, 0755)
}
