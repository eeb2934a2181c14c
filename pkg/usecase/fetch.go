package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/dsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultProgressInterval = 100
	downloadPercentStep     = 10
	downloadByteStep        = 10 << 20
)

// Fetcher downloads a dataset archive, extracts it and removes the archive
type Fetcher struct {
	api              interfaces.DatasetAPI
	reporter         interfaces.Reporter
	progressInterval int
}

var _ interfaces.FetchUseCase = (*Fetcher)(nil)

// FetcherOption is a functional option for Fetcher configuration
type FetcherOption func(*Fetcher)

// WithProgressInterval sets how many extracted entries separate two progress events
func WithProgressInterval(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.progressInterval = n
		}
	}
}

// NewFetcher creates a new Fetcher
func NewFetcher(api interfaces.DatasetAPI, reporter interfaces.Reporter, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		api:              api,
		reporter:         reporter,
		progressInterval: defaultProgressInterval,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Run performs the whole fetch sequence. Every failure is returned as *model.FetchError.
func (f *Fetcher) Run(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error) {
	logger := ctxlog.From(ctx)

	logger.Debug("Starting dataset fetch",
		"dataset", req.Dataset.String(),
		"output_dir", req.OutputDir,
		"credentials_path", req.CredentialsPath,
	)

	// Nothing may touch the filesystem before this check
	if _, err := os.Stat(req.CredentialsPath); err != nil {
		return nil, &model.FetchError{
			Kind:  model.FailureCredentialsMissing,
			Path:  req.CredentialsPath,
			Cause: goerr.Wrap(err, "credentials file is not accessible", goerr.V("path", req.CredentialsPath)),
		}
	}

	f.report(ctx, &model.Event{Type: model.EventAuthenticating})
	if err := f.api.Authenticate(ctx, req.CredentialsPath); err != nil {
		return nil, f.fail(ctx, req, model.FailureAuthentication, goerr.Wrap(err, "failed to authenticate"))
	}
	f.report(ctx, &model.Event{Type: model.EventAuthenticated})

	created, err := ensureDir(req.OutputDir)
	if err != nil {
		return nil, f.fail(ctx, req, model.FailureDownload, err)
	}
	if created {
		f.report(ctx, &model.Event{Type: model.EventDirectoryCreated, Path: req.OutputDir})
	}

	f.report(ctx, &model.Event{Type: model.EventDownloadStarting, Path: req.OutputDir})
	f.report(ctx, &model.Event{Type: model.EventFetchingMetadata})

	dataset, err := f.api.GetDataset(ctx, req.Dataset)
	if err != nil {
		return nil, f.fail(ctx, req, classifyAPIError(err),
			goerr.Wrap(err, "failed to fetch dataset metadata", goerr.V("dataset", req.Dataset.String())))
	}
	f.report(ctx, &model.Event{Type: model.EventMetadataFetched, Size: dataset.TotalBytes})

	f.report(ctx, &model.Event{Type: model.EventDownloadInitiated})
	progress := &downloadProgress{emit: func(written, total int64) {
		f.report(ctx, &model.Event{Type: model.EventDownloadProgress, Done: written, Total: total})
	}}
	if err := f.api.DownloadDataset(ctx, req.Dataset, req.OutputDir, progress.update); err != nil {
		return nil, f.fail(ctx, req, classifyAPIError(err),
			goerr.Wrap(err, "failed to download dataset", goerr.V("dataset", req.Dataset.String())))
	}
	f.report(ctx, &model.Event{Type: model.EventDownloadCompleted})

	archivePath, err := findArchive(req.OutputDir)
	if err != nil {
		return nil, f.fail(ctx, req, model.FailureDownload, err)
	}
	if archivePath == "" {
		return nil, f.fail(ctx, req, model.FailureArchiveNotFound,
			goerr.New("no archive found after download", goerr.V("dir", req.OutputDir)))
	}
	f.report(ctx, &model.Event{Type: model.EventArchiveFound, Path: archivePath})

	f.report(ctx, &model.Event{Type: model.EventExtractionStarted, Path: archivePath})
	extracted, err := extractArchive(ctx, archivePath, req.OutputDir, func(done, total int) {
		if done%f.progressInterval == 0 {
			f.report(ctx, &model.Event{Type: model.EventExtractionProgress, Done: int64(done), Total: int64(total)})
		}
	})
	if err != nil {
		// The archive stays on disk when extraction fails
		fetchErr := f.fail(ctx, req, model.FailureExtraction, err)
		fetchErr.Partial = extracted.touched
		fetchErr.Path = archivePath
		return nil, fetchErr
	}

	if err := os.Remove(archivePath); err != nil {
		fetchErr := f.fail(ctx, req, model.FailureExtraction,
			goerr.Wrap(err, "failed to remove archive", goerr.V("path", archivePath)))
		fetchErr.Path = archivePath
		return nil, fetchErr
	}
	f.report(ctx, &model.Event{Type: model.EventArchiveRemoved, Path: archivePath})

	listing, err := listDir(req.OutputDir)
	if err != nil {
		return nil, f.fail(ctx, req, model.FailureExtraction, err)
	}
	f.report(ctx, &model.Event{Type: model.EventCompleted, Path: req.OutputDir, Listing: listing})

	logger.Info("Dataset fetched",
		"dataset", req.Dataset.String(),
		"output_dir", req.OutputDir,
		"file_count", len(extracted.files),
		"total_size_bytes", extracted.size,
	)

	return &model.FetchResult{
		OutputDir:   req.OutputDir,
		ArchivePath: archivePath,
		Files:       extracted.files,
		Size:        extracted.size,
		Listing:     listing,
	}, nil
}

func (f *Fetcher) report(ctx context.Context, event *model.Event) {
	if f.reporter != nil {
		f.reporter.Report(ctx, event)
	}
}

// fail builds a FetchError carrying the filesystem context at the time of failure
func (f *Fetcher) fail(ctx context.Context, req *model.FetchRequest, kind model.FailureKind, cause error) *model.FetchError {
	ctxlog.From(ctx).Debug("Dataset fetch failed",
		"kind", kind.String(),
		"error", cause,
	)

	return &model.FetchError{
		Kind:        kind,
		Diagnostics: collectDiagnostics(req.OutputDir),
		Cause:       cause,
	}
}

func classifyAPIError(err error) model.FailureKind {
	if errors.Is(err, model.ErrUnauthorized) {
		return model.FailureAuthentication
	}
	return model.FailureDownload
}

// ensureDir creates dir if it does not exist and reports whether it did so
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, goerr.New("output path exists and is not a directory", goerr.V("path", dir))
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, goerr.Wrap(err, "failed to stat output directory", goerr.V("path", dir))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, goerr.Wrap(err, "failed to create output directory", goerr.V("path", dir))
	}
	return true, nil
}

// findArchive returns the first regular file in dir ending with the archive extension, or ""
func findArchive(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read output directory", goerr.V("path", dir))
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), model.ArchiveExtension) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list directory", goerr.V("path", dir))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func collectDiagnostics(outputDir string) *model.Diagnostics {
	diag := &model.Diagnostics{OutputDir: outputDir}

	if wd, err := os.Getwd(); err == nil {
		diag.WorkingDir = wd
	}

	if info, err := os.Stat(outputDir); err == nil && info.IsDir() {
		diag.OutputDirExists = true
		if listing, err := listDir(outputDir); err == nil {
			diag.Listing = listing
		}
	}

	return diag
}

// downloadProgress turns per-write byte counts into coarse progress events
type downloadProgress struct {
	emit func(written, total int64)
	last int64
}

func (p *downloadProgress) update(written, total int64) {
	var bucket int64
	if total > 0 {
		bucket = written * 100 / total / downloadPercentStep
	} else {
		bucket = written / downloadByteStep
	}

	if bucket > p.last {
		p.last = bucket
		p.emit(written, total)
	}
}
