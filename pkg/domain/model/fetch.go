package model

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// ErrUnauthorized is wrapped by API clients when the remote service rejects the credentials
var ErrUnauthorized = goerr.New("unauthorized by dataset API")

// FetchRequest describes a single fetch run
type FetchRequest struct {
	Dataset         DatasetRef
	OutputDir       string // Absolute path of the output directory
	CredentialsPath string // Path to kaggle.json
}

// FetchResult represents the result of a download and extraction
type FetchResult struct {
	OutputDir   string   // Directory holding the extracted dataset
	ArchivePath string   // Path of the archive, already removed
	Files       []string // Extracted entry names in archive order
	Size        int64    // Total uncompressed size in bytes
	Listing     []string // Top-level contents of OutputDir
}

// Diagnostics is the filesystem context captured when a run fails
type Diagnostics struct {
	WorkingDir      string
	OutputDir       string
	OutputDirExists bool
	Listing         []string
}

// FailureKind classifies why a fetch run stopped
type FailureKind int

const (
	FailureCredentialsMissing FailureKind = iota + 1
	FailureAuthentication
	FailureDownload
	FailureArchiveNotFound
	FailureExtraction
)

func (k FailureKind) String() string {
	switch k {
	case FailureCredentialsMissing:
		return "credentials_missing"
	case FailureAuthentication:
		return "authentication_failed"
	case FailureDownload:
		return "download_failed"
	case FailureArchiveNotFound:
		return "archive_not_found"
	case FailureExtraction:
		return "extraction_failed"
	default:
		return "unknown"
	}
}

// FetchError is the error returned by a failed fetch run
type FetchError struct {
	Kind        FailureKind
	Partial     bool   // Extraction created files or directories before failing
	Path        string // Credentials path or archive path, depending on Kind
	Diagnostics *Diagnostics
	Cause       error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailureCredentialsMissing:
		return fmt.Sprintf("credentials file not found at %s", e.Path)
	case FailureArchiveNotFound:
		return "no zip file was downloaded"
	}

	if e.Cause == nil {
		return e.Kind.String()
	}
	return e.Cause.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// AsFetchError returns the FetchError in err's chain, if any
func AsFetchError(err error) (*FetchError, bool) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr, true
	}
	return nil, false
}

// ExitCodeOf maps an error returned by a run to a process exit code
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}

	fetchErr, ok := AsFetchError(err)
	if !ok {
		return 1
	}

	switch fetchErr.Kind {
	case FailureCredentialsMissing:
		return 2
	case FailureAuthentication:
		return 3
	case FailureDownload:
		return 4
	case FailureArchiveNotFound:
		return 5
	case FailureExtraction:
		return 6
	default:
		return 1
	}
}
