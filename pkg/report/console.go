package report

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/dsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
)

var remediationSteps = []string{
	"A Kaggle account",
	"Downloaded kaggle.json from your Kaggle account settings",
	"Placed kaggle.json in ~/.kaggle/ directory",
	"Set appropriate permissions for kaggle.json (chmod 600)",
}

const windowsCredentialsPath = `C:\Users\<YourUsername>\.kaggle\kaggle.json`

// Console writes human readable progress and failure reports
type Console struct {
	w       io.Writer
	errorC  *color.Color
	okC     *color.Color
	headerC *color.Color
}

var _ interfaces.Reporter = (*Console)(nil)

// NewConsole creates a Console writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:       w,
		errorC:  color.New(color.FgRed, color.Bold),
		okC:     color.New(color.FgGreen),
		headerC: color.New(color.Bold),
	}
}

// Report prints a progress event
func (c *Console) Report(ctx context.Context, event *model.Event) {
	switch event.Type {
	case model.EventAuthenticating:
		c.println("Attempting to authenticate with Kaggle...")
	case model.EventAuthenticated:
		c.okC.Fprintln(c.w, "Successfully authenticated with Kaggle")
	case model.EventDirectoryCreated:
		c.printf("Created data directory at: %s\n", event.Path)
	case model.EventDownloadStarting:
		c.println("Starting dataset download...")
		c.printf("Downloading to: %s\n", event.Path)
	case model.EventFetchingMetadata:
		c.println("Fetching dataset information...")
	case model.EventMetadataFetched:
		c.printf("Dataset size: %d bytes\n", event.Size)
	case model.EventDownloadInitiated:
		c.println("\nInitiating download (this may take several minutes)...")
		c.println("Download progress will be shown below:")
	case model.EventDownloadProgress:
		if event.Total > 0 {
			c.printf("Downloaded %s / %s (%d%%)\n", formatBytes(event.Done), formatBytes(event.Total), event.Done*100/event.Total)
		} else {
			c.printf("Downloaded %s\n", formatBytes(event.Done))
		}
	case model.EventDownloadCompleted:
		c.okC.Fprintln(c.w, "\nDownload completed!")
	case model.EventArchiveFound:
		c.printf("\nFound downloaded zip file: %s\n", event.Path)
	case model.EventExtractionStarted:
		c.println("\nExtracting zip file (this may take a few minutes)...")
	case model.EventExtractionProgress:
		c.printf("Extracted %d/%d files...\n", event.Done, event.Total)
	case model.EventArchiveRemoved:
		c.println("\nRemoved zip file after extraction")
	case model.EventCompleted:
		c.headerC.Fprintln(c.w, "\nExtracted directories:")
		for _, name := range event.Listing {
			c.printf("- %s\n", name)
		}
		c.okC.Fprintln(c.w, "\nDataset downloaded and extracted successfully!")
		c.printf("The dataset is now available in: %s\n", event.Path)
	}
}

// Failure prints the remediation text matching the failure variant
func (c *Console) Failure(ctx context.Context, err error) {
	fetchErr, ok := model.AsFetchError(err)
	if !ok {
		c.errorC.Fprintf(c.w, "\nAn error occurred: %s\n", err.Error())
		return
	}

	switch fetchErr.Kind {
	case model.FailureCredentialsMissing:
		c.errorC.Fprintf(c.w, "Error: kaggle.json not found at %s\n", fetchErr.Path)
		c.println("Please download kaggle.json from your Kaggle account settings")
		return

	case model.FailureArchiveNotFound:
		c.errorC.Fprintln(c.w, "Error: No zip file was downloaded")
		return
	}

	c.errorC.Fprintf(c.w, "\nAn error occurred: %s\n", fetchErr.Error())
	if hint := hintFor(fetchErr); hint != "" {
		c.println(hint)
	}

	c.headerC.Fprintln(c.w, "\nPlease make sure you have:")
	for i, step := range remediationSteps {
		c.printf("%d. %s\n", i+1, step)
	}
	c.headerC.Fprintln(c.w, "\nFor Windows users:")
	c.printf("The kaggle.json should be in: %s\n", windowsCredentialsPath)

	if diag := fetchErr.Diagnostics; diag != nil {
		c.headerC.Fprintln(c.w, "\nDebugging information:")
		c.printf("Current working directory: %s\n", diag.WorkingDir)
		c.printf("Data directory exists: %t\n", diag.OutputDirExists)
		if diag.OutputDirExists {
			c.println("Contents of data directory:")
			c.printf("%v\n", diag.Listing)
		}
	}
}

func hintFor(err *model.FetchError) string {
	switch err.Kind {
	case model.FailureAuthentication:
		return "Kaggle did not accept the credentials; check that the key in kaggle.json is current."
	case model.FailureDownload:
		return "The dataset could not be retrieved; check the dataset name and your network connection."
	case model.FailureExtraction:
		if err.Partial {
			return fmt.Sprintf("Extraction stopped partway; the archive was kept at %s.", err.Path)
		}
		if err.Path != "" {
			return fmt.Sprintf("The archive at %s could not be extracted.", err.Path)
		}
	}
	return ""
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.w, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
