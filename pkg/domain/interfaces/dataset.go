package interfaces

import (
	"context"

	"github.com/m-mizutani/dsfetch/pkg/domain/model"
)

// ProgressFunc receives the number of bytes written so far and the expected total (0 if unknown)
type ProgressFunc func(written, total int64)

// DatasetAPI defines operations for interacting with the dataset hosting API
type DatasetAPI interface {
	// Authenticate loads the credentials used by every later call
	Authenticate(ctx context.Context, credentialsPath string) error

	// GetDataset retrieves metadata of a dataset
	GetDataset(ctx context.Context, ref model.DatasetRef) (*model.Dataset, error)

	// DownloadDataset stores the dataset archive in destDir without extracting it
	DownloadDataset(ctx context.Context, ref model.DatasetRef, destDir string, progress ProgressFunc) error
}
