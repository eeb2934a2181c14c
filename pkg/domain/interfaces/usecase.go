package interfaces

import (
	"context"

	"github.com/m-mizutani/dsfetch/pkg/domain/model"
)

// Reporter presents fetch progress and failures to the user
type Reporter interface {
	Report(ctx context.Context, event *model.Event)
	Failure(ctx context.Context, err error)
}

// FetchUseCase defines the dataset fetch workflow
type FetchUseCase interface {
	Run(ctx context.Context, req *model.FetchRequest) (*model.FetchResult, error)
}
