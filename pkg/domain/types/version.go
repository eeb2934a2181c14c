package types

// Version is set during build via -ldflags "-X github.com/m-mizutani/dsfetch/pkg/domain/types.Version=X.Y.Z"
var Version = "dev"
