package fetcher

import (
	"context"

	"github.com/hfadhel/consolepull/internal/catalog"
)

type Fetcher interface {
	Fetch(ctx context.Context, descriptor catalog.DatasetDescriptor) FetchOutcome
}
