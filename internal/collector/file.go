package collector

import (
	"context"
	"fmt"
	"os"

	"TradeTerminal/internal/model"
)

// FileFetcher serves a recorded batch from a JSON file. The file is re-read on
// every call and served as recorded, whatever symbols or period are asked for.
type FileFetcher struct {
	Path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{Path: path}
}

func (f *FileFetcher) Name() string { return "file" }

func (f *FileFetcher) FetchBatch(ctx context.Context, _ []string, _ string) (model.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return model.EmptyBatch(), err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return model.EmptyBatch(), fmt.Errorf("read batch file: %w", err)
	}
	return model.DecodeBatch(data)
}
