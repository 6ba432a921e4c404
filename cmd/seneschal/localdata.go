package main

import (
	"context"
	"os"

	"github.com/vanastassiou/seneschal/internal/jsonx"
	"github.com/vanastassiou/seneschal/internal/syncer"
	"github.com/vanastassiou/seneschal/internal/utils"
)

// fileAccessor keeps the local data snapshot in a JSON file. A missing file
// reads as nil data, the never-synced state.
type fileAccessor struct {
	path string
}

var _ syncer.LocalAccessor = (*fileAccessor)(nil)

func newFileAccessor(path string) *fileAccessor {
	return &fileAccessor{path: path}
}

func (f *fileAccessor) GetLocalData(ctx context.Context) (any, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data any
	if err := jsonx.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *fileAccessor) SetLocalData(ctx context.Context, data any) error {
	raw, err := jsonx.Marshal(data)
	if err != nil {
		return err
	}
	if err := utils.EnsureParent(f.path); err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0600)
}
