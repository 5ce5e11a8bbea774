package datasource

import (
	"context"
	"fmt"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/filetree"
)

// ArtifactTree lists one directory of a run's artifacts, following every page, and nests the result.
func ArtifactTree(ctx context.Context, store RunStore, runId, path string) (*filetree.Tree, error) {
	records, err := listAllArtifacts(ctx, store, runId, path)
	if err != nil {
		return nil, err
	}
	return filetree.Build(path, records), nil
}

// ExpandArtifactDir fetches the directory at path and attaches it to tree in place.
func ExpandArtifactDir(ctx context.Context, store RunStore, tree *filetree.Tree, runId, path string) error {
	records, err := listAllArtifacts(ctx, store, runId, path)
	if err != nil {
		return err
	}
	if !tree.Expand(path, records) {
		return fmt.Errorf("no folder %q in the artifact tree of run %s", path, runId)
	}
	return nil
}

func listAllArtifacts(ctx context.Context, store RunStore, runId, path string) ([]filetree.Record, error) {
	records := make([]filetree.Record, 0)
	pageToken := ""
	seen := make(map[string]struct{})
	for {
		listing, err := store.ListArtifacts(ctx, runId, path, pageToken)
		if err != nil {
			return nil, err
		}
		records = append(records, listing.Files...)

		if listing.NextPageToken == "" {
			return records, nil
		}
		if _, ok := seen[listing.NextPageToken]; ok {
			return nil, fmt.Errorf("artifact listing of run %s repeats page token %q", runId, listing.NextPageToken)
		}
		seen[listing.NextPageToken] = struct{}{}
		pageToken = listing.NextPageToken
	}
}
