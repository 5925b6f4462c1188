// Package assets turns a completed job into locally persisted files.
package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/wan2gp/wanctl/pkg/models"
	"github.com/wan2gp/wanctl/pkg/remote"
)

// Saver persists one asset's bytes and returns an opaque locator
type Saver interface {
	Save(data []byte, fileName, mimeType string) (string, error)
}

// Materializer downloads every result asset of a completed job and
// hands each one to the saver exactly once. Assets are processed in
// server order and the returned locators preserve that order. If any
// single download or save fails the whole call fails: a job is either
// fully materialized or not at all, there is no partial Completed
// state.
type Materializer struct {
	client *remote.Client
	saver  Saver
}

// NewMaterializer creates a materializer using the given transport and saver
func NewMaterializer(client *remote.Client, saver Saver) *Materializer {
	return &Materializer{client: client, saver: saver}
}

// Materialize lists, downloads and persists every asset of jobID
func (m *Materializer) Materialize(ctx context.Context, jobID string) ([]string, error) {
	jobAssets, err := m.client.Assets(ctx, jobID)
	if err != nil {
		return nil, err
	}

	locators := make([]string, 0, len(jobAssets))
	for i, asset := range jobAssets {
		url := ResolveAssetURL(m.client.BaseURL(), asset.URL)

		data, err := m.client.Download(ctx, url)
		if err != nil {
			return nil, wrapAssetError(asset, i, err)
		}

		fileName := asset.FileName
		if fileName == "" {
			fileName = fmt.Sprintf("wan2gp_%s_%d", jobID, i)
		}
		mimeType := asset.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		locator, err := m.saver.Save(data, fileName, mimeType)
		if err != nil {
			return nil, wrapAssetError(asset, i, &remote.Error{
				Kind:    remote.ErrAssetDownload,
				Message: fmt.Sprintf("failed to persist asset: %v", err),
			})
		}
		locators = append(locators, locator)
	}
	return locators, nil
}

// ResolveAssetURL turns an asset URL into an absolute one. Absolute
// URLs pass through unchanged; relative ones are joined onto the base
// address with exactly one slash at the seam.
func ResolveAssetURL(base, raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(raw, "/")
}

func wrapAssetError(asset models.Asset, index int, err error) error {
	name := asset.ID
	if name == "" {
		name = fmt.Sprintf("#%d", index)
	}
	if re, ok := remote.AsError(err); ok {
		return &remote.Error{
			Kind:    remote.ErrAssetDownload,
			Message: fmt.Sprintf("asset %s: %s", name, re.Message),
		}
	}
	return &remote.Error{
		Kind:    remote.ErrAssetDownload,
		Message: fmt.Sprintf("asset %s: %v", name, err),
	}
}
