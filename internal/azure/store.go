package azure

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// ObjectStore is the slice of blob storage the snapshot archive needs
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// ContainerStore keeps objects in a single Azure Blob Storage container
type ContainerStore struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

var _ ObjectStore = (*ContainerStore)(nil)

// NewContainerStore creates a shared-key client for one container
func NewContainerStore(accountName, accountKey, container string, logger *zap.Logger) (*ContainerStore, error) {
	if accountName == "" || accountKey == "" || container == "" {
		return nil, fmt.Errorf("account name, account key and container are required")
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &ContainerStore{
		client:    client,
		container: container,
		logger:    logger,
	}, nil
}

// EnsureContainer creates the container unless it already exists
func (s *ContainerStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err == nil {
		s.logger.Info("created archive container", zap.String("container", s.container))
		return nil
	}
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return fmt.Errorf("failed to create container %s: %w", s.container, err)
}

// Put uploads data as a block blob
func (s *ContainerStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if name == "" {
		return fmt.Errorf("blob name is required")
	}

	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		s.logger.Error("failed to upload blob", zap.String("blob_name", name), zap.Error(err))
		return fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Debug("blob uploaded", zap.String("blob_name", name), zap.Int("size_bytes", len(data)))
	return nil
}

// Get downloads a whole blob
func (s *ContainerStore) Get(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("blob name is required")
	}

	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("blob not found: %s", name)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob data: %w", err)
	}
	return data, nil
}

// List returns blob names under prefix in lexical order
func (s *ContainerStore) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}
