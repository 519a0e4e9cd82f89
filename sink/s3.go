package sink

import (
	"context"
	"path"

	"wordforms.dev/declensions/types"
)

type uploader interface {
	Upload(ctx context.Context, key string, data []byte) error
}

// S3Sink uploads every group to <Prefix>/<key>.txt. Objects are always
// overwritten.
type S3Sink struct {
	client uploader
	Prefix string
}

func NewS3Sink(client uploader, prefix string) *S3Sink {
	return &S3Sink{client: client, Prefix: prefix}
}

func (s *S3Sink) Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error) {
	counter := 0
	for _, key := range dict.Keys() {
		group, _ := dict.Group(key)
		if err := s.client.Upload(ctx, path.Join(s.Prefix, FileName(key)), Render(group)); err != nil {
			return counter, err
		}
		counter += group.Len()
	}
	return counter, nil
}
