package storage

import "context"

type UploadObject struct {
	Bucket string
	Key    string
	Data   []byte
	Mime   string
}

type UploadResponse struct {
	URL string
	Key string
}

type Storage interface {
	Upload(ctx context.Context, object *UploadObject) (*UploadResponse, error)
}
