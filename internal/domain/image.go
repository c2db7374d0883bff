package domain

// Image описывает изображение, загруженное из S3.
type Image struct {
	Key         string
	Bytes       []byte
	ContentType string
}

func NewImage(key string, data []byte, contentType string) *Image {
	return &Image{
		Key:         key,
		Bytes:       data,
		ContentType: contentType,
	}
}
