package types

type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

// Supported reports whether a generation strategy exists for the type.
func (t ContentType) Supported() bool {
	return t == ContentTypeImage || t == ContentTypeVideo
}
