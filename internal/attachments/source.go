package attachments

import (
	"bytes"
	"io"
	"os"
)

// FileSource is a file handed over by the picker or drag-and-drop layer.
type FileSource struct {
	Name      string
	MediaType string
	Open      func() (io.ReadCloser, error)
}

// BytesSource wraps in-memory content.
func BytesSource(name, mediaType string, data []byte) FileSource {
	return FileSource{
		Name:      name,
		MediaType: mediaType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// PathSource reads the file at path when the attachment is encoded.
func PathSource(path, name, mediaType string) FileSource {
	return FileSource{
		Name:      name,
		MediaType: mediaType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
