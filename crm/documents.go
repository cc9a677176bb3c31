package crm

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/wayhome/wayhome-go/api"
	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

type Document struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	PropertyID string    `json:"property_id,omitempty"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

type DocumentService struct {
	dispatcher *api.Dispatcher
}

func (s *DocumentService) List(ctx context.Context, propertyID string, page Page) (Paged[Document], error) {
	query := page.apply(nil)
	query.Set("property_id", propertyID)
	return decodePaged[Document](s.dispatcher.Get(ctx, "/documents", query))
}

// Upload streams a file as multipart form data attached to a property.
// The content is buffered so the dispatcher can replay it on a 401 retry.
func (s *DocumentService) Upload(ctx context.Context, propertyID, filename string, content io.Reader) (*Document, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("property_id", propertyID); err != nil {
		return nil, interrors.Wrapf(err, "[DocumentService.Upload] write field")
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, interrors.Wrapf(err, "[DocumentService.Upload] create form file")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, interrors.Wrapf(err, "[DocumentService.Upload] copy content")
	}
	if err := writer.Close(); err != nil {
		return nil, interrors.Wrapf(err, "[DocumentService.Upload] close writer")
	}

	result := s.dispatcher.Do(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        "/documents",
		RawBody:     buf.Bytes(),
		ContentType: writer.FormDataContentType(),
	})
	return decodeOne[Document](result)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.dispatcher.Delete(ctx, "/documents/"+url.PathEscape(id)).Err()
}
