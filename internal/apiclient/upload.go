package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

const (
	ImageUploadPath = "/upload/image"
	FileUploadPath  = "/upload/file"
)

// ErrMissingUploadURL means the upload endpoint succeeded without returning a url
var ErrMissingUploadURL = errors.New("upload response missing url")

type UploadResponse struct {
	URL string `json:"url"`
}

// UploadImage submits an image as multipart form data and returns its public URL
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	return c.upload(ctx, ImageUploadPath, filename, r)
}

// UploadFile submits a document, e.g. a resume, and returns its public URL
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	return c.upload(ctx, FileUploadPath, filename, r)
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	header := http.Header{}
	header.Set("content-type", mw.FormDataContentType())

	var out UploadResponse
	err = c.RequestJSON(ctx, path, Options{
		Method: http.MethodPost,
		Header: header,
		Body:   buf.Bytes(),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", ErrMissingUploadURL
	}

	c.logger.Info().Str("path", path).Str("filename", filepath.Base(filename)).Msg("📤 Upload finished")
	return out.URL, nil
}
