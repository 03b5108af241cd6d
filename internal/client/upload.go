package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"bankview/internal/log"
)

// Upload sends statement files to the backend for parsing and returns
// the analysis id assigned to the batch. The caller is responsible for
// storing the id as the active scope.
func (c *Client) Upload(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no files to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, path := range paths {
		if err := addFilePart(writer, path); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fetchErrorFromResponse(resp)
	}

	var payload uploadPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if payload.AnalysisID == "" {
		return "", fmt.Errorf("upload response carried no analysis id")
	}

	c.logger.InfoContext(ctx, "Upload accepted",
		log.FieldAnalysisID, string(payload.AnalysisID),
		"files", len(paths))

	return string(payload.AnalysisID), nil
}

func addFilePart(writer *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form part for %s: %w", path, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
