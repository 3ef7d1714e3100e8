package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"customerhub/internal/upload"
)

// File is the payload handed to UploadProfileImage.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadProfileImage validates the file locally, then uploads it with
// retries. Validation failures never issue a network request. Network-level
// failures and 5xx responses are retried with exponential backoff; 4xx
// responses surface immediately. Cancelling ctx aborts the in-flight request
// and fails with a CANCELLED error.
func (c *Client) UploadProfileImage(ctx context.Context, customerID int64, file File, onProgress ProgressFunc) error {
	candidate := upload.FileCandidate{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
	}
	if err := upload.Validate(c.rules, candidate); err != nil {
		return normalizeValidation(err)
	}

	return c.withRetries(ctx, func() *UploadError {
		return c.attemptUpload(ctx, customerID, file, onProgress)
	})
}

// FetchProfileImage downloads the stored image, using the same retry policy
// as the upload path. The returned content type is the server's declared one.
func (c *Client) FetchProfileImage(ctx context.Context, customerID int64) ([]byte, string, error) {
	var data []byte
	var contentType string

	err := c.withRetries(ctx, func() *UploadError {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.profileImageURL(customerID), nil)
		if err != nil {
			return unknownError("failed to build request", err)
		}
		if uerr := c.authorize(req); uerr != nil {
			return uerr
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return c.classifyTransport(ctx, attemptCtx, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return classifyStatus(resp)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return networkError("failed to read response body", err)
		}
		data = body
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// withRetries runs fn up to maxRetries+1 times, backing off exponentially
// between retryable failures. The wait is a select on a timer, so the
// calling goroutine can be cancelled during backoff.
func (c *Client) withRetries(ctx context.Context, fn func() *UploadError) error {
	for attempt := 0; ; attempt++ {
		uerr := fn()
		if uerr == nil {
			return nil
		}
		if !uerr.Retryable || attempt == c.maxRetries {
			return uerr
		}

		delay := c.baseDelay * time.Duration(1<<attempt)
		c.logger.Warn("attempt failed, backing off",
			"attempt", attempt+1, "delay", delay, "error", uerr.Detail)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return cancelledError(ctx.Err())
		}
	}
}

func (c *Client) attemptUpload(ctx context.Context, customerID int64, file File, onProgress ProgressFunc) *UploadError {
	body, formContentType, err := multipartBody(file)
	if err != nil {
		return unknownError("failed to build multipart body", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reader := newProgressReader(bytes.NewReader(body), int64(len(body)), onProgress)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.profileImageURL(customerID), reader)
	if err != nil {
		return unknownError("failed to build request", err)
	}
	req.Header.Set("Content-Type", formContentType)
	req.ContentLength = int64(len(body))
	if uerr := c.authorize(req); uerr != nil {
		return uerr
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return classifyStatus(resp)
}

func (c *Client) authorize(req *http.Request) *UploadError {
	token, err := c.creds.Token()
	if err != nil {
		return authenticationError("no credential available", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// classifyTransport maps a failed round trip: caller cancellation is
// terminal, a per-attempt timeout and any other transport error are
// network-class and retryable.
func (c *Client) classifyTransport(parent, attempt context.Context, err error) *UploadError {
	if parent.Err() != nil {
		return cancelledError(parent.Err())
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return networkError("request timed out", err)
	}
	return networkError("no response received from server", err)
}

func classifyStatus(resp *http.Response) *UploadError {
	detail := errorMessage(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return authenticationError(detail, nil)
	case resp.StatusCode == http.StatusNotFound:
		return notFoundError(detail, nil)
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fileSizeError(detail, nil)
	case resp.StatusCode == http.StatusBadRequest:
		// The server's envelope tells a rejected file apart from other
		// bad requests.
		if strings.Contains(detail, "file type") || strings.Contains(detail, "empty") {
			return fileTypeError(detail, nil)
		}
		return unknownError(detail, nil)
	case resp.StatusCode >= 500:
		return serverError(detail, nil)
	}
	return unknownError(detail, nil)
}

// errorMessage pulls the message out of the server's error envelope, falling
// back to the HTTP status text.
func errorMessage(resp *http.Response) string {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fmt.Sprintf("server responded with %s", resp.Status)
}

func normalizeValidation(err error) *UploadError {
	var sizeErr *upload.SizeExceededError
	var typeErr *upload.InvalidTypeError
	switch {
	case errors.As(err, &sizeErr):
		return fileSizeError(err.Error(), err)
	case errors.As(err, &typeErr), errors.Is(err, upload.ErrEmptyFile):
		return fileTypeError(err.Error(), err)
	}
	return unknownError(err.Error(), err)
}

func multipartBody(file File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progressReader reports loaded/total and instantaneous throughput on every
// read while the request body streams out.
type progressReader struct {
	r          io.Reader
	total      int64
	loaded     int64
	started    time.Time
	onProgress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, onProgress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if p.started.IsZero() {
		p.started = time.Now()
	}

	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			event := ProgressEvent{Loaded: p.loaded, Total: p.total}
			if p.total > 0 {
				event.Percent = int(math.Round(float64(p.loaded) / float64(p.total) * 100))
			}
			if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
				event.BytesPerSecond = float64(p.loaded) / elapsed
			}
			p.onProgress(event)
		}
	}
	return n, err
}
