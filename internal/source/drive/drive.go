// Package drive adapts Google Drive as the remote document source.
// Every call carries the caller's bearer credential; the adapter holds no
// token state of its own.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"drivesearch/internal/domain"
)

// Candidate documents are plain-text or markdown files, as in the
// drive.files.list content-type filter.
const listQuery = "mimeType='text/plain' or mimeType='text/markdown'"

// maxContentSize caps how much of a file is fetched (5MB).
const maxContentSize = 5 * 1024 * 1024

const listFields = "nextPageToken, files(id, name, mimeType)"

// Source lists and fetches text documents from a user's Google Drive.
type Source struct {
	limiter  *rate.Limiter
	pageSize int64
}

type Config struct {
	RequestsPerSec float64
	Burst          int
	PageSize       int64
}

func NewSource(cfg Config) *Source {
	rps := cfg.RequestsPerSec
	if rps == 0 {
		rps = 8
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 10
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	return &Source{
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		pageSize: pageSize,
	}
}

// List returns all candidate documents the credential can see, filtered to
// plain-text and markdown content types.
func (s *Source) List(ctx context.Context, cred domain.Credential) ([]domain.DocumentRef, error) {
	svc, err := s.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	var refs []domain.DocumentRef
	call := svc.Files.List().Q(listQuery).PageSize(s.pageSize).Fields(listFields)
	err = call.Pages(ctx, func(page *driveapi.FileList) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		for _, f := range page.Files {
			refs = append(refs, domain.DocumentRef{
				ID:    f.Id,
				Title: f.Name,
				Link:  WebURL(f.Id),
			})
		}
		return nil
	})
	if err != nil {
		return nil, mapAPIError("list files", err)
	}
	return refs, nil
}

// Fetch downloads the raw text content of one document.
func (s *Source) Fetch(ctx context.Context, cred domain.Credential, id string) (string, error) {
	svc, err := s.service(ctx, cred)
	if err != nil {
		return "", err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return "", mapAPIError("download file", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), nil
}

// WebURL converts a Drive file id to its stable web URL.
func WebURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}

func (s *Source) service(ctx context.Context, cred domain.Credential) (*driveapi.Service, error) {
	if cred.Empty() {
		return nil, domain.ErrAuthRequired
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: string(cred),
		TokenType:   "Bearer",
	})
	svc, err := driveapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

func mapAPIError(op string, err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch ge.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %v", domain.ErrAuthRequired, op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %v", domain.ErrNotFound, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
