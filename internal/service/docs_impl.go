package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// docsService fetches registry metadata for package pins, with a
// TTL file cache so repeated lookups in a session stay local.
type docsService struct {
	fs       afero.Fs
	cacheDir string
	cacheTTL time.Duration
	client   *http.Client
	baseURLs map[domain.Ecosystem]string
}

// cacheEntry wraps a cached doc with its fetch time.
type cacheEntry struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Doc       *domain.PackageDoc `json:"doc"`
}

// registryDefaults are the public registry endpoints per ecosystem.
var registryDefaults = map[domain.Ecosystem]string{
	domain.EcosystemPyPI: "https://pypi.org",
	domain.EcosystemNPM:  "https://registry.npmjs.org",
	domain.EcosystemGo:   "https://proxy.golang.org",
}

// NewDocsService creates a DocsService caching under cacheDir.
func NewDocsService(fs afero.Fs, cacheDir string) DocsService {
	if cacheDir == "" {
		cacheDir = ".docs-cache"
	}
	baseURLs := make(map[domain.Ecosystem]string, len(registryDefaults))
	for eco, base := range registryDefaults {
		baseURLs[eco] = base
	}
	return &docsService{
		fs:       fs,
		cacheDir: cacheDir,
		cacheTTL: DefaultDocsCacheTTL,
		client:   &http.Client{Timeout: DefaultDocsFetchTimeout},
		baseURLs: baseURLs,
	}
}

// NewDocsServiceWithBaseURLs creates a DocsService against custom
// registry endpoints, used by tests.
func NewDocsServiceWithBaseURLs(fs afero.Fs, cacheDir string, baseURLs map[domain.Ecosystem]string) DocsService {
	svc := NewDocsService(fs, cacheDir).(*docsService)
	for eco, base := range baseURLs {
		svc.baseURLs[eco] = base
	}
	return svc
}

// Lookup returns registry metadata for the pin, from cache when fresh.
func (s *docsService) Lookup(ctx context.Context, pin domain.PackagePin) (*domain.PackageDoc, error) {
	if doc := s.fromCache(pin); doc != nil {
		return doc, nil
	}

	var doc *domain.PackageDoc
	backoff := retry.WithMaxRetries(DefaultDocsRetryCount, retry.NewExponential(DefaultDocsRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := s.fetch(ctx, pin)
		if err != nil {
			return err
		}
		doc = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", pin.Name, err)
	}

	s.toCache(pin, doc)
	return doc, nil
}

func (s *docsService) fetch(ctx context.Context, pin domain.PackagePin) (*domain.PackageDoc, error) {
	endpoint, pageURL, err := s.endpointFor(pin)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		// Network errors are worth another attempt
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("package %s not found", pin.Name)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("registry returned %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.RetryableError(err)
	}

	doc := &domain.PackageDoc{
		Name:      pin.Name,
		Ecosystem: pin.Ecosystem,
		URL:       pageURL,
	}
	if err := s.decode(pin.Ecosystem, body, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// endpointFor builds the metadata endpoint and the human-facing page
// URL for a pin.
func (s *docsService) endpointFor(pin domain.PackagePin) (string, string, error) {
	base, ok := s.baseURLs[pin.Ecosystem]
	if !ok {
		return "", "", fmt.Errorf("unsupported ecosystem: %s", pin.Ecosystem)
	}
	name := url.PathEscape(pin.Name)
	switch pin.Ecosystem {
	case domain.EcosystemPyPI:
		return fmt.Sprintf("%s/pypi/%s/json", base, name),
			fmt.Sprintf("https://pypi.org/project/%s/", name), nil
	case domain.EcosystemNPM:
		return fmt.Sprintf("%s/%s", base, name),
			fmt.Sprintf("https://www.npmjs.com/package/%s", name), nil
	case domain.EcosystemGo:
		// The module proxy requires lowercased, !-escaped paths only
		// for uppercase letters; pins extracted from commands are
		// already lowercase in practice
		return fmt.Sprintf("%s/%s/@latest", base, pin.Name),
			fmt.Sprintf("https://pkg.go.dev/%s", pin.Name), nil
	default:
		return "", "", fmt.Errorf("unsupported ecosystem: %s", pin.Ecosystem)
	}
}

func (s *docsService) decode(eco domain.Ecosystem, body []byte, doc *domain.PackageDoc) error {
	switch eco {
	case domain.EcosystemPyPI:
		var payload struct {
			Info struct {
				Summary string `json:"summary"`
				Version string `json:"version"`
			} `json:"info"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("failed to decode pypi response: %w", err)
		}
		doc.Description = payload.Info.Summary
		doc.LatestVersion = payload.Info.Version
	case domain.EcosystemNPM:
		var payload struct {
			Description string            `json:"description"`
			DistTags    map[string]string `json:"dist-tags"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("failed to decode npm response: %w", err)
		}
		doc.Description = payload.Description
		doc.LatestVersion = payload.DistTags["latest"]
	case domain.EcosystemGo:
		var payload struct {
			Version string `json:"Version"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("failed to decode module proxy response: %w", err)
		}
		doc.LatestVersion = payload.Version
	}
	return nil
}

func (s *docsService) cachePath(pin domain.PackagePin) string {
	key := sha256.Sum256([]byte(string(pin.Ecosystem) + "/" + pin.Name))
	return filepath.Join(s.cacheDir, hex.EncodeToString(key[:])+".json")
}

func (s *docsService) fromCache(pin domain.PackagePin) *domain.PackageDoc {
	path := s.cachePath(pin)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Unreadable entries are pruned along with expired ones
		_ = s.fs.Remove(path)
		return nil
	}
	if time.Since(entry.FetchedAt) > s.cacheTTL {
		_ = s.fs.Remove(path)
		return nil
	}
	return entry.Doc
}

func (s *docsService) toCache(pin domain.PackagePin, doc *domain.PackageDoc) {
	if err := s.fs.MkdirAll(s.cacheDir, 0o755); err != nil {
		return
	}
	entry := cacheEntry{FetchedAt: time.Now(), Doc: doc}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Cache writes are best effort
	if err := afero.WriteFile(s.fs, s.cachePath(pin), data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write docs cache: %v\n", err)
	}
}
