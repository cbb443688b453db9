// Package extract converts uploaded source material (pdf, url, text)
// into the plain text the generation capability consumes.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/lexa-learn/lexa-api/internal/domain"
)

// Extraction errors. ErrUnreadableSource and its refinements are
// permanent: the same source will fail the same way on every retry, so
// the pipeline fails such jobs immediately instead of burning retry
// budget. Fetch errors for url sources are transient.
var (
	ErrUnreadableSource  = errors.New("source material is unreadable")
	ErrEmptySource       = fmt.Errorf("%w: no text content", ErrUnreadableSource)
	ErrUnsupportedSource = fmt.Errorf("%w: unsupported source type", ErrUnreadableSource)
	ErrFetchFailed       = errors.New("failed to fetch source")
)

// Extractor turns an upload's source reference into normalized plain text.
type Extractor struct {
	client *http.Client
}

// New creates an Extractor. fetchTimeout bounds url retrieval; zero
// disables the bound.
func New(fetchTimeout time.Duration) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Text extracts plain text from the given source. The returned text is
// whitespace-normalized and never empty; an empty result is reported as
// ErrEmptySource.
func (e *Extractor) Text(ctx context.Context, sourceType domain.SourceType, sourceRef string) (string, error) {
	var text string
	var err error

	switch sourceType {
	case domain.SourceTypeText:
		text = normalizeText(sourceRef)
	case domain.SourceTypePDF:
		text, err = e.fromPDF(sourceRef)
	case domain.SourceTypeURL:
		text, err = e.fromURL(ctx, sourceRef)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, sourceType)
	}

	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptySource
	}
	return text, nil
}

// fromPDF extracts text from a PDF file on disk. Pages that fail to
// decode are skipped; the extraction only fails when no page yields text.
func (e *Extractor) fromPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrUnreadableSource, err)
	}
	defer func() { _ = file.Close() }()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString(" ")
	}

	return normalizeText(b.String()), nil
}

// fromURL fetches the referenced page and strips it to its visible text.
func (e *Extractor) fromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// Client errors will not heal on retry.
		return "", fmt.Errorf("%w: status %d", ErrUnreadableSource, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrUnreadableSource, err)
	}

	return normalizeText(extractText(doc)), nil
}

// extractText walks an HTML document collecting visible text, skipping
// script and style subtrees.
func extractText(n *html.Node) string {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(extractText(child))
		b.WriteString(" ")
	}
	return b.String()
}

// normalizeText collapses whitespace and strips control bytes so the
// generation prompt receives clean input.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// ChunkText splits normalized text into overlapping chunks for provenance
// tracking. An overlap >= size is ignored.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[start:end]))
		if part != "" {
			chunks = append(chunks, part)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// IsPermanent reports whether an extraction error is permanent (the
// source itself is unusable) as opposed to a transient fetch failure.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnreadableSource)
}
