package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type PDFInfo struct {
	Pages int
	Title string
}

// PageEngine reads and slices PDF documents held in memory.
type PageEngine interface {
	Inspect(ctx context.Context, data []byte) (PDFInfo, error)
	// ExtractPage returns a standalone PDF holding only the 1-based page.
	ExtractPage(ctx context.Context, data []byte, page int) ([]byte, error)
}

var disableConfigDir sync.Once

type pdfEngine struct {
	conf *model.Configuration
}

func NewPDFEngine() PageEngine {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfEngine{conf: conf}
}

// Inspect counts pages and reads the Info title. The parser panics on some
// malformed input and can spin on others, so it runs guarded and bounded.
func (e *pdfEngine) Inspect(ctx context.Context, data []byte) (PDFInfo, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("pdf_inspect", time.Since(start)) }()

	type result struct {
		info PDFInfo
		err  error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		info, err := inspect(data)
		resChan <- result{info, err}
	}()

	timeout, cancel := context.WithTimeout(ctx, config.PDFReadTimeout)
	defer cancel()
	select {
	case r := <-resChan:
		return r.info, r.err
	case <-timeout.Done():
		return PDFInfo{}, errors.New("pdf inspect timeout")
	}
}

func inspect(data []byte) (PDFInfo, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return PDFInfo{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	return PDFInfo{
		Pages: reader.NumPage(),
		Title: reader.Trailer().Key("Info").Key("Title").Text(),
	}, nil
}

func (e *pdfEngine) ExtractPage(ctx context.Context, data []byte, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &out, []string{strconv.Itoa(page)}, e.conf); err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	return out.Bytes(), nil
}
