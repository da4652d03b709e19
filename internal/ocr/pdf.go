package ocr

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// preflight verifies the input is a well-formed PDF before spending time on
// rasterization, and returns its page count.
func preflight(path string) (int, error) {
	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, err
	}
	if pages == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return pages, nil
}
