package parser

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu otherwise writes a config.yml under the user config dir on first use.
var disableConfigDir sync.Once

// PageCount validates the PDF at path with pdfcpu and returns its page
// count. It runs before layout extraction so oversized documents are
// rejected without walking their content.
func PageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu page count: %v", r)
		}
	}()

	disableConfigDir.Do(func() { model.ConfigPath = "disable" })

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
