package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/resilience"
)

// Resolve turns a source argument into a loaded workbook. Local paths are
// read directly; ftp:// URLs are downloaded to a temporary file first.
func Resolve(ctx context.Context, source string, ftpOpts FTPOptions) (*model.Workbook, error) {
	if !strings.HasPrefix(source, "ftp://") {
		return LoadWorkbook(source)
	}

	tmp, err := os.CreateTemp("", "valuation-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	f := NewFTPFetcher(ftpOpts)
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("ftp", "download")
	n, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (int64, error) {
		return f.DownloadToFile(ctx, source, tmpPath)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("fetcher: downloaded remote workbook",
		zap.String("url", source), zap.Int64("bytes", n))

	wb, err := LoadWorkbook(tmpPath)
	if err != nil {
		return nil, err
	}
	// Keep the remote name, not the temp file's.
	wb.Filename = filepath.Base(source)
	return wb, nil
}
