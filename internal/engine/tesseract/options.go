package tesseract

import "log/slog"

// Options configures workers created by NewFactory.
type Options struct {
	// TessdataPrefix overrides the directory holding *.traineddata.
	TessdataPrefix string
	Logger         *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
