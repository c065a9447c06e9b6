package driver

import (
	"context"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"wflint/internal/diag"
	"wflint/internal/engine"
	"wflint/internal/observ"
	"wflint/internal/source"
	"wflint/internal/trace"
)

// CheckPaths checks every file of paths in parallel. Results keep the order
// of paths; a file that cannot be read yields one IOLoadFileError problem.
// The returned error is only the context's.
func CheckPaths(ctx context.Context, fs *source.FileSet, paths []string, opts Options) ([]*FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	ctx, span := trace.Begin(ctx, trace.ScopeDriver, "check")
	defer span.End("")
	if opts.Engine == nil {
		opts.Engine = engine.New(engine.Options{})
	}

	// Предзагрузка последовательно: порядок FileID совпадает с порядком путей
	fileIDs := make([]source.FileID, len(paths))
	loadErrors := make(map[int]error)
	for i, path := range paths {
		emit(opts.Progress, Event{File: DisplayPath(path), Stage: StageLoad, Status: StatusQueued})
		id, err := fs.Load(path)
		if err != nil {
			// пустой виртуальный файл, чтобы проблема указывала на путь
			id = fs.Add(path, nil, source.FileVirtual)
			loadErrors[i] = err
		}
		fileIDs[i] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, failed := loadErrors[i]; failed {
				results[i] = &FileResult{
					Path: DisplayPath(path),
					Diagnostics: []*diag.Diagnostic{diag.NewError(diag.IOLoadFileError, source.Span{File: fileIDs[i]},
						"failed to load file: "+loadErr.Error())},
					Timer: observ.NewTimer(),
				}
				emit(opts.Progress, Event{File: DisplayPath(path), Status: StatusError, Problems: 1})
				return nil
			}
			results[i] = CheckFile(gctx, fs, fileIDs[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// DisplayPath is the form of path used in results and progress events; it
// matches source.File.Path.
func DisplayPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
