package templates

import (
	"context"
	"fmt"
	"io/fs"
)

type dirSource struct {
	fsys fs.FS
}

// Dir returns a Source reading assets from the root of fsys. Use os.DirFS
// for a directory on disk or an embed.FS for bundled templates.
func Dir(fsys fs.FS) Source {
	return &dirSource{fsys: fsys}
}

func (d *dirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("templates: invalid asset name %q", name)
	}
	data, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("templates: local: %w", err)
	}
	return data, nil
}
