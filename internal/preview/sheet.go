package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"texdb/internal/logging"
	"texdb/internal/texturegroup"
	"texdb/internal/workers"
)

// maxDecoders caps the default decoding parallelism.
const maxDecoders = 8

// ErrNoTextures is returned for groups without textures.
var ErrNoTextures = errors.New("texture group has no textures")

// Options controls the contact sheet layout.
type Options struct {
	// Cell is the edge length of the square cell each texture is fitted into.
	Cell int
	// Columns is the number of cells per row.
	Columns int
	// Padding is the gap around and between cells.
	Padding int
	// Background fills the sheet. Transparent when nil.
	Background color.Color
	// Workers bounds parallel decoding. Defaults to workers.ForCPU(8).
	Workers int
}

// DefaultOptions returns a 128px, 4-column layout.
func DefaultOptions() Options {
	return Options{Cell: 128, Columns: 4, Padding: 8}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Cell <= 0 {
		o.Cell = d.Cell
	}
	if o.Columns <= 0 {
		o.Columns = d.Columns
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.Background == nil {
		o.Background = color.Transparent
	}
	if o.Workers <= 0 {
		o.Workers = workers.ForCPU(maxDecoders)
	}
	return o
}

// ContactSheet lays out every texture of g in a grid, in texture order.
// Textures that fail to decode leave their cell empty.
func ContactSheet(ctx context.Context, g *texturegroup.Group, opts Options) (*image.NRGBA, error) {
	textures := g.Textures()
	if len(textures) == 0 {
		return nil, ErrNoTextures
	}
	opts = opts.normalized()

	cells := make([]image.Image, len(textures))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)

	for i, t := range textures {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := loadConstrained(t.Path, MaxImageDimension, MaxImagePixels)
			if err != nil {
				logging.Warn("Preview of '%s > %s': skipping %s: %v", g.Category(), g.Name(), t.File, err)
				return nil
			}
			cells[i] = imaging.Fit(img, opts.Cell, opts.Cell, imaging.Lanczos)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	cols := min(opts.Columns, len(cells))
	rows := (len(cells) + cols - 1) / cols
	step := opts.Cell + opts.Padding
	sheet := imaging.New(cols*step+opts.Padding, rows*step+opts.Padding, opts.Background)

	for i, cell := range cells {
		if cell == nil {
			continue
		}
		b := cell.Bounds()
		x := opts.Padding + (i%cols)*step + (opts.Cell-b.Dx())/2
		y := opts.Padding + (i/cols)*step + (opts.Cell-b.Dy())/2
		sheet = imaging.Paste(sheet, cell, image.Pt(x, y))
	}
	return sheet, nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encoding preview: %w", err)
	}
	return nil
}

// Save writes img to path; the format follows the file extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("saving preview: %w", err)
	}
	return nil
}
