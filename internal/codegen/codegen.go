package codegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"texdb/internal/logging"
	"texdb/internal/metrics"
	"texdb/internal/texturegroup"
)

// Header is the first line of every generated file.
const Header = "Code generated by texdb. DO NOT EDIT."

// Store is the part of the asset store the generator flushes after writing.
type Store interface {
	Save(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// generationRecorder is implemented by stores that remember when the helper
// was last written.
type generationRecorder interface {
	RecordGeneration(ctx context.Context, t time.Time) error
}

// Options configures the generated helper file.
type Options struct {
	// OutputPath is the .go file to write.
	OutputPath string
	// Package is the package clause of the generated file.
	Package string
}

// Generator renders the helper file listing the indexed texture groups.
type Generator struct {
	store Store
	opts  Options
}

// New returns a generator writing opts.OutputPath.
func New(store Store, opts Options) (*Generator, error) {
	if store == nil {
		return nil, errors.New("codegen: nil store")
	}
	if opts.OutputPath == "" {
		return nil, errors.New("codegen: output path is required")
	}
	if opts.Package == "" {
		opts.Package = "textures"
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, fmt.Errorf("codegen: invalid package name %q", opts.Package)
	}
	return &Generator{store: store, opts: opts}, nil
}

// OutputPath returns the file the generator writes.
func (g *Generator) OutputPath() string {
	return g.opts.OutputPath
}

// Run regenerates the helper file from groups, then saves and/or rescans the
// store as requested. The file is left untouched when its content would not
// change.
func (g *Generator) Run(ctx context.Context, groups []*texturegroup.Group, persist, rescan bool) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.HelperGenerationsTotal.WithLabelValues(status).Inc()
		metrics.HelperGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	var buf bytes.Buffer
	if err := Build(g.opts.Package, groups).Render(&buf); err != nil {
		return fmt.Errorf("rendering helper: %w", err)
	}

	written, err := writeIfChanged(g.opts.OutputPath, buf.Bytes())
	if err != nil {
		return err
	}
	if written {
		logging.Info("Generated %s (%d texture groups)", g.opts.OutputPath, len(groups))
		if rec, ok := g.store.(generationRecorder); ok {
			if err := rec.RecordGeneration(ctx, time.Now()); err != nil {
				logging.Warn("Failed to record helper generation time: %v", err)
			}
		}
	} else {
		logging.Debug("%s is up to date", g.opts.OutputPath)
	}

	if persist {
		if err := g.store.Save(ctx); err != nil {
			return fmt.Errorf("saving asset store: %w", err)
		}
	}
	if rescan {
		if err := g.store.Refresh(ctx); err != nil {
			return fmt.Errorf("rescanning asset store: %w", err)
		}
	}
	return nil
}

func writeIfChanged(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".texdb-gen-*")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("writing helper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("writing helper: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("replacing %s: %w", path, err)
	}
	return true, nil
}

type category struct {
	key     string
	ident   string
	constID string
	groups  []member
}

type member struct {
	name  string
	ident string
}

// Build renders the helper file for groups, in the given order. A repeated
// (category, name) pair is emitted once.
func Build(pkg string, groups []*texturegroup.Group) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(Header)

	pkgNames := newNamer("Group", "All", "Categories")
	var cats []*category
	byKey := make(map[string]*category)
	memberNames := make(map[string]*namer)
	seen := make(map[[2]string]bool)
	var all []jen.Code

	for _, g := range groups {
		key := [2]string{g.Category(), g.Name()}
		if seen[key] {
			logging.Warn("Texture group '%s > %s' is indexed more than once; emitting it once", key[0], key[1])
			continue
		}
		seen[key] = true

		c, ok := byKey[key[0]]
		if !ok {
			ident := pkgNames.take(identifier(key[0]))
			c = &category{key: key[0], ident: ident, constID: pkgNames.take("Category" + ident)}
			byKey[key[0]] = c
			cats = append(cats, c)
			memberNames[key[0]] = newNamer()
		}
		c.groups = append(c.groups, member{name: key[1], ident: memberNames[key[0]].take(identifier(key[1]))})
		all = append(all, groupLit(c, key[1]))
	}

	f.Comment("Group identifies a texture group by category and name.")
	f.Type().Id("Group").Struct(
		jen.Id("Category").String(),
		jen.Id("Name").String(),
	)

	if len(cats) > 0 {
		defs := make([]jen.Code, len(cats))
		for i, c := range cats {
			defs[i] = jen.Id(c.constID).Op("=").Lit(c.key)
		}
		f.Comment("Category names.")
		f.Const().Defs(defs...)
	}

	for _, c := range cats {
		fields := make([]jen.Code, len(c.groups))
		values := jen.Dict{}
		for i, m := range c.groups {
			fields[i] = jen.Id(m.ident).Id("Group")
			values[jen.Id(m.ident)] = groupLit(c, m.name)
		}
		f.Commentf("%s lists the texture groups in the %s category.", c.ident, c.key)
		f.Var().Id(c.ident).Op("=").Struct(fields...).Values(values)
	}

	f.Comment("All lists every indexed texture group in index order.")
	f.Var().Id("All").Op("=").Index().Id("Group").ValuesFunc(func(gr *jen.Group) {
		for _, v := range all {
			gr.Line().Add(v)
		}
		if len(all) > 0 {
			gr.Line()
		}
	})

	f.Comment("Categories returns the category names in index order.")
	f.Func().Id("Categories").Params().Index().String().Block(
		jen.Return(jen.Index().String().ValuesFunc(func(gr *jen.Group) {
			for _, c := range cats {
				gr.Id(c.constID)
			}
		})),
	)

	return f
}

func groupLit(c *category, name string) jen.Code {
	return jen.Id("Group").Values(jen.Dict{
		jen.Id("Category"): jen.Id(c.constID),
		jen.Id("Name"):     jen.Lit(name),
	})
}

// identifier turns a texture group key into an exported Go identifier.
func identifier(key string) string {
	id := inflect.Camelize(key)
	var b []rune
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b = append(b, r)
		}
	}
	id = string(b)
	if r, _ := utf8.DecodeRuneInString(id); !unicode.IsUpper(r) {
		id = "X" + id
	}
	return id
}

// namer hands out unique identifiers within one scope.
type namer struct {
	taken map[string]bool
}

func newNamer(reserved ...string) *namer {
	n := &namer{taken: make(map[string]bool)}
	for _, r := range reserved {
		n.taken[r] = true
	}
	return n
}

func (n *namer) take(id string) string {
	candidate := id
	for i := 2; n.taken[candidate]; i++ {
		candidate = id + strconv.Itoa(i)
	}
	n.taken[candidate] = true
	return candidate
}
