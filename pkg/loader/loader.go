// Package loader turns glTF 2.0 assets (.gltf with external resources, or
// .glb) into scene graph nodes and animation clips.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/qmuntal/gltf"
	"github.com/taigrr/diorama/pkg/anim"
	"github.com/taigrr/diorama/pkg/scene"
)

const extDraco = "KHR_draco_mesh_compression"

var (
	// ErrDracoUnsupported is returned for assets that require Draco mesh
	// decompression.
	ErrDracoUnsupported = errors.New("draco compressed meshes are not supported")

	// ErrNoScene is returned when the document has no nodes to show.
	ErrNoScene = errors.New("gltf document has no scene nodes")
)

// Result is a decoded asset.
type Result struct {
	Scene      *scene.Node  // Root of the default scene
	Animations []*anim.Clip // In document order
	Triangles  int          // Total triangle count across meshes
}

// Clip returns animation i, or nil if out of range.
func (r *Result) Clip(i int) *anim.Clip {
	if i < 0 || i >= len(r.Animations) {
		return nil
	}
	return r.Animations[i]
}

// Loader loads glTF documents.
type Loader struct {
	// Normals are generated for primitives that do not provide them.
	CalculateNormals bool
	SmoothNormals    bool

	// DecoderPath names where a Draco decoder would live. It is only
	// reported; decoding is not supported.
	DecoderPath string

	Logger *log.Logger
}

// New creates a loader with default options.
func New() *Loader {
	return &Loader{
		CalculateNormals: true,
		SmoothNormals:    true,
		Logger:           log.Default(),
	}
}

// Load decodes the asset at path with default options.
func Load(path string) (*Result, error) {
	return New().Load(path)
}

// Load decodes the asset at path.
func (l *Loader) Load(path string) (*Result, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.Decode(doc, filepath.Dir(path))
}

// Decode builds the scene from an already parsed document. dir resolves
// relative image URIs.
func (l *Loader) Decode(doc *gltf.Document, dir string) (*Result, error) {
	if slices.Contains(doc.ExtensionsRequired, extDraco) {
		if l.DecoderPath != "" {
			l.logger().Warn("draco decoder configured but unavailable", "path", l.DecoderPath)
		}
		return nil, ErrDracoUnsupported
	}

	b := &builder{
		loader: l,
		doc:    doc,
		dir:    dir,
		images: make(map[int]imageEntry),
	}
	return b.build()
}

func (l *Loader) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}

// Outcome is delivered by LoadAsync: exactly one of Result and Err is set.
type Outcome struct {
	Result *Result
	Err    error
}

// LoadAsync loads path on a new goroutine. The returned channel yields one
// Outcome and is then closed. If ctx is done first the outcome carries
// ctx.Err() and the decoded result, if any, is dropped.
func (l *Loader) LoadAsync(ctx context.Context, path string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := l.safeLoad(path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			ch <- Outcome{Err: ctxErr}
			return
		}
		if err != nil {
			ch <- Outcome{Err: fmt.Errorf("load %s: %w", path, err)}
			return
		}
		ch <- Outcome{Result: res}
	}()
	return ch
}

// safeLoad runs Load, reporting a panic while decoding as an error.
func (l *Loader) safeLoad(path string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("decode %s: %v", path, r)
		}
	}()
	return l.Load(path)
}
