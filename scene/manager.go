package scene

import (
	"math/rand"
	"time"

	"github.com/ImVexed/bsptree"
	"github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// FrameState carries the per-frame inputs of a render pass.
type FrameState struct {
	// DeltaTime is the time since the previous frame, in seconds.
	DeltaTime float32

	// CheckFrustum enables view frustum culling during the traversal.
	CheckFrustum bool
}

// Renderer draws a single object.
type Renderer interface {
	Render(o *Object)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(o *Object)

func (f RendererFunc) Render(o *Object) { f(o) }

// Manager owns the scene's partition tree and drives the per-frame render loop.
type Manager struct {
	tree    *bsptree.Tree
	walls   *Object
	count   int
	rng     *rand.Rand
	logger  *log.Entry
	metrics *Metrics
	treeOpt []bsptree.TreeOption
}

type ManagerOption func(*Manager)

// WithLogger sets the entry that scene events are logged to.
func WithLogger(l *log.Entry) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRand sets the random source used by moving objects.
func WithRand(rng *rand.Rand) ManagerOption {
	return func(m *Manager) {
		m.rng = rng
	}
}

func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTreeOptions forwards options to the underlying partition tree.
func WithTreeOptions(options ...bsptree.TreeOption) ManagerOption {
	return func(m *Manager) {
		m.treeOpt = append(m.treeOpt, options...)
	}
}

// NewManager creates a scene whose partition tree is anchored at root.
func NewManager(root *Object, options ...ManagerOption) *Manager {
	m := &Manager{
		walls: NewObject(KindWalls, Transform{}),
		count: 1,
	}
	for _, o := range options {
		o(m)
	}

	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.logger == nil {
		m.logger = log.NewEntry(log.StandardLogger())
	}

	m.tree = bsptree.NewTree(root, m.treeOpt...)
	m.metrics.setObjects(m.count)
	return m
}

// Initialize populates the scene: every table with its props, then the fireflies.
func (m *Manager) Initialize(cfg Config) {
	for _, t := range cfg.Tables {
		m.createTable(t.transform())
	}

	for _, f := range cfg.FireFlies {
		speed := f.Speed
		if speed == 0 {
			speed = DefaultFireFlySpeed
		}
		m.Add(NewFireFly(mgl32.Vec3(f.Position), speed))
	}

	m.logger.WithFields(log.Fields{
		"tables":    len(cfg.Tables),
		"fireflies": len(cfg.FireFlies),
		"objects":   m.count,
	}).Info("scene initialized")
}

func (m *Manager) createTable(t Transform) {
	for _, k := range []Kind{KindTable, KindDrinkBox, KindPopcornBucket, KindFireFlower, KindHammer} {
		m.Add(NewObject(k, t))
	}
}

// Add inserts o into the partition tree.
func (m *Manager) Add(o *Object) {
	m.tree.Insert(o)
	m.count++
	m.metrics.setObjects(m.count)

	m.logger.WithFields(log.Fields{
		"object_id": o.ID(),
		"kind":      o.Kind(),
		"position":  o.Position(),
	}).Debug("object added")
}

// Remove deletes o from the partition tree and reports whether it was found. An object
// that moved since it was added may not be found. The root is never removed.
func (m *Manager) Remove(o *Object) bool {
	if o == m.tree.Root().Anchor() {
		m.logger.WithField("object_id", o.ID()).Debug("root object cannot be removed")
		return false
	}

	removed := false
	if !o.Released() {
		m.tree.Remove(o)
		removed = o.Released()
	}

	if !removed {
		m.metrics.missedRemoval()
		m.logger.WithFields(log.Fields{
			"object_id": o.ID(),
			"kind":      o.Kind(),
		}).Warn("object not removed")
		return false
	}

	m.count--
	m.metrics.setObjects(m.count)
	return true
}

// Visible returns the objects in front of the viewer in the order they should be drawn.
func (m *Manager) Visible(v bsptree.Viewer, checkFrustum bool) []*Object {
	items := m.tree.CurrentFrontItems(v, checkFrustum)

	objects := make([]*Object, len(items))
	for i, e := range items {
		objects[i] = e.(*Object)
	}
	return objects
}

// RenderScene draws the visible objects, advances the moving ones and finally draws the
// walls, which are not part of the tree. It returns how many tree objects were drawn.
func (m *Manager) RenderScene(v bsptree.Viewer, fs FrameState, r Renderer) int {
	start := time.Now()
	visible := m.Visible(v, fs.CheckFrustum)
	m.metrics.observeFrame(time.Since(start), m.count, len(visible))

	for _, o := range visible {
		r.Render(o)
		if o.Moving() {
			o.Update(fs.DeltaTime, m.rng)
		}
	}

	r.Render(m.walls)
	return len(visible)
}

func (m *Manager) Tree() *bsptree.Tree {
	return m.tree
}

// Walls returns the backdrop object drawn after every frame.
func (m *Manager) Walls() *Object {
	return m.walls
}

// Len returns the number of objects in the tree, root included.
func (m *Manager) Len() int {
	return m.count
}

// Close releases every object except the root.
func (m *Manager) Close() {
	m.tree.Clear()
	m.count = 1
	m.metrics.setObjects(m.count)
	m.logger.Debug("scene closed")
}
