package scene

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// overview looks at the whole default scene from far in front of it.
type overview struct{}

func (overview) Position() mgl32.Vec3 { return mgl32.Vec3{0, 3, 100} }
func (overview) Front() mgl32.Vec3    { return mgl32.Vec3{0, 0, -1} }
func (overview) Up() mgl32.Vec3       { return mgl32.Vec3{0, 1, 0} }
func (overview) Fov() float32         { return 75 }

type recorder struct {
	objects []*Object
}

func (r *recorder) Render(o *Object) {
	r.objects = append(r.objects, o)
}

const defaultSceneSize = 1 + 3*5 + 10

func newTestManager(t *testing.T, options ...ManagerOption) (*Manager, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()

	options = append([]ManagerOption{
		WithLogger(log.NewEntry(logger)),
		WithRand(rand.New(rand.NewSource(1313131313))),
	}, options...)

	cfg := DefaultConfig()
	m := NewManager(cfg.RootObject(), options...)
	m.Initialize(cfg)
	return m, hook
}

func TestManagerInitialize(t *testing.T) {
	m, hook := newTestManager(t)

	require.Equal(t, defaultSceneSize, m.Len())
	require.Equal(t, defaultSceneSize, m.Tree().Len())
	require.Equal(t, "scene initialized", hook.LastEntry().Message)
	require.Equal(t, log.InfoLevel, hook.LastEntry().Level)

	kinds := map[Kind]int{}
	for _, o := range m.Visible(overview{}, false) {
		kinds[o.Kind()]++
	}
	require.Equal(t, map[Kind]int{
		KindTable:         4,
		KindDrinkBox:      3,
		KindPopcornBucket: 3,
		KindFireFlower:    3,
		KindHammer:        3,
		KindFireFly:       10,
	}, kinds)
}

func TestManagerRenderScene(t *testing.T) {
	m, _ := newTestManager(t)
	var r recorder

	n := m.RenderScene(overview{}, FrameState{DeltaTime: 0.016}, &r)
	require.Equal(t, defaultSceneSize, n)
	require.Len(t, r.objects, n+1)
	require.Same(t, m.Walls(), r.objects[n])
	require.Equal(t, KindWalls, r.objects[n].Kind())
}

func TestManagerRenderSceneMovesFireFlies(t *testing.T) {
	m, _ := newTestManager(t)

	before := map[*Object]mgl32.Vec3{}
	m.RenderScene(overview{}, FrameState{DeltaTime: 0.5}, RendererFunc(func(o *Object) {
		before[o] = o.Position()
	}))

	for o, p := range before {
		if o.Moving() {
			require.NotEqual(t, p, o.Position())
		} else {
			require.Equal(t, p, o.Position())
		}
	}
}

func TestManagerRenderSceneFrustum(t *testing.T) {
	m, _ := newTestManager(t)
	cam := DefaultConfig().NewCamera()

	culled := m.RenderScene(cam, FrameState{CheckFrustum: true}, RendererFunc(func(*Object) {}))
	all := m.RenderScene(cam, FrameState{}, RendererFunc(func(*Object) {}))

	require.NotZero(t, culled)
	require.LessOrEqual(t, culled, all)
}

func TestManagerRemove(t *testing.T) {
	m, hook := newTestManager(t)

	var fly *Object
	for _, o := range m.Visible(overview{}, false) {
		if o.Kind() == KindFireFly {
			fly = o
			break
		}
	}
	require.NotNil(t, fly)

	require.True(t, m.Remove(fly))
	require.True(t, fly.Released())
	require.Equal(t, defaultSceneSize-1, m.Len())
	require.False(t, m.Tree().Contains(fly))

	require.False(t, m.Remove(fly))
	require.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, defaultSceneSize-1, m.Len())
}

func TestManagerRemoveRoot(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m, hook := newTestManager(t, WithMetrics(metrics))
	m.logger.Logger.SetLevel(log.DebugLevel)

	root := m.Tree().Root().Anchor().(*Object)
	require.False(t, m.Remove(root))
	require.False(t, root.Released())
	require.Equal(t, defaultSceneSize, m.Len())
	require.Equal(t, log.DebugLevel, hook.LastEntry().Level)
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.missedRemovals))
}

func TestManagerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m, _ := newTestManager(t, WithMetrics(metrics))

	require.Equal(t, float64(defaultSceneSize), testutil.ToFloat64(metrics.objects))

	m.RenderScene(overview{}, FrameState{}, RendererFunc(func(*Object) {}))
	m.RenderScene(overview{}, FrameState{}, RendererFunc(func(*Object) {}))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.frames))
	require.Equal(t, float64(defaultSceneSize), testutil.ToFloat64(metrics.visible))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.culled))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.traversal))

	m.Remove(NewObject(KindHammer, Transform{}))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.missedRemovals))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 6, count)
}

func TestManagerClose(t *testing.T) {
	m, _ := newTestManager(t)
	objects := m.Visible(overview{}, false)

	m.Close()
	require.Equal(t, 1, m.Len())
	require.Equal(t, 1, m.Tree().Len())

	root := m.Tree().Root().Anchor()
	for _, o := range objects {
		require.Equal(t, o != root, o.Released())
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeFrame(0, 1, 1)
	m.setObjects(1)
	m.missedRemoval()
}

func BenchmarkRenderScene(b *testing.B) {
	cfg := DefaultConfig()
	m := NewManager(cfg.RootObject(), WithRand(rand.New(rand.NewSource(1313131313))))
	m.Initialize(cfg)
	cam := cfg.NewCamera()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		m.RenderScene(cam, FrameState{DeltaTime: 0.016, CheckFrustum: true}, RendererFunc(func(*Object) {}))
	}
}
