package scene

import (
	"math"
	"os"

	"github.com/ImVexed/bsptree"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/segmentio/encoding/json"
)

// ErrTypeInvalidConfig is the error type returned when a scene config fails validation.
const ErrTypeInvalidConfig = "invalid_scene_config"

type CameraConfig struct {
	Position [3]float32 `json:"position"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	Fov      float32    `json:"fov"`
}

type TableConfig struct {
	RotationY   float32    `json:"rotationY"`
	Translation [3]float32 `json:"translation"`
}

type FireFlyConfig struct {
	Position [3]float32 `json:"position"`
	Speed    float32    `json:"speed"`
}

// Config describes a scene: the root table anchoring the tree, the extra tables with
// their props, the fireflies and the starting camera.
type Config struct {
	Camera       CameraConfig    `json:"camera"`
	Root         TableConfig     `json:"root"`
	Tables       []TableConfig   `json:"tables"`
	FireFlies    []FireFlyConfig `json:"fireflies"`
	CheckFrustum bool            `json:"checkFrustum"`
}

// DefaultConfig returns the sample cinema scene.
func DefaultConfig() Config {
	return Config{
		Camera: CameraConfig{
			Position: [3]float32{0, 3.4, 6.2},
			Yaw:      bsptree.DefaultYaw,
			Pitch:    bsptree.DefaultPitch,
			Fov:      bsptree.DefaultFov,
		},
		Tables: []TableConfig{
			{RotationY: 0, Translation: [3]float32{0, 0, 0}},
			{RotationY: 90, Translation: [3]float32{-7, 0, -8.5}},
			{RotationY: 270, Translation: [3]float32{8, 0, -17.5}},
		},
		FireFlies: []FireFlyConfig{
			{Position: [3]float32{0, 4, -2.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{1.5, 4.5, -3.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-2.5, 4.5, -2.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-1.5, 4.5, -0.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-8.5, 4.5, -3.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-4.5, 4.5, -3.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-6.5, 4.5, -3.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-2.5, 4.5, -8.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{-6.5, 4.5, -5.5}, Speed: DefaultFireFlySpeed},
			{Position: [3]float32{3.5, 4.5, -16.5}, Speed: DefaultFireFlySpeed},
		},
		CheckFrustum: true,
	}
}

// LoadConfig reads a JSON scene file. Fields missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New("reading scene config failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.New("decoding scene config failed").
			WithType(ErrTypeInvalidConfig).
			WithTag("path", path).
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !finite(c.Camera.Position[:]...) || !finite(c.Camera.Yaw, c.Camera.Pitch, c.Camera.Fov) {
		return invalid("camera", "non-finite value")
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return invalid("camera.fov", c.Camera.Fov)
	}
	if !finite(c.Root.Translation[:]...) || !finite(c.Root.RotationY) {
		return invalid("root", "non-finite value")
	}

	for i, t := range c.Tables {
		if !finite(t.Translation[:]...) || !finite(t.RotationY) {
			return invalid("tables", i)
		}
	}

	for i, f := range c.FireFlies {
		if !finite(f.Position[:]...) || !finite(f.Speed) {
			return invalid("fireflies", i)
		}
	}
	return nil
}

// NewCamera builds the starting camera described by the config.
func (c Config) NewCamera() *bsptree.Camera {
	return bsptree.NewCamera(mgl32.Vec3(c.Camera.Position),
		bsptree.WithYawPitch(c.Camera.Yaw, c.Camera.Pitch),
		bsptree.WithFov(c.Camera.Fov),
	)
}

// RootObject builds the table that anchors the partition tree.
func (c Config) RootObject() *Object {
	return NewObject(KindTable, c.Root.transform())
}

func (t TableConfig) transform() Transform {
	return Transform{
		RotationY:   t.RotationY,
		Translation: mgl32.Vec3(t.Translation),
	}
}

func invalid(field string, value any) error {
	return errors.New("invalid scene config").
		WithType(ErrTypeInvalidConfig).
		WithTag("field", field).
		WithTag("value", value)
}

func finite(values ...float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
