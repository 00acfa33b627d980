// Package choreo drives the landing-page scene: four bodies whose
// positions follow the page scroll offset and whose spin follows the frame
// count. Hosts translate their input events into Scroll, Resize and Frame
// calls, all from a single goroutine.
package choreo

import (
	"math"

	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/render"
	"github.com/echoflaresat/spacescroll/scene"
	"github.com/echoflaresat/spacescroll/texture"
	"github.com/echoflaresat/spacescroll/vectors"
)

const (
	CameraFOV  = 50.0
	CameraNear = 1.0
	CameraFar  = 10000.0
	CameraZ    = 50.0

	// OrbitSpeed converts scrolled pixels into Moon orbit radians.
	OrbitSpeed = 0.01

	LightIntensity = 2.0

	sphereSegments = 32
)

// Per-frame spin about the vertical axis, in radians per frame.
const (
	EarthSpin  = 0.001
	CloudsSpin = -0.0005
	MoonSpin   = -0.001
	MarsSpin   = 0.0008
)

// Resting positions, reapplied on every resize.
var (
	EarthHome = vectors.New(0, -25, 0)
	MoonHome  = vectors.New(20, 10, -25)
	MarsHome  = vectors.New(-200, 0, -200)

	DefaultLightPosition = vectors.New(100, 50, 50)
)

// Renderer is the drawing collaborator the scene is handed to each frame.
type Renderer interface {
	SetPixelRatio(ratio float64)
	SetSize(width, height int, updateStyle bool)
	Surface() render.Surface
	Render(s *scene.Scene, camera *scene.PerspectiveCamera)
}

// TextureSource starts texture loads without waiting for them.
type TextureSource interface {
	Load(path string) *texture.Texture
}

// Viewport is what the host reports about the page at load and on resize.
type Viewport struct {
	Width, Height    int
	DevicePixelRatio float64
	HeroHeight       float64
}

type Assets struct {
	EarthSurface string
	EarthClouds  string
	MoonSurface  string
	MarsSurface  string
}

func DefaultAssets() Assets {
	return Assets{
		EarthSurface: "./assets/images/earth_surface.jpg",
		EarthClouds:  "./assets/images/earth_clouds.jpg",
		MoonSurface:  "./assets/images/moon_1.jpg",
		MarsSurface:  "./assets/images/mars_surface.jpg",
	}
}

type Config struct {
	Assets Assets

	// MoonGating hides the Moon once the page scrolls past the hero
	// section. With gating off the Moon always orbits and never hides.
	MoonGating bool

	LightPosition vectors.Vec3

	// OnMoonToggle, when set, is called whenever the Moon is shown or hidden.
	OnMoonToggle func(visible bool)
}

func DefaultConfig() Config {
	return Config{
		Assets:        DefaultAssets(),
		MoonGating:    true,
		LightPosition: DefaultLightPosition,
	}
}

// ScrollState is everything the scroll handler remembers between events.
type ScrollState struct {
	LastScrollY float64
	MoonAngle   float64
	MoonActive  bool
}

type Bodies struct {
	Earth, Clouds, Moon, Mars *scene.Mesh
}

// Choreographer owns the scene, its camera and the scroll state.
// It is not safe for concurrent use.
type Choreographer struct {
	cfg      Config
	scene    *scene.Scene
	camera   *scene.PerspectiveCamera
	renderer Renderer
	light    *scene.DirectionalLight
	bodies   Bodies

	heroEndY float64
	state    ScrollState
	frames   uint64
}

// New builds the scene and binds it to the renderer. Textures are
// requested from src and bind themselves whenever they finish loading.
func New(cfg Config, vp Viewport, r Renderer, src TextureSource) *Choreographer {
	c := &Choreographer{
		cfg:      cfg,
		scene:    scene.New(),
		renderer: r,
		heroEndY: vp.HeroHeight,
		state:    ScrollState{MoonActive: true},
	}

	c.camera = scene.NewPerspectiveCamera(CameraFOV, aspect(vp.Width, vp.Height), CameraNear, CameraFar)
	c.camera.Position = vectors.New(0, 0, CameraZ)

	r.SetPixelRatio(math.Min(vp.DevicePixelRatio, render.MaxPixelRatio))
	r.SetSize(vp.Width, vp.Height, true)

	earthMap := src.Load(cfg.Assets.EarthSurface)
	cloudsMap := src.Load(cfg.Assets.EarthClouds)
	moonMap := src.Load(cfg.Assets.MoonSurface)
	marsMap := src.Load(cfg.Assets.MarsSurface)

	earthMat := scene.NewStandardMaterial()
	earthMat.Map = earthMap
	earthMat.Roughness = 0.5
	earthMat.Metalness = 0.1

	cloudsMat := scene.NewStandardMaterial()
	cloudsMat.Map = cloudsMap
	cloudsMat.Transparent = true
	cloudsMat.Opacity = 0.5

	moonMat := scene.NewStandardMaterial()
	moonMat.Map = moonMap
	moonMat.Roughness = 0.5
	moonMat.Metalness = 0.1

	marsMat := scene.NewStandardMaterial()
	marsMat.Map = marsMap
	marsMat.Roughness = 0.7
	marsMat.Metalness = 0.1

	c.bodies = Bodies{
		Earth:  scene.NewMesh("earth", scene.NewSphereGeometry(25, sphereSegments, sphereSegments), earthMat),
		Clouds: scene.NewMesh("clouds", scene.NewSphereGeometry(25.2, sphereSegments, sphereSegments), cloudsMat),
		Moon:   scene.NewMesh("moon", scene.NewSphereGeometry(5, sphereSegments, sphereSegments), moonMat),
		Mars:   scene.NewMesh("mars", scene.NewSphereGeometry(15, sphereSegments, sphereSegments), marsMat),
	}
	c.scene.Add(c.bodies.Earth, c.bodies.Clouds, c.bodies.Moon, c.bodies.Mars)

	c.light = scene.NewDirectionalLight(colors.FromHex(0xffffff), LightIntensity)
	c.light.Position = cfg.LightPosition
	c.light.Target.Position = vectors.Zero()
	c.scene.Add(c.light, c.light.Target)

	c.updateScenePositions(vp)
	return c
}

func aspect(width, height int) float64 {
	return float64(width) / float64(height)
}

// updateScenePositions refreshes the camera aspect and puts every body
// back at its resting position.
func (c *Choreographer) updateScenePositions(vp Viewport) {
	c.camera.Aspect = aspect(vp.Width, vp.Height)
	c.camera.UpdateProjectionMatrix()

	c.bodies.Earth.Position = EarthHome
	c.bodies.Clouds.Position = EarthHome
	c.bodies.Moon.Position = MoonHome
	c.bodies.Mars.Position = MarsHome
}

// Resize handles a viewport resize. Bodies snap back to their resting
// layout while the scroll state is kept, so the next Scroll jumps them
// back onto the scroll path.
func (c *Choreographer) Resize(vp Viewport) {
	c.updateScenePositions(vp)
	c.heroEndY = vp.HeroHeight
}

// Scroll applies the page scroll offset to every body.
func (c *Choreographer) Scroll(scrollY float64) {
	deltaScroll := scrollY - c.state.LastScrollY
	c.state.LastScrollY = scrollY

	earth, clouds, moon, mars := c.bodies.Earth, c.bodies.Clouds, c.bodies.Moon, c.bodies.Mars

	earth.Position.X = scrollY / 20
	earth.Position.Y = -25 + scrollY/20
	earth.Position.Z = -scrollY / 10
	clouds.Position = earth.Position

	if !c.cfg.MoonGating || scrollY <= c.heroEndY {
		if !c.state.MoonActive {
			moon.Visible = true
			c.state.MoonActive = true
			c.notifyMoon(true)
		}

		c.state.MoonAngle += deltaScroll * OrbitSpeed
		a := c.state.MoonAngle

		moon.Position.X = 20 + earth.Position.X - 50*math.Sin(a)
		moon.Position.Y = 10 - scrollY/100 - 10*math.Sin(a)
		moon.Position.Z = -25 + earth.Position.Z + 70*math.Sin(a/2)
	} else if c.state.MoonActive {
		moon.Visible = false
		c.state.MoonActive = false
		c.notifyMoon(false)
	}

	mars.Position.X = -200 + scrollY/2
	mars.Position.Z = -200 + scrollY/2
}

func (c *Choreographer) notifyMoon(visible bool) {
	if c.cfg.OnMoonToggle != nil {
		c.cfg.OnMoonToggle(visible)
	}
}

// Frame advances one display refresh: keep the drawing buffer matched to
// its displayed size, spin the bodies and draw.
func (c *Choreographer) Frame() {
	c.resizeRendererToDisplaySize()

	c.bodies.Earth.Rotation.Y += EarthSpin
	c.bodies.Clouds.Rotation.Y += CloudsSpin
	c.bodies.Moon.Rotation.Y += MoonSpin
	c.bodies.Mars.Rotation.Y += MarsSpin
	c.frames++

	c.renderer.Render(c.scene, c.camera)
}

func (c *Choreographer) resizeRendererToDisplaySize() {
	s := c.renderer.Surface()
	if !s.NeedsResize() {
		return
	}
	// A collapsed surface has no meaningful aspect; leave the camera alone.
	if s.ClientWidth <= 0 || s.ClientHeight <= 0 {
		return
	}
	c.renderer.SetSize(s.ClientWidth, s.ClientHeight, false)
	c.camera.Aspect = aspect(s.ClientWidth, s.ClientHeight)
	c.camera.UpdateProjectionMatrix()
}

func (c *Choreographer) State() ScrollState { return c.state }
func (c *Choreographer) Bodies() Bodies { return c.bodies }
func (c *Choreographer) Camera() *scene.PerspectiveCamera { return c.camera }
func (c *Choreographer) Scene() *scene.Scene { return c.scene }
func (c *Choreographer) Light() *scene.DirectionalLight { return c.light }
func (c *Choreographer) HeroEndY() float64 { return c.heroEndY }
func (c *Choreographer) Frames() uint64 { return c.frames }
