// Package scene is a small retained-mode scene graph: spherical meshes
// with standard materials, a directional light and a perspective camera.
package scene

import (
	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/texture"
	"github.com/echoflaresat/spacescroll/vectors"
)

// Node is anything that can be attached to a Scene.
type Node interface {
	Object() *Object3D
}

// Object3D carries the transform shared by every node.
type Object3D struct {
	Name     string
	Position vectors.Vec3
	Rotation vectors.Vec3 // Euler angles in radians
	Visible  bool
}

func NewObject3D(name string) Object3D {
	return Object3D{Name: name, Visible: true}
}

func (o *Object3D) Object() *Object3D { return o }

// SphereGeometry describes a UV sphere. Segments only matter to
// tessellating renderers; ray casting uses the analytic surface.
type SphereGeometry struct {
	Radius         float64
	WidthSegments  int
	HeightSegments int
}

func NewSphereGeometry(radius float64, widthSegments, heightSegments int) SphereGeometry {
	return SphereGeometry{Radius: radius, WidthSegments: widthSegments, HeightSegments: heightSegments}
}

// StandardMaterial is a metallic-roughness surface description.
type StandardMaterial struct {
	Color       colors.Color4
	Map         *texture.Texture
	Roughness   float64
	Metalness   float64
	Transparent bool
	Opacity     float64
}

// NewStandardMaterial returns the library defaults: white, fully rough,
// non-metallic, opaque.
func NewStandardMaterial() StandardMaterial {
	return StandardMaterial{
		Color:     colors.White(),
		Roughness: 1.0,
		Metalness: 0.0,
		Opacity:   1.0,
	}
}

// Alpha is the coverage the material contributes when composited.
func (m StandardMaterial) Alpha() float64 {
	if !m.Transparent {
		return 1.0
	}
	return m.Opacity
}

type Mesh struct {
	Object3D
	Geometry SphereGeometry
	Material StandardMaterial
}

func NewMesh(name string, geometry SphereGeometry, material StandardMaterial) *Mesh {
	return &Mesh{Object3D: NewObject3D(name), Geometry: geometry, Material: material}
}

// DirectionalLight shines parallel rays from Position towards Target.
type DirectionalLight struct {
	Object3D
	Color     colors.Color4
	Intensity float64
	Target    *Object3D
}

// NewDirectionalLight creates a light whose target is its own node at the
// origin. Add both the light and its Target to the scene.
func NewDirectionalLight(color colors.Color4, intensity float64) *DirectionalLight {
	target := NewObject3D("light-target")
	return &DirectionalLight{
		Object3D:  NewObject3D("directional-light"),
		Color:     color,
		Intensity: intensity,
		Target:    &target,
	}
}

// Direction is the unit vector pointing from the surface towards the light.
func (l *DirectionalLight) Direction() vectors.Vec3 {
	return l.Position.Sub(l.Target.Position).Normalize()
}

// Scene is the root of the graph.
type Scene struct {
	Children []Node
}

func New() *Scene {
	return &Scene{}
}

func (s *Scene) Add(nodes ...Node) {
	s.Children = append(s.Children, nodes...)
}

// Meshes returns the meshes attached to the scene in insertion order.
func (s *Scene) Meshes() []*Mesh {
	var out []*Mesh
	for _, n := range s.Children {
		if m, ok := n.(*Mesh); ok {
			out = append(out, m)
		}
	}
	return out
}

// Lights returns the directional lights attached to the scene.
func (s *Scene) Lights() []*DirectionalLight {
	var out []*DirectionalLight
	for _, n := range s.Children {
		if l, ok := n.(*DirectionalLight); ok {
			out = append(out, l)
		}
	}
	return out
}

// Contains reports whether the node with the given object is attached.
func (s *Scene) Contains(o *Object3D) bool {
	for _, n := range s.Children {
		if n.Object() == o {
			return true
		}
	}
	return false
}
