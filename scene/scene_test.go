package scene

import (
	"math"
	"testing"

	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/vectors"
)

func near(a, b vectors.Vec3, eps float64) bool {
	return vectors.Distance(a, b) < eps
}

func TestCameraCenterRay(t *testing.T) {
	cam := NewPerspectiveCamera(50, 16.0/9.0, 1, 10000)
	cam.Position = vectors.New(0, 0, 50)

	origin, dir := cam.Unprojector().Ray(0, 0)
	if !near(origin, vectors.New(0, 0, 50), 1e-9) {
		t.Fatalf("origin = %v", origin)
	}
	if !near(dir, vectors.New(0, 0, -1), 1e-6) {
		t.Fatalf("center direction = %v, want (0,0,-1)", dir)
	}
}

func TestCameraEdgeRayMatchesFOV(t *testing.T) {
	cam := NewPerspectiveCamera(50, 2, 1, 10000)
	cam.Position = vectors.New(0, 0, 50)
	u := cam.Unprojector()

	// Top edge of the frustum sits at half the vertical FOV.
	_, top := u.Ray(0, 1)
	got := math.Atan2(top.Y, -top.Z) * 180 / math.Pi
	if math.Abs(got-25) > 1e-6 {
		t.Errorf("vertical half-angle = %v, want 25", got)
	}

	// Right edge is widened by the aspect ratio.
	_, right := u.Ray(1, 0)
	want := math.Atan(2*math.Tan(25*math.Pi/180)) * 180 / math.Pi
	got = math.Atan2(right.X, -right.Z) * 180 / math.Pi
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("horizontal half-angle = %v, want %v", got, want)
	}
}

func TestAspectOnlyAppliesAfterUpdate(t *testing.T) {
	cam := NewPerspectiveCamera(50, 1, 1, 10000)
	before := cam.Projection()
	cam.Aspect = 2
	if cam.Projection() != before {
		t.Fatal("projection changed before UpdateProjectionMatrix")
	}
	cam.UpdateProjectionMatrix()
	if cam.Projection() == before {
		t.Fatal("projection unchanged after UpdateProjectionMatrix")
	}
}

func TestComputeRayPixelCenters(t *testing.T) {
	cam := NewPerspectiveCamera(50, 1, 1, 10000)
	cam.Position = vectors.New(0, 0, 50)
	u := cam.Unprojector()

	// In a 3x3 image the middle pixel centre is the optical axis.
	_, dir := u.ComputeRay(1, 1, 3, 3)
	if !near(dir, vectors.New(0, 0, -1), 1e-6) {
		t.Fatalf("middle pixel direction = %v", dir)
	}
	_, topLeft := u.ComputeRay(0, 0, 3, 3)
	if topLeft.X >= 0 || topLeft.Y <= 0 {
		t.Fatalf("top-left pixel should look up and left, got %v", topLeft)
	}
}

func TestDirectionalLightTargetsOrigin(t *testing.T) {
	l := NewDirectionalLight(colors.White(), 2)
	l.Position = vectors.New(100, 50, 50)
	want := vectors.New(100, 50, 50).Normalize()
	if !near(l.Direction(), want, 1e-12) {
		t.Fatalf("Direction() = %v, want %v", l.Direction(), want)
	}
}

func TestSceneQueries(t *testing.T) {
	s := New()
	m := NewMesh("earth", NewSphereGeometry(25, 32, 32), NewStandardMaterial())
	l := NewDirectionalLight(colors.White(), 1)
	s.Add(m, l, l.Target)

	if got := s.Meshes(); len(got) != 1 || got[0] != m {
		t.Fatalf("Meshes() = %v", got)
	}
	if got := s.Lights(); len(got) != 1 || got[0] != l {
		t.Fatalf("Lights() = %v", got)
	}
	if !s.Contains(l.Target) {
		t.Fatal("light target should be a scene node")
	}
	if !m.Visible {
		t.Fatal("meshes start visible")
	}
}

func TestMaterialAlpha(t *testing.T) {
	m := NewStandardMaterial()
	m.Opacity = 0.5
	if m.Alpha() != 1 {
		t.Errorf("opaque material alpha = %v, want 1", m.Alpha())
	}
	m.Transparent = true
	if m.Alpha() != 0.5 {
		t.Errorf("transparent material alpha = %v, want 0.5", m.Alpha())
	}
}
