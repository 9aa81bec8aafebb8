package primitives

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"particle-tree/internal/mathutil"
)

// Mesh names understood by the registry. The ornament table refers to them.
const (
	MeshSphere   = "sphere"
	MeshCube     = "cube"
	MeshCylinder = "cylinder"
	MeshPlane    = "plane"
	MeshDot      = "dot"
	MeshFrame    = "frame"
)

// meshDef generates one mesh type. offset recenters the mesh on the model
// origin; emissive mixes the unlit tint into the lit colour (1 = unlit glow).
type meshDef struct {
	gen      func() rl.Mesh
	offset   mathutil.Vec3
	emissive float32
}

const (
	sphereRings     = 16
	sphereSlices    = 16
	dotRings        = 6
	dotSlices       = 6
	cylinderSlices  = 16
	planeResolution = 1
)

// Every mesh has unit size so the entity scale is its size in world units.
var meshDefs = map[string]meshDef{
	MeshSphere: {gen: func() rl.Mesh { return rl.GenMeshSphere(0.5, sphereRings, sphereSlices) }},
	MeshCube:   {gen: func() rl.Mesh { return rl.GenMeshCube(1, 1, 1) }},
	// Raylib cylinder: base Y=0, top Y=height.
	MeshCylinder: {gen: func() rl.Mesh { return rl.GenMeshCylinder(0.5, 1, cylinderSlices) }, offset: mathutil.Vec3{0, -0.5, 0}},
	MeshPlane:    {gen: func() rl.Mesh { return rl.GenMeshPlane(1, 1, planeResolution, planeResolution) }},
	MeshDot:      {gen: func() rl.Mesh { return rl.GenMeshSphere(0.5, dotRings, dotSlices) }, emissive: 1},
}

// ToMatrix converts a row-major Mat4 to raylib's column-major Matrix.
func ToMatrix(m mathutil.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M4: m[1], M8: m[2], M12: m[3],
		M1: m[4], M5: m[5], M9: m[6], M13: m[7],
		M2: m[8], M6: m[9], M10: m[10], M14: m[11],
		M3: m[12], M7: m[13], M11: m[14], M15: m[15],
	}
}

// Color converts an RGBA array to a raylib colour.
func Color(c [4]uint8) rl.Color {
	return rl.NewColor(c[0], c[1], c[2], c[3])
}
