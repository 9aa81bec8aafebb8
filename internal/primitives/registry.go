package primitives

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/ornament"
)

// cached holds mesh and material for a mesh type. Created lazily on first Draw.
// texturedMtl is used when drawing with an albedo texture (same mesh, different material).
type cached struct {
	def         meshDef
	mesh        rl.Mesh
	mtl         rl.Material
	texturedMtl rl.Material
}

// Registry maps mesh names to mesh+material. Meshes are created on first use
// so that GPU resources are allocated after the window/OpenGL context exists.
// All methods must run on the render goroutine.
type Registry struct {
	cache    map[string]*cached
	shader   rl.Shader
	texShade rl.Shader
	loaded   bool
	viewPos  mathutil.Vec3 // camera position, set each frame for lighting
	lightDir mathutil.Vec3 // direction to light (normalized), set each frame
}

// NewRegistry returns a registry with no meshes.
func NewRegistry() *Registry {
	return &Registry{
		cache:    make(map[string]*cached),
		lightDir: mathutil.Vec3{0.5, 1, 0.5}.Normalize(), // default: from above-right
	}
}

// SetView sets camera position and direction-to-light for this frame. Call once per frame
// before drawing so lit meshes get correct shading.
func (r *Registry) SetView(viewPos, lightDir mathutil.Vec3) {
	r.viewPos = viewPos
	r.lightDir = lightDir.Normalize()
}

func (r *Registry) loadShaders() {
	if r.loaded {
		return
	}
	r.loaded = true
	r.shader = rl.LoadShaderFromMemory(litVS, litFS)
	r.texShade = rl.LoadShaderFromMemory(litVS, litTexturedFS)
}

// ensure creates the mesh and materials for name if not yet cached. The lit
// shaders are shared by all meshes; an invalid shader falls back to raylib's default.
func (r *Registry) ensure(name string) (*cached, bool) {
	if c, ok := r.cache[name]; ok {
		return c, true
	}
	def, ok := meshDefs[name]
	if !ok {
		return nil, false
	}
	r.loadShaders()
	c := &cached{def: def, mesh: def.gen()}
	c.mtl = rl.LoadMaterialDefault()
	if rl.IsShaderValid(r.shader) {
		c.mtl.Shader = r.shader
	}
	c.texturedMtl = rl.LoadMaterialDefault()
	if albedo := c.texturedMtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = rl.White
	}
	if rl.IsShaderValid(r.texShade) {
		c.texturedMtl.Shader = r.texShade
	}
	r.cache[name] = c
	return c, true
}

const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = vertexTexCoord;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec4 ambient;
uniform vec3 lightColor;
uniform float lightIntensity;
uniform float specularPower;
uniform float specularStrength;
uniform float emissive;
out vec4 finalColor;
void main() {
  vec4 tint = colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  float NdotL = max(dot(N, L), 0.0);
  vec3 diffuse = tint.rgb * NdotL * lightColor * lightIntensity;
  vec3 amb = ambient.rgb * tint.rgb;
  vec3 H = normalize(L + V);
  float NdotH = max(dot(N, H), 0.0);
  float spec = pow(NdotH, specularPower) * specularStrength;
  vec3 specular = lightColor * spec * (NdotL > 0.0 ? 1.0 : 0.0);
  vec3 lit = amb + diffuse + specular;
  finalColor = vec4(mix(lit, tint.rgb, emissive), tint.a);
}
`
	// litTexturedFS: same as litFS but tint from albedo texture * colDiffuse.
	litTexturedFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec4 ambient;
uniform vec3 lightColor;
uniform float lightIntensity;
uniform float specularPower;
uniform float specularStrength;
uniform float emissive;
uniform sampler2D albedoMap;
out vec4 finalColor;
void main() {
  vec4 texColor = texture(albedoMap, fragTexCoord);
  vec4 tint = texColor * colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  float NdotL = max(dot(N, L), 0.0);
  vec3 diffuse = tint.rgb * NdotL * lightColor * lightIntensity;
  vec3 amb = ambient.rgb * tint.rgb;
  vec3 H = normalize(L + V);
  float NdotH = max(dot(N, H), 0.0);
  float spec = pow(NdotH, specularPower) * specularStrength;
  vec3 specular = lightColor * spec * (NdotL > 0.0 ? 1.0 : 0.0);
  vec3 lit = amb + diffuse + specular;
  finalColor = vec4(mix(lit, tint.rgb, emissive), tint.a);
}
`
)

// defaultAmbient is the ambient term (dim so shadowed areas aren't pure black).
var defaultAmbient = [4]float32{0.18, 0.2, 0.24, 1.0}

// defaultLightColor is a soft warm-white for the directional light.
var defaultLightColor = [3]float32{1.0, 0.95, 0.85}

// defaultLightIntensity scales the directional diffuse (0–1).
const defaultLightIntensity = float32(0.85)

// defaultSpecularPower controls highlight tightness (higher = smaller, sharper highlight).
const defaultSpecularPower = float32(48.0)

// defaultSpecularStrength scales specular contribution (0–1).
const defaultSpecularStrength = float32(0.5)

// setLitShaderUniforms sets lighting and emissive uniforms on the given shader (cgo-safe: local arrays).
func (r *Registry) setLitShaderUniforms(shader rl.Shader, emissive float32) {
	if !rl.IsShaderValid(shader) {
		return
	}
	viewPos := [3]float32{r.viewPos[0], r.viewPos[1], r.viewPos[2]}
	lightDir := [3]float32{r.lightDir[0], r.lightDir[1], r.lightDir[2]}
	amb := [4]float32{defaultAmbient[0], defaultAmbient[1], defaultAmbient[2], defaultAmbient[3]}
	lightColor := [3]float32{defaultLightColor[0], defaultLightColor[1], defaultLightColor[2]}
	if loc := rl.GetShaderLocation(shader, "viewPos"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, viewPos[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, lightDir[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "ambient"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, amb[:], rl.ShaderUniformVec4, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightColor"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, lightColor[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{defaultLightIntensity}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularPower"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{defaultSpecularPower}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularStrength"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{defaultSpecularStrength}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "emissive"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{emissive}, rl.ShaderUniformFloat)
	}
}

// transform places the recentred mesh under model.
func (c *cached) transform(model mathutil.Mat4) rl.Matrix {
	if c.def.offset != (mathutil.Vec3{}) {
		model = model.Mul(mathutil.Translate(c.def.offset))
	}
	return ToMatrix(model)
}

// Draw draws one instance of the named mesh with the given world matrix and tint.
// Must be called between BeginMode3D and EndMode3D, after SetView.
// The "frame" mesh needs a texture; use DrawPhoto. Unknown names are skipped.
func (r *Registry) Draw(name string, model mathutil.Mat4, tint [4]uint8) {
	c, ok := r.ensure(name)
	if !ok {
		return
	}
	if albedo := c.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = Color(tint)
	}
	r.setLitShaderUniforms(c.mtl.Shader, c.def.emissive)
	rl.DrawMesh(c.mesh, c.mtl, c.transform(model))
}

// DrawWithTexture draws the named mesh using tex as albedo. An invalid
// texture falls back to a plain tinted draw.
func (r *Registry) DrawWithTexture(name string, model mathutil.Mat4, tex rl.Texture2D) {
	if !rl.IsTextureValid(tex) {
		r.Draw(name, model, [4]uint8{255, 255, 255, 255})
		return
	}
	c, ok := r.ensure(name)
	if !ok {
		return
	}
	rl.SetMaterialTexture(&c.texturedMtl, rl.MapAlbedo, tex)
	r.setLitShaderUniforms(c.texturedMtl.Shader, 0.35)
	rl.DrawMesh(c.mesh, c.texturedMtl, c.transform(model))
}

// photoLift keeps the picture just in front of its frame.
const photoLift = 0.002

// DrawPhoto draws a framed photo: a thin tinted box with the picture on its
// front face (+Z in model space). The picture is 1 high and aspect wide.
func (r *Registry) DrawPhoto(model mathutil.Mat4, aspect float32, frameTint [4]uint8, tex rl.Texture2D) {
	half := ornament.FrameHalfExtents(aspect)
	if aspect <= 0 {
		aspect = 1
	}
	frame := model.Mul(mathutil.ScaleMat(half.Scale(2)))
	r.Draw(MeshCube, frame, frameTint)

	// The plane lies in XZ facing +Y; stand it up to face +Z.
	picture := model.
		Mul(mathutil.Translate(mathutil.Vec3{0, 0, half[2] + photoLift})).
		Mul(mathutil.RotX(halfPi)).
		Mul(mathutil.ScaleMat(mathutil.Vec3{aspect, 1, 1}))
	r.DrawWithTexture(MeshPlane, picture, tex)
}

const halfPi = 1.5707963267948966

// Unload frees every mesh, material and shader. The registry can be reused
// afterwards; meshes are recreated on demand.
func (r *Registry) Unload() {
	for name, c := range r.cache {
		rl.UnloadMesh(&c.mesh)
		delete(r.cache, name)
	}
	if r.loaded {
		if rl.IsShaderValid(r.shader) {
			rl.UnloadShader(r.shader)
		}
		if rl.IsShaderValid(r.texShade) {
			rl.UnloadShader(r.texShade)
		}
		r.loaded = false
	}
}

