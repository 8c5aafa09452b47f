package life

import (
	"image/color"

	"github.com/san-kum/gpulife/internal/compute"
)

// LocalSize is the work group edge length of the step kernel.
const LocalSize = 16

const stepKernelGLSL = `#version 430 core
layout(local_size_x = 16, local_size_y = 16, local_size_z = 1) in;
layout(r8, binding = 0) uniform readonly image2D currentGrid;
layout(r8, binding = 1) uniform writeonly image2D nextGrid;

void main() {
    ivec2 pos = ivec2(gl_GlobalInvocationID.xy);
    ivec2 size = imageSize(currentGrid);
    if (pos.x >= size.x || pos.y >= size.y) return;

    float current = imageLoad(currentGrid, pos).r;
    int live = 0;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) continue;
            ivec2 n = (pos + ivec2(dx, dy) + size) % size;
            live += imageLoad(currentGrid, n).r > 0.5 ? 1 : 0;
        }
    }

    float next = 0.0;
    if (current > 0.5) {
        next = (live == 2 || live == 3) ? 1.0 : 0.0;
    } else {
        next = (live == 3) ? 1.0 : 0.0;
    }
    imageStore(nextGrid, pos, vec4(next, 0.0, 0.0, 1.0));
}
`

const displayVertexGLSL = `#version 430 core
out vec2 TexCoord;

void main() {
    TexCoord = vec2(gl_VertexID & 1, gl_VertexID >> 1);
    gl_Position = vec4(TexCoord * 2.0 - 1.0, 0.0, 1.0);
}
`

const displayFragmentGLSL = `#version 430 core
in vec2 TexCoord;
out vec4 FragColor;
uniform sampler2D gridTexture;

void main() {
    float value = texture(gridTexture, TexCoord).r;
    FragColor = vec4(value, value, value, 1.0);
}
`

// StepKernel returns the generation step kernel.
func StepKernel() compute.ComputeSource {
	return compute.ComputeSource{
		Name:      "life-step",
		GLSL:      stepKernelGLSL,
		LocalSize: [2]int{LocalSize, LocalSize},
		Cell:      Cell,
	}
}

// DisplayShader returns the full-screen grayscale display program.
func DisplayShader() compute.GraphicsSource {
	return compute.GraphicsSource{
		Name:     "life-display",
		Vertex:   displayVertexGLSL,
		Fragment: displayFragmentGLSL,
		Sampler:  "gridTexture",
		Shade:    Shade,
	}
}

// Shade maps a cell intensity to an opaque gray.
func Shade(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
