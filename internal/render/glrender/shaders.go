package glrender

const terrainVertexShader = `
#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aTexCoord;

uniform mat4 view;
uniform mat4 projection;

out vec2 texCoord;
out vec3 barycentric;
out float height;

void main() {
	// Row 0 of the uploaded image is the first raster row, at v = 1.
	texCoord = vec2(aTexCoord.x, 1.0 - aTexCoord.y);
	gl_Position = projection * view * vec4(aPos, 1.0);

	int corner = gl_VertexID % 3;
	barycentric = corner == 0 ? vec3(1, 0, 0) : corner == 1 ? vec3(0, 1, 0) : vec3(0, 0, 1);
	height = aPos.y;
}
` + "\x00"

const terrainFragmentShader = `
#version 410 core
in vec2 texCoord;
in vec3 barycentric;
in float height;

out vec4 fragColor;

uniform bool coloredLayer;
uniform bool useTexture;
uniform float heightScale;
uniform sampler2D terrainTexture;
uniform vec3 rampColors[7];

const float breakpoints[7] = float[7](-4.0, 250.0, 500.0, 750.0, 1000.0, 1250.0, 1466.0);

vec3 ramp(float e) {
	if (e <= breakpoints[0]) {
		return rampColors[0];
	}
	for (int i = 1; i < 7; i++) {
		if (e < breakpoints[i]) {
			float t = (e - breakpoints[i-1]) / (breakpoints[i] - breakpoints[i-1]);
			return mix(rampColors[i-1], rampColors[i], t);
		}
	}
	return rampColors[6];
}

void main() {
	if (coloredLayer) {
		fragColor = vec4(ramp(height / heightScale), 1.0);
	} else if (useTexture) {
		fragColor = texture(terrainTexture, texCoord);
	} else if (min(min(barycentric.x, barycentric.y), barycentric.z) < 0.01) {
		fragColor = vec4(0.0, 0.0, 0.0, 1.0);
	} else {
		fragColor = vec4(0.7, 0.7, 0.7, 1.0);
	}
}
` + "\x00"

const overlayVertexShader = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 view;
uniform mat4 projection;
void main() {
	gl_Position = projection * view * vec4(aPos, 1.0);
}
` + "\x00"

const overlayFragmentShader = `
#version 410 core
out vec4 fragColor;
uniform vec3 lineColor;
void main() {
	fragColor = vec4(lineColor, 1.0);
}
` + "\x00"
