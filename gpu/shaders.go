package gpu

// Compute kernels for the tile-based GPU pipeline, §4.4. Buffer bindings
// are documented per-kernel; the host side (dispatch.go) binds SSBOs to
// these indices before each dispatch.

const tileDim = 16 // pixels per tile edge, matches tilePixels in types.go

const commonGLSL = `
#version 430 core

struct GpuSplat {
    vec4 posOpacity;   // xyz = world position, w = opacity
    vec4 colorPad;     // xyz = color, w unused
    vec4 scale;        // xyz = scale, w unused
    vec4 rotation;     // quaternion xyzw
};

struct ProjectedSplat {
    vec4 screenDepth;  // x = screenX, y = screenY, z = depth, w = valid flag
    vec4 radii;        // x = radiusX, y = radiusY, zw unused
    vec4 invCov;       // x = invA, y = invB, z = invC, w unused
    vec4 color;        // xyz = color, w = opacity
};
`

const projectSplatsSrc = commonGLSL + `
layout(local_size_x = 64) in;

layout(std430, binding = 0) readonly buffer Splats { GpuSplat splats[]; };
layout(std430, binding = 1) writeonly buffer Projected { ProjectedSplat projected[]; };

uniform mat3 uViewBasis;    // rows: right, up, forward
uniform vec3 uCamPos;
uniform vec2 uFocal;
uniform vec2 uHalfScreen;
uniform float uNear;
uniform float uFar;
uniform uint uCount;

const float kSigmaCutoff = 4.0;
const float kMinSplatRadius = 0.3;
const float kCovarianceEpsilon = 1e-3;
const float kDeterminantFloor = 1e-8;
const float kBroadMargin = 120.0;

mat3 quatToMat3(vec4 q) {
    float x = q.x, y = q.y, z = q.z, w = q.w;
    return mat3(
        1.0 - 2.0 * (y * y + z * z), 2.0 * (x * y + z * w),       2.0 * (x * z - y * w),
        2.0 * (x * y - z * w),       1.0 - 2.0 * (x * x + z * z), 2.0 * (y * z + x * w),
        2.0 * (x * z + y * w),       2.0 * (y * z - x * w),       1.0 - 2.0 * (x * x + y * y)
    );
}

void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= uCount) return;

    GpuSplat s = splats[i];

    ProjectedSplat p;
    p.screenDepth = vec4(0.0);
    p.radii = vec4(0.0);
    p.invCov = vec4(0.0);
    p.color = vec4(0.0);

    vec3 rel = s.posOpacity.xyz - uCamPos;
    vec3 view = uViewBasis * rel;
    if (view.z < uNear || view.z > uFar) {
        projected[i] = p;
        return;
    }

    float invZ = 1.0 / max(view.z, 1e-5);
    float sx = uHalfScreen.x + view.x * uFocal.x * invZ;
    float sy = uHalfScreen.y - view.y * uFocal.y * invZ;
    if (sx < -kBroadMargin || sx > uHalfScreen.x * 2.0 + kBroadMargin ||
        sy < -kBroadMargin || sy > uHalfScreen.y * 2.0 + kBroadMargin) {
        projected[i] = p;
        return;
    }

    // Sigma3 = R * diag(scale^2) * R^T, rotated into view space, then
    // projected through the perspective Jacobian - mirrors the CPU path's
    // compute3DCovariance/projectCovarianceTo2D exactly so both back-ends
    // agree on splat footprints.
    mat3 rot = quatToMat3(s.rotation);
    vec3 scale2 = s.scale.xyz * s.scale.xyz;
    mat3 sigma3 = rot * mat3(scale2.x, 0.0, 0.0, 0.0, scale2.y, 0.0, 0.0, 0.0, scale2.z) * transpose(rot);

    mat3 covView = uViewBasis * sigma3 * transpose(uViewBasis);

    float invZ2 = invZ * invZ;
    mat3x2 jac = mat3x2(
        uFocal.x * invZ, 0.0,
        0.0, uFocal.y * invZ,
        -uFocal.x * view.x * invZ2, -uFocal.y * view.y * invZ2
    );
    mat3x2 jCov = jac * covView;

    float covA = dot(vec3(jCov[0].x, jCov[1].x, jCov[2].x), vec3(jac[0].x, jac[1].x, jac[2].x)) + kCovarianceEpsilon;
    float covB = dot(vec3(jCov[0].x, jCov[1].x, jCov[2].x), vec3(jac[0].y, jac[1].y, jac[2].y));
    float covC = dot(vec3(jCov[0].y, jCov[1].y, jCov[2].y), vec3(jac[0].y, jac[1].y, jac[2].y)) + kCovarianceEpsilon;

    if (covA <= 0.0 || covC <= 0.0) {
        projected[i] = p;
        return;
    }

    float trace = covA + covC;
    float det = covA * covC - covB * covB;
    float disc = max(trace * trace - 4.0 * det, 0.0);
    float lambda1 = 0.5 * (trace + sqrt(disc));
    float extent = kSigmaCutoff * sqrt(max(lambda1, 0.0));
    if (extent < kMinSplatRadius || abs(det) < kDeterminantFloor) {
        projected[i] = p;
        return;
    }

    float invDet = 1.0 / det;
    p.screenDepth = vec4(sx, sy, view.z, 1.0);
    p.radii = vec4(extent, extent, 0.0, 0.0);
    p.invCov = vec4(covC * invDet, -covB * invDet, covA * invDet, 0.0);
    p.color = vec4(s.colorPad.xyz, s.posOpacity.w);
    projected[i] = p;
}
`

// countTileOverlapsSrc atomically increments one counter per (splat, tile)
// overlap pair. tileCounts is sized numTiles+1: indices [0, numTiles) are
// per-tile overlap counts, and index numTiles accumulates the grand total
// across every tile - the same slot doubles as the scan's upper bound once
// prefixScanBlocks/prefixScanAddOffsets have scanned only the first
// numTiles entries in place, leaving the total untouched in the last slot.
const countTileOverlapsSrc = commonGLSL + `
layout(local_size_x = 64) in;

layout(std430, binding = 1) readonly buffer Projected { ProjectedSplat projected[]; };
layout(std430, binding = 2) buffer TileCounts { uint tileCounts[]; }; // len numTiles+1

uniform uint uCount;
uniform ivec2 uTileGrid;
uniform int uTilePixels;
uniform uint uNumTiles;

void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= uCount) return;

    ProjectedSplat p = projected[i];
    if (p.screenDepth.w == 0.0) return;

    int minTX = clamp(int(floor((p.screenDepth.x - p.radii.x) / float(uTilePixels))), 0, uTileGrid.x - 1);
    int maxTX = clamp(int(ceil((p.screenDepth.x + p.radii.x) / float(uTilePixels))), 0, uTileGrid.x - 1);
    int minTY = clamp(int(floor((p.screenDepth.y - p.radii.y) / float(uTilePixels))), 0, uTileGrid.y - 1);
    int maxTY = clamp(int(ceil((p.screenDepth.y + p.radii.y) / float(uTilePixels))), 0, uTileGrid.y - 1);

    for (int ty = minTY; ty <= maxTY; ty++) {
        for (int tx = minTX; tx <= maxTX; tx++) {
            uint tileId = uint(ty * uTileGrid.x + tx);
            atomicAdd(tileCounts[tileId], 1u);
            atomicAdd(tileCounts[uNumTiles], 1u);
        }
    }
}
`

// Recursive block prefix scan: prefixScanBlocks computes an EXCLUSIVE sum
// within each 256-wide workgroup (in place) and writes each block's total
// to blockSums. Within a block it runs a Hillis-Steele doubling scan
// (log2(256) passes over every lane, then subtracts each lane's own value),
// not a work-efficient Blelloch up-sweep/down-sweep; the host then recursively scans
// blockSums the same way (that's why ensureBlockSumsCapacityForCount sizes
// for every recursion level) until one level fits a single workgroup, then
// prefixScanAddOffsets folds each level's exclusive block prefix back down
// into the level below it, finishing with a single exclusive scan over the
// original array.
const prefixScanBlocksSrc = commonGLSL + `
layout(local_size_x = 256) in;

layout(std430, binding = 2) buffer Counts { uint counts[]; };
layout(std430, binding = 3) writeonly buffer BlockSums { uint blockSums[]; };

shared uint scratch[256];

uniform uint uCount;

void main() {
    uint tid = gl_LocalInvocationID.x;
    uint gid = gl_GlobalInvocationID.x;

    uint original = gid < uCount ? counts[gid] : 0u;
    scratch[tid] = original;
    barrier();

    for (uint offset = 1u; offset < 256u; offset <<= 1u) {
        uint v = 0u;
        if (tid >= offset) v = scratch[tid - offset];
        barrier();
        scratch[tid] += v;
        barrier();
    }

    uint inclusive = scratch[tid];
    if (gid < uCount) counts[gid] = inclusive - original;
    if (tid == 255u) blockSums[gl_WorkGroupID.x] = inclusive;
}
`

const prefixScanAddOffsetsSrc = commonGLSL + `
layout(local_size_x = 256) in;

layout(std430, binding = 2) buffer Counts { uint counts[]; };
layout(std430, binding = 3) readonly buffer BlockOffsets { uint blockOffsets[]; };

uniform uint uCount;

void main() {
    uint gid = gl_GlobalInvocationID.x;
    if (gid >= uCount) return;
    counts[gid] += blockOffsets[gl_WorkGroupID.x];
}
`

// emitTileKeysSrc writes one (key, value) pair per (splat, tile) overlap.
// Each tile's destination range starts at tileOffsets[tileId] (the
// exclusive prefix sum computed by the scan passes) and grows by one slot
// per write via an atomic per-tile cursor in tileCounters, exactly
// mirroring the original backend's write-cursor scheme.
const emitTileKeysSrc = commonGLSL + `
layout(local_size_x = 64) in;

layout(std430, binding = 1) readonly buffer Projected { ProjectedSplat projected[]; };
layout(std430, binding = 2) readonly buffer TileOffsets { uint tileOffsets[]; };
layout(std430, binding = 11) buffer TileCounters { uint tileCounters[]; };
layout(std430, binding = 4) writeonly buffer Keys { uint keys[]; };
layout(std430, binding = 5) writeonly buffer Values { uint values[]; };

uniform uint uCount;
uniform ivec2 uTileGrid;
uniform int uTilePixels;
uniform float uNear;
uniform float uFar;

uint packKey(uint tileId, float depth, uint tieBreak) {
    float t = clamp((depth - uNear) / max(uFar - uNear, 1e-6), 0.0, 1.0);
    uint quantized = uint(t * float((1u << 18) - 1u));
    return (tileId << 22) | (quantized << 4) | (tieBreak & 0xFu);
}

void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= uCount) return;

    ProjectedSplat p = projected[i];
    if (p.screenDepth.w == 0.0) return;

    int minTX = clamp(int(floor((p.screenDepth.x - p.radii.x) / float(uTilePixels))), 0, uTileGrid.x - 1);
    int maxTX = clamp(int(ceil((p.screenDepth.x + p.radii.x) / float(uTilePixels))), 0, uTileGrid.x - 1);
    int minTY = clamp(int(floor((p.screenDepth.y - p.radii.y) / float(uTilePixels))), 0, uTileGrid.y - 1);
    int maxTY = clamp(int(ceil((p.screenDepth.y + p.radii.y) / float(uTilePixels))), 0, uTileGrid.y - 1);

    for (int ty = minTY; ty <= maxTY; ty++) {
        for (int tx = minTX; tx <= maxTX; tx++) {
            uint tileId = uint(ty * uTileGrid.x + tx);
            uint writeIndex = tileOffsets[tileId] + atomicAdd(tileCounters[tileId], 1u);
            keys[writeIndex] = packKey(tileId, p.screenDepth.z, i & 0xFu);
            values[writeIndex] = i;
        }
    }
}
`

// radixSortHistogramSrc and radixSortScatterSrc implement one 8-bit digit
// pass of a stable 4-pass LSD radix sort over the 32-bit packed key; the
// host dispatches both kernels four times, once per byte, ping-ponging the
// key/value buffers. Each workgroup owns one 256-element block and builds
// its own 256-bucket histogram rather than contending on a single global
// one, writing it column-major (digit-major, block-minor) so the host's
// exclusive scan over the flattened buffer lands bucket b of block 0 right
// before bucket b of block 1 — the ordering §4.4.5 requires for stability.
const radixSortHistogramSrc = commonGLSL + `
layout(local_size_x = 256) in;

layout(std430, binding = 4) readonly buffer Keys { uint keys[]; };
layout(std430, binding = 6) buffer Histogram { uint histogram[]; }; // uNumBlocks*256, [digit][block]

uniform uint uCount;
uniform uint uShift;
uniform uint uNumBlocks;

shared uint localHist[256];

void main() {
    uint local = gl_LocalInvocationID.x;
    uint blockId = gl_WorkGroupID.x;
    uint i = gl_GlobalInvocationID.x;

    localHist[local] = 0u;
    barrier();
    memoryBarrierShared();

    if (i < uCount) {
        uint digit = (keys[i] >> uShift) & 0xFFu;
        atomicAdd(localHist[digit], 1u);
    }
    barrier();
    memoryBarrierShared();

    // Thread local publishes bucket local's count for this block; the
    // write order across the workgroup doesn't matter since the sum into
    // localHist above already collapsed to one value per digit.
    histogram[local * uNumBlocks + blockId] = localHist[local];
}
`

const radixSortScatterSrc = commonGLSL + `
layout(local_size_x = 256) in;

layout(std430, binding = 4) readonly buffer KeysIn { uint keysIn[]; };
layout(std430, binding = 5) readonly buffer ValuesIn { uint valuesIn[]; };
layout(std430, binding = 7) writeonly buffer KeysOut { uint keysOut[]; };
layout(std430, binding = 8) writeonly buffer ValuesOut { uint valuesOut[]; };
layout(std430, binding = 6) readonly buffer BucketOffsets { uint bucketOffsets[]; }; // exclusive-scanned, [digit][block]

uniform uint uCount;
uniform uint uShift;
uniform uint uNumBlocks;

shared uint sharedDigit[256];

void main() {
    uint local = gl_LocalInvocationID.x;
    uint blockId = gl_WorkGroupID.x;
    uint i = gl_GlobalInvocationID.x;

    // Every digit in this block, including past-the-end lanes, so the
    // local-rank loop below can run uniformly without an out-of-bounds read.
    sharedDigit[local] = (i < uCount) ? ((keysIn[i] >> uShift) & 0xFFu) : 0xFFFFFFFFu;
    barrier();
    memoryBarrierShared();

    if (i >= uCount) return;

    uint digit = sharedDigit[local];

    // Stable local rank: how many earlier lanes in this same block share
    // this digit. O(blockSize) per thread, but blockSize is capped at 256
    // and this is what keeps the pass order-preserving without a second
    // parallel scan pass per block.
    uint localRank = 0u;
    for (uint j = 0u; j < local; j++) {
        if (sharedDigit[j] == digit) localRank++;
    }

    uint dest = bucketOffsets[digit * uNumBlocks + blockId] + localRank;
    keysOut[dest] = keysIn[i];
    valuesOut[dest] = valuesIn[i];
}
`

const rasterizeTilesSrc = commonGLSL + `
layout(local_size_x = 16, local_size_y = 16) in;

layout(std430, binding = 1) readonly buffer Projected { ProjectedSplat projected[]; };
layout(std430, binding = 5) readonly buffer SortedValues { uint sortedValues[]; };
layout(std430, binding = 2) readonly buffer TileOffsets { uint tileOffsets[]; }; // len numTiles+1, exclusive prefix sum
layout(std430, binding = 10) writeonly buffer OutPixels { uint outPixels[]; }; // packed RGBA

uniform ivec2 uTileGrid;
uniform int uTilePixels;
uniform ivec2 uScreenSize;
uniform float uSaturationEpsilon;
uniform float uMinContribution;

void main() {
    ivec2 px = ivec2(gl_GlobalInvocationID.xy);
    if (px.x >= uScreenSize.x || px.y >= uScreenSize.y) return;

    ivec2 tileCoord = px / uTilePixels;
    uint tileId = uint(tileCoord.y * uTileGrid.x + tileCoord.x);
    uint rangeStart = tileOffsets[tileId];
    uint rangeEnd = tileOffsets[tileId + 1u];

    vec3 accum = vec3(0.0);
    float alpha = 0.0;

    for (uint k = rangeStart; k < rangeEnd && alpha < uSaturationEpsilon; k++) {
        uint splatIndex = sortedValues[k];
        ProjectedSplat p = projected[splatIndex];

        float dx = (float(px.x) + 0.5) - p.screenDepth.x;
        float dy = (float(px.y) + 0.5) - p.screenDepth.y;
        float q = dx * dx * p.invCov.x + 2.0 * dx * dy * p.invCov.y + dy * dy * p.invCov.z;
        float g = q > 32.0 ? 0.0 : exp(-0.5 * q);
        if (g < uMinContribution) continue;

        float weight = p.color.w * g * (1.0 - alpha);
        accum += p.color.xyz * weight;
        alpha += weight;
    }

    uint r = uint(clamp(accum.x, 0.0, 1.0) * 255.0);
    uint gC = uint(clamp(accum.y, 0.0, 1.0) * 255.0);
    uint b = uint(clamp(accum.z, 0.0, 1.0) * 255.0);
    uint a = uint(clamp(alpha, 0.0, 1.0) * 255.0);
    outPixels[px.y * uScreenSize.x + px.x] = r | (gC << 8) | (b << 16) | (a << 24);
}
`
