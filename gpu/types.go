package gpu

// Tile geometry and dispatch-sizing constants, mirrored from the
// fixed-function constants of the tile pipeline this back-end generalizes.
const (
	tilePixels         = 16
	threadsPerGroup1D  = 256
	radixBuckets       = 256
	maxTilesEncodable  = 1 << 10 // tile_id occupies the top 10 bits of the sort key
	gpuWaitTimeoutMs   = 500
	shrinkHysteresisFr = 60
)

// TileConfig mirrors the GPU-side uniform block describing the tile grid
// for the current frame's screen size.
type TileConfig struct {
	TileCountX   uint32
	TileCountY   uint32
	ScreenWidth  uint32
	ScreenHeight uint32
}

// NumTiles returns the total tile count for this configuration.
func (c TileConfig) NumTiles() int {
	return int(c.TileCountX) * int(c.TileCountY)
}

// tileConfigFor computes the tile grid for a screen size, clamping each
// axis to at least one tile.
func tileConfigFor(screenWidth, screenHeight int) TileConfig {
	tx := divCeilInt(screenWidth, tilePixels)
	ty := divCeilInt(screenHeight, tilePixels)
	if tx < 1 {
		tx = 1
	}
	if ty < 1 {
		ty = 1
	}
	return TileConfig{
		TileCountX:   uint32(tx),
		TileCountY:   uint32(ty),
		ScreenWidth:  uint32(screenWidth),
		ScreenHeight: uint32(screenHeight),
	}
}

func divCeilInt(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func divCeilU32(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// requiredBlockSumElements returns the number of elements a recursive
// prefix-scan-of-blocks pass needs for count elements, folding the block
// totals down one level at a time until a single block remains.
func requiredBlockSumElements(count uint32) int {
	if count == 0 {
		return 1
	}
	total := 0
	blocks := divCeilU32(count, threadsPerGroup1D)
	for {
		total += int(blocks)
		if blocks <= 1 {
			break
		}
		blocks = divCeilU32(blocks, threadsPerGroup1D)
	}
	if total < 1 {
		total = 1
	}
	return total
}
