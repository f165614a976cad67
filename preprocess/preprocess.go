// Package preprocess cleans page rasters ahead of OCR: deskewing, median
// denoising, and Otsu binarization. Each operation is independently
// toggleable and applied only when its heuristic says it will help, so a
// clean raster passes through untouched. Preprocessing is an optimization:
// with every operation disabled the raw raster is still usable for OCR.
//
// No operation changes the raster's dimensions, so the page index mapping
// is never disturbed.
package preprocess

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Operation names recorded in Result.Applied.
const (
	OpDeskew   = "deskew"
	OpDenoise  = "denoise"
	OpBinarize = "binarize"
)

const (
	// minSkewDegrees is the smallest skew angle worth correcting. Below
	// this the rotation would shuffle pixels without helping OCR.
	minSkewDegrees = 0.5

	// maxSkewDegrees bounds the skew search. Scans from flatbed feeders
	// are rarely off by more than a few degrees; anything larger is more
	// likely a landscape page than skew.
	maxSkewDegrees = 5.0

	// noiseThreshold is the fraction of isolated dark pixels above which
	// the median filter is applied.
	noiseThreshold = 0.02
)

// Config toggles the individual preprocessing operations.
type Config struct {
	Deskew   bool
	Denoise  bool
	Binarize bool
}

// DefaultConfig enables every operation.
func DefaultConfig() Config {
	return Config{Deskew: true, Denoise: true, Binarize: true}
}

// Result carries the cleaned raster and the operations that actually ran.
type Result struct {
	Image   image.Image
	Applied []string
}

// Preprocessor applies the configured cleanup operations to page rasters.
type Preprocessor struct {
	config Config
}

// New creates a preprocessor with the given configuration.
func New(config Config) *Preprocessor {
	return &Preprocessor{config: config}
}

// Process runs the enabled operations over the raster and returns the
// cleaned image. Operations run in a fixed order: deskew, denoise, binarize.
// The result is deterministic for identical input.
func (p *Preprocessor) Process(img image.Image) Result {
	result := Result{Image: img}
	if img == nil {
		return result
	}

	gray := toGray(img)

	if p.config.Deskew {
		angle := estimateSkew(gray)
		if math.Abs(angle) >= minSkewDegrees {
			gray = rotate(gray, -angle)
			result.Applied = append(result.Applied, OpDeskew)
		}
	}

	if p.config.Denoise {
		if estimateNoise(gray) > noiseThreshold {
			gray = medianFilter(gray)
			result.Applied = append(result.Applied, OpDenoise)
		}
	}

	if p.config.Binarize {
		gray = binarize(gray, otsuThreshold(gray))
		result.Applied = append(result.Applied, OpBinarize)
	}

	if len(result.Applied) > 0 {
		result.Image = gray
	}
	return result
}

// toGray converts any image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Stride == g.Bounds().Dx() {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// estimateSkew searches for the rotation angle, in degrees, that maximizes
// the variance of the horizontal projection profile. Text lines produce a
// strongly peaked profile when the baselines are horizontal.
func estimateSkew(gray *image.Gray) float64 {
	threshold := otsuThreshold(gray)

	best := 0.0
	bestScore := projectionVariance(gray, threshold, 0)

	for angle := -maxSkewDegrees; angle <= maxSkewDegrees; angle += 0.5 {
		if angle == 0 {
			continue
		}
		score := projectionVariance(gray, threshold, angle)
		if score > bestScore {
			bestScore = score
			best = angle
		}
	}
	return best
}

// projectionVariance computes the variance of per-row dark pixel counts with
// the rows sheared by the given angle. The image is sampled on a coarse grid
// to keep the angle search cheap.
func projectionVariance(gray *image.Gray, threshold uint8, angleDeg float64) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	step := 1
	if w*h > 1_000_000 {
		step = 4
	}

	tan := math.Tan(angleDeg * math.Pi / 180)
	rows := make([]int, h)
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			if gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < threshold {
				// Shear: pixel (x,y) contributes to row y - x*tan, so
				// rows align when the candidate matches the true skew.
				row := y - int(float64(x)*tan)
				if row >= 0 && row < h {
					rows[row]++
				}
			}
		}
	}

	var sum, sumSq float64
	for _, count := range rows {
		c := float64(count)
		sum += c
		sumSq += c * c
	}
	n := float64(len(rows))
	mean := sum / n
	return sumSq/n - mean*mean
}

// rotate returns the image rotated by the given angle in degrees around its
// center, keeping the original dimensions. Uncovered corners fill white.
func rotate(gray *image.Gray, angleDeg float64) *image.Gray {
	bounds := gray.Bounds()
	dst := image.NewGray(bounds)
	for i := range dst.Pix {
		dst.Pix[i] = 0xFF
	}

	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(bounds.Min.X) + float64(bounds.Dx())/2
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())/2

	// Rotation about (cx, cy): translate to origin, rotate, translate back.
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, m, gray, bounds, draw.Src, nil)
	return dst
}

// estimateNoise returns the fraction of dark pixels with no dark neighbor,
// a cheap proxy for salt-and-pepper noise.
func estimateNoise(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	threshold := otsuThreshold(gray)

	step := 1
	if w*h > 1_000_000 {
		step = 2
	}

	dark, isolated := 0, 0
	for y := 1; y < h-1; y += step {
		for x := 1; x < w-1; x += step {
			if gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y >= threshold {
				continue
			}
			dark++
			neighbors := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if gray.GrayAt(bounds.Min.X+x+dx, bounds.Min.Y+y+dy).Y < threshold {
						neighbors++
					}
				}
			}
			if neighbors == 0 {
				isolated++
			}
		}
	}

	if dark == 0 {
		return 0
	}
	return float64(isolated) / float64(dark)
}

// medianFilter applies a 3x3 median filter, removing isolated noise pixels
// while preserving stroke edges reasonably well.
func medianFilter(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	copy(dst.Pix, gray.Pix)

	var window [9]int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = int(gray.GrayAt(bounds.Min.X+x+dx, bounds.Min.Y+y+dy).Y)
					i++
				}
			}
			sort.Ints(window[:])
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(window[4])})
		}
	}
	return dst
}

// otsuThreshold computes the Otsu binarization threshold from the image
// histogram. Pixels strictly below the returned value are dark: a split
// maximal at bin i puts bins 0..i in the dark class, so the exclusive
// threshold is i+1. On a bimodal histogram the maximum is flat across the
// empty bins between the modes; the midpoint of that run keeps the cut
// away from both modes.
func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	bounds := gray.Bounds()
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, count := range hist {
		sum += float64(i) * float64(count)
	}

	var sumB, wB float64
	var maxVariance float64
	lo, hi := -1, -1
	for i, count := range hist {
		wB += float64(count)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(count)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			lo, hi = i, i
		} else if variance == maxVariance && lo >= 0 {
			hi = i
		}
	}
	if lo < 0 {
		return 128
	}
	return uint8((lo+hi)/2 + 1)
}

// binarize maps pixels below the threshold to black and the rest to white.
func binarize(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	dst := image.NewGray(bounds)
	for i, v := range gray.Pix {
		if v < threshold {
			dst.Pix[i] = 0x00
		} else {
			dst.Pix[i] = 0xFF
		}
	}
	return dst
}
