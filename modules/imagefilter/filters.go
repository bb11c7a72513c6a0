package imagefilter

import (
	"fmt"
	"math"
	"sort"
)

// planeFilter transforms one w×h row-major plane from src into dst. The
// slices never alias.
type planeFilter func(dst, src []float32, w, h int)

func forAlgorithm(name string, sigma float64) (planeFilter, error) {
	switch name {
	case "gaussian":
		return gaussianFilter(sigma), nil
	case "median":
		return medianFilter, nil
	case "sobel":
		return sobelFilter, nil
	case "invert":
		return invertFilter, nil
	}
	return nil, fmt.Errorf("unknown filter algorithm %q", name)
}

// at samples a plane with clamp-to-edge boundary handling.
func at(src []float32, w, h, x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return src[y*w+x]
}

// gaussianFilter builds a separable blur with kernel radius 3*sigma.
func gaussianFilter(sigma float64) planeFilter {
	if sigma <= 0 {
		sigma = 1.0
	}
	radius := int(3 * sigma)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	return func(dst, src []float32, w, h int) {
		tmp := make([]float32, len(src))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					acc += kernel[k+radius] * float64(at(src, w, h, x+k, y))
				}
				tmp[y*w+x] = float32(acc)
			}
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					acc += kernel[k+radius] * float64(at(tmp, w, h, x, y+k))
				}
				dst[y*w+x] = float32(acc)
			}
		}
	}
}

// medianFilter replaces each sample with the median of its 3x3
// neighborhood.
func medianFilter(dst, src []float32, w, h int) {
	window := make([]float32, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = at(src, w, h, x+dx, y+dy)
					i++
				}
			}
			sort.Slice(window, func(a, b int) bool { return window[a] < window[b] })
			dst[y*w+x] = window[4]
		}
	}
}

// sobelFilter computes the gradient magnitude of the standard 3x3 sobel
// operators.
func sobelFilter(dst, src []float32, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := float64(at(src, w, h, x+1, y-1)) - float64(at(src, w, h, x-1, y-1)) +
				2*(float64(at(src, w, h, x+1, y))-float64(at(src, w, h, x-1, y))) +
				float64(at(src, w, h, x+1, y+1)) - float64(at(src, w, h, x-1, y+1))
			gy := float64(at(src, w, h, x-1, y+1)) - float64(at(src, w, h, x-1, y-1)) +
				2*(float64(at(src, w, h, x, y+1))-float64(at(src, w, h, x, y-1))) +
				float64(at(src, w, h, x+1, y+1)) - float64(at(src, w, h, x+1, y-1))
			dst[y*w+x] = float32(math.Sqrt(gx*gx + gy*gy))
		}
	}
}

// invertFilter mirrors 8-bit intensity inversion on float data.
func invertFilter(dst, src []float32, _, _ int) {
	for i, v := range src {
		dst[i] = 255 - v
	}
}
