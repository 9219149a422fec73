package separation

import "fmt"

// BuildWindow returns a cross-fade envelope of the given size: a linear ramp
// 0→1 over the first fade samples, ones in the middle, and a linear ramp 1→0
// over the last fade samples. Chunks multiplied by this window can be summed
// at overlapping offsets without clicks at the seams.
//
// BuildWindow(10, 3) yields [0, 0.5, 1, 1, 1, 1, 1, 1, 0.5, 0].
func BuildWindow(size, fade int) ([]float32, error) {
	if fade <= 0 || fade > size/2 {
		return nil, fmt.Errorf("fade size %d out of range for window size %d", fade, size)
	}
	w := make([]float32, size)
	for i := range w {
		w[i] = 1
	}
	// linspace endpoints included, matching a 0..1 ramp over fade points
	for i := 0; i < fade; i++ {
		v := float32(i) / float32(fade-1)
		w[i] = v
		w[size-1-i] = v
	}
	if fade == 1 {
		w[0] = 0
		w[size-1] = 0
	}
	return w, nil
}
