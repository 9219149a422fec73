package audio

import (
	"fmt"
	"path/filepath"

	"github.com/stemforge/stemforge/internal/tensor"
)

// RemixStems sums the stem files present in dir for one track back into a
// mixture. Stems are looked up as <base>_<instrument>.wav; an unreadable or
// absent stem is skipped (logged through log), so a partial stem set still
// remixes. Returns the mixture, its sample rate and the instruments that
// contributed.
func RemixStems(dir, base string, instruments []string, log Logger) (*tensor.Tensor, int, []string, error) {
	var sum *tensor.Tensor
	sampleRate := 0
	used := make([]string, 0, len(instruments))

	for _, name := range instruments {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", base, name))
		buf, sr := ReadSkipErr(path, name, log)
		if buf == nil {
			continue
		}
		if sum == nil {
			sum = buf
			sampleRate = sr
			used = append(used, name)
			continue
		}
		if sr != sampleRate {
			return nil, 0, nil, fmt.Errorf("stem %s sample rate %d does not match %d", name, sr, sampleRate)
		}
		if !sum.SameShape(buf) {
			return nil, 0, nil, fmt.Errorf("stem %s shape %v does not match %v", name, buf.Shape, sum.Shape)
		}
		for i, v := range buf.Data {
			sum.Data[i] += v
		}
		used = append(used, name)
	}

	if sum == nil {
		return nil, 0, nil, fmt.Errorf("no stems found for %s in %s", base, dir)
	}
	return sum, sampleRate, used, nil
}
