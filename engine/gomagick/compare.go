package gomagick

import (
	"image"
	"image/color"
	"math"

	"github.com/cshum/magick"
)

var (
	defaultHighlight = color.NRGBA{R: 0xf1, G: 0x00, B: 0x1e, A: 0xcc}
	defaultLowlight  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xcc}
)

// channel offsets of the NRGBA pixel selected by channels
func channelOffsets(channels magick.Channels, alpha bool) []int {
	ch := channels.Resolve()
	var offsets []int
	for i, c := range []magick.Channels{magick.ChannelRed, magick.ChannelGreen, magick.ChannelBlue} {
		if ch.Has(c) {
			offsets = append(offsets, i)
		}
	}
	if alpha && ch.Has(magick.ChannelAlpha) {
		offsets = append(offsets, 3)
	}
	return offsets
}

func (img *Image) pair(reference magick.NativeImage) (*image.NRGBA, *image.NRGBA, error) {
	refs, err := images([]magick.NativeImage{reference})
	if err != nil {
		return nil, nil, err
	}
	a, err := img.nrgba()
	if err != nil {
		return nil, nil, err
	}
	b, err := refs[0].nrgba()
	if err != nil {
		return nil, nil, err
	}
	if a.Rect.Size() != b.Rect.Size() {
		return nil, nil, magick.NewException(magick.ImageError,
			"image widths or heights differ", "compare")
	}
	return a, b, nil
}

// Compare implements magick.NativeImage
func (img *Image) Compare(reference magick.NativeImage, metric magick.ErrorMetric, channels magick.Channels) (float64, error) {
	a, b, err := img.pair(reference)
	if err != nil {
		return 0, err
	}
	return distortion(a, b, metric, channelOffsets(channels, img.alpha || reference.HasAlpha()))
}

// fuzz distance in 8 bit units from the fuzz artifact
func (img *Image) fuzz() float64 {
	v, ok := img.artifacts["compare:fuzz"]
	if !ok {
		return 0
	}
	p, err := magick.ParsePercentage(v)
	if err != nil {
		return 0
	}
	return p.Fraction() * 255
}

func distortion(a, b *image.NRGBA, metric magick.ErrorMetric, offsets []int) (float64, error) {
	if len(offsets) == 0 {
		return 0, nil
	}
	var (
		sum, sumSq, peak  float64
		sa, sb, saa, sbb  float64
		sab, count, diffs float64
	)
	for i := 0; i+3 < len(a.Pix); i += 4 {
		differs := false
		for _, o := range offsets {
			va, vb := float64(a.Pix[i+o])/255, float64(b.Pix[i+o])/255
			d := math.Abs(va - vb)
			sum += d
			sumSq += d * d
			peak = math.Max(peak, d)
			sa += va
			sb += vb
			saa += va * va
			sbb += vb * vb
			sab += va * vb
			if d > 0 {
				differs = true
			}
		}
		if differs {
			diffs++
		}
		count++
	}
	n := count * float64(len(offsets))
	switch metric {
	case magick.ErrorMetricAbsolute:
		return diffs, nil
	case magick.ErrorMetricMeanAbsolute:
		return sum / n, nil
	case magick.ErrorMetricMeanErrorPerPixel:
		return sum / n * magick.QuantumMax, nil
	case magick.ErrorMetricMeanSquared:
		return sumSq / n, nil
	case magick.ErrorMetricRootMeanSquared, magick.ErrorMetricUndefined:
		return math.Sqrt(sumSq / n), nil
	case magick.ErrorMetricPeakAbsolute:
		return peak, nil
	case magick.ErrorMetricPeakSignalToNoiseRatio:
		mse := sumSq / n
		if mse == 0 {
			return math.Inf(1), nil
		}
		return 10 * math.Log10(1/mse), nil
	case magick.ErrorMetricNormalizedCrossCorrelation:
		ma, mb := sa/n, sb/n
		cov := sab/n - ma*mb
		da, db := math.Sqrt(saa/n-ma*ma), math.Sqrt(sbb/n-mb*mb)
		if da*db == 0 {
			if da == db {
				return 1, nil
			}
			return 0, nil
		}
		return cov / (da * db), nil
	}
	return 0, missingDelegate("metric " + metric.String())
}

// CompareDifference implements magick.NativeImage. Pixels that differ are
// painted with compare:highlight-color, equal pixels with compare:lowlight-color.
func (img *Image) CompareDifference(reference magick.NativeImage, metric magick.ErrorMetric, channels magick.Channels) (float64, magick.NativeImage, error) {
	a, b, err := img.pair(reference)
	if err != nil {
		return 0, nil, err
	}
	offsets := channelOffsets(channels, img.alpha || reference.HasAlpha())
	d, err := distortion(a, b, metric, offsets)
	if err != nil {
		return 0, nil, err
	}
	highlight := img.artifactColor("compare:highlight-color", defaultHighlight)
	lowlight := img.artifactColor("compare:lowlight-color", defaultLowlight)
	fuzz := img.fuzz()
	out := image.NewNRGBA(a.Rect)
	for i := 0; i+3 < len(a.Pix); i += 4 {
		c := lowlight
		for _, o := range offsets {
			if math.Abs(float64(a.Pix[i+o])-float64(b.Pix[i+o])) > fuzz {
				c = highlight
				break
			}
		}
		// paint over the dimmed source pixel
		as := float64(c.A) / 255
		for k, v := range []uint8{c.R, c.G, c.B} {
			out.Pix[i+k] = clamp8(float64(v)*as + float64(a.Pix[i+k])*(1-as))
		}
		out.Pix[i+3] = 0xff
	}
	diff := img.derive(out)
	diff.alpha = false
	return d, diff, nil
}

func (img *Image) artifactColor(name string, fallback color.NRGBA) color.NRGBA {
	v, ok := img.artifacts[name]
	if !ok {
		return fallback
	}
	c, err := magick.ParseColor(v)
	if err != nil {
		return fallback
	}
	return nrgbaOf(c)
}

// Statistics implements magick.NativeImage, values in quantum scale
func (img *Image) Statistics(channels magick.Channels) (*magick.Statistics, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	names := []magick.Channels{magick.ChannelRed, magick.ChannelGreen, magick.ChannelBlue, magick.ChannelAlpha}
	offsets := channelOffsets(channels, img.alpha)
	if img.colorSpace == magick.ColorSpaceGray {
		offsets = offsets[:min(len(offsets), 1)]
		if img.alpha && channels.Resolve().Has(magick.ChannelAlpha) {
			offsets = append(offsets, 3)
		}
	}
	stats := &magick.Statistics{}
	for _, o := range offsets {
		stats.Channels = append(stats.Channels, channelStatistics(p, o, names[o]))
	}
	return stats, nil
}

func channelStatistics(p *image.NRGBA, offset int, channel magick.Channels) magick.ChannelStatistics {
	var (
		histogram [256]float64
		sum, n    float64
		lo, hi    = 255.0, 0.0
	)
	for i := offset; i < len(p.Pix); i += 4 {
		v := float64(p.Pix[i])
		histogram[p.Pix[i]]++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		n++
	}
	s := magick.ChannelStatistics{Channel: channel}
	if n == 0 {
		return s
	}
	mean := sum / n
	var m2, m3, m4, entropy float64
	for v, c := range histogram {
		if c == 0 {
			continue
		}
		d := float64(v) - mean
		m2 += c * d * d
		m3 += c * d * d * d
		m4 += c * d * d * d * d
		f := c / n
		entropy -= f * math.Log2(f)
	}
	m2, m3, m4 = m2/n, m3/n, m4/n
	s.Minimum = lo * quantumScale
	s.Maximum = hi * quantumScale
	s.Mean = mean * quantumScale
	s.StandardDeviation = math.Sqrt(m2) * quantumScale
	if m2 > 0 {
		s.Skewness = m3 / math.Pow(m2, 1.5)
		s.Kurtosis = m4/(m2*m2) - 3
	}
	s.Entropy = entropy / 8
	return s
}
