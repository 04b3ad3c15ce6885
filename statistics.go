package magick

// ChannelStatistics statistics of one channel in quantum scale
type ChannelStatistics struct {
	Channel           Channels `json:"channel"`
	Minimum           float64  `json:"minimum"`
	Maximum           float64  `json:"maximum"`
	Mean              float64  `json:"mean"`
	StandardDeviation float64  `json:"standard_deviation"`
	Kurtosis          float64  `json:"kurtosis"`
	Skewness          float64  `json:"skewness"`
	Entropy           float64  `json:"entropy"`
}

// Statistics per channel statistics of an image
type Statistics struct {
	Channels []ChannelStatistics `json:"channels"`
}

// Channel statistics of a single channel
func (s *Statistics) Channel(channel Channels) (ChannelStatistics, bool) {
	for _, c := range s.Channels {
		if c.Channel == channel {
			return c, true
		}
	}
	return ChannelStatistics{}, false
}

// Composite averages the statistics of all channels
func (s *Statistics) Composite() ChannelStatistics {
	out := ChannelStatistics{Channel: ChannelsComposite}
	n := float64(len(s.Channels))
	if n == 0 {
		return out
	}
	for i, c := range s.Channels {
		if i == 0 || c.Minimum < out.Minimum {
			out.Minimum = c.Minimum
		}
		if c.Maximum > out.Maximum {
			out.Maximum = c.Maximum
		}
		out.Mean += c.Mean / n
		out.StandardDeviation += c.StandardDeviation / n
		out.Kurtosis += c.Kurtosis / n
		out.Skewness += c.Skewness / n
		out.Entropy += c.Entropy / n
	}
	return out
}
