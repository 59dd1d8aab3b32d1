package util

import (
	"fmt"
	"time"
)

// Stats describes the progress of a byte stream.
type Stats struct {
	Fraction float32       // 0.0-1.0
	Speed    float64       // MiB/s
	ETA      time.Duration // zero until a speed is known
}

// Statify computes progress, throughput and remaining time for done of
// total bytes processed since start.
func Statify(done, total int64, start time.Time) Stats {
	if total <= 0 {
		return Stats{Fraction: 1}
	}
	s := Stats{Fraction: min(float32(done)/float32(total), 1)}

	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 || done <= 0 {
		return s
	}
	s.Speed = float64(done) / elapsed / MiB
	if remaining := total - done; remaining > 0 {
		s.ETA = time.Duration(float64(remaining) / float64(done) * elapsed * float64(time.Second)).Round(time.Second)
	}
	return s
}

// String renders the stats the way the progress line shows them.
func (s Stats) String() string {
	return fmt.Sprintf("%5.1f%% %7.2f MiB/s ETA %s", s.Fraction*100, s.Speed, Timeify(s.ETA))
}

// Timeify formats d as "HH:MM:SS". Negative durations read as zero.
func Timeify(d time.Duration) string {
	secs := max(int64(d/time.Second), 0)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// Sizeify converts bytes to a human-readable string.
func Sizeify(size int64) string {
	switch {
	case size >= TiB:
		return fmt.Sprintf("%.2f TiB", float64(size)/TiB)
	case size >= GiB:
		return fmt.Sprintf("%.2f GiB", float64(size)/GiB)
	case size >= MiB:
		return fmt.Sprintf("%.2f MiB", float64(size)/MiB)
	case size >= KiB:
		return fmt.Sprintf("%.2f KiB", float64(size)/KiB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
