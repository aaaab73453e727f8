package probemap

type Stats struct {
	Size            int
	Capacity        int
	ResizeThreshold int
	LoadFactor      float64

	// Distance of an entry from its ideal slot, i.e. the number of extra
	// slots a lookup of that entry has to check.
	MaxProbeDistance int
	AvgProbeDistance float32
}
