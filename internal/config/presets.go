package config

// Presets are named driver setups for common workflows.
var Presets = map[string]*Config{
	"quick": {
		DataDir: ".dynamo", Events: 10000, PrintEvery: 5000,
		Replex: ReplexConfig{SwapInterval: DefaultSwapInterval, Attempts: 10},
	},
	"production": {
		DataDir: ".dynamo", Events: 1000000, PrintEvery: 100000,
		Replex: ReplexConfig{SwapInterval: DefaultSwapInterval, Attempts: 10},
	},
	"compress": {
		DataDir: ".dynamo", Events: 1 << 62, PrintEvery: 100000,
		Compression: CompressionConfig{GrowthRate: 0.01, TargetPacking: 0.45, Restore: true},
		Replex:      ReplexConfig{SwapInterval: DefaultSwapInterval, Attempts: 10},
	},
	"replex": {
		DataDir: ".dynamo", Events: 500000, PrintEvery: 100000,
		Replex: ReplexConfig{
			Temperatures: []float64{1.0, 1.3, 1.7, 2.2},
			SwapInterval: 2000,
			Attempts:     100,
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
