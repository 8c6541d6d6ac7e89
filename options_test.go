package darkroom

import "testing"

func TestWithCacheBudgetRoundsUpToWholeMiB(t *testing.T) {
	tests := []struct {
		name   string
		bytes  int64
		wantMB int
	}{
		{"zero disables caching", 0, 0},
		{"one byte keeps caching on", 1, 1},
		{"sub-MiB rounds up", 512 << 10, 1},
		{"exact MiB unchanged", 8 << 20, 8},
		{"just over rounds up", 8<<20 + 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultRendererOptions()
			WithCacheBudget(tt.bytes)(&o)
			if o.cfg.CacheBudgetMB != tt.wantMB {
				t.Errorf("CacheBudgetMB = %d, want %d", o.cfg.CacheBudgetMB, tt.wantMB)
			}
		})
	}
}
